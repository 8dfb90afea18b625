// Package feed serves activity listings and their rendered form.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"keeptrack/pkg/activity"
	"keeptrack/pkg/activity/render"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Service reads activities from the primary finder, preferring a cache
// finder when one is configured and can fill the requested page.
type Service struct {
	primary  activity.Finder
	cache    activity.Finder
	renderer *render.Renderer
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache reads through cache before the primary finder.
func WithCache(cache activity.Finder) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService builds a feed Service.
func NewService(primary activity.Finder, renderer *render.Renderer, opts ...Option) (*Service, error) {
	if primary == nil {
		return nil, errors.New("activity finder is required")
	}
	if renderer == nil {
		return nil, errors.New("activity renderer is required")
	}
	s := &Service{
		primary:  primary,
		renderer: renderer,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NormalizeLimit clamps a requested page size.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// List returns activities matching q, newest first.
func (s *Service) List(ctx context.Context, q activity.Query) ([]*activity.Record, error) {
	q.Limit = NormalizeLimit(q.Limit)
	if s.cache != nil {
		recs, err := s.cache.List(ctx, q)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "activity cache list failed", "error", err)
		case len(recs) >= q.Limit:
			return recs, nil
		}
	}
	recs, err := s.primary.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return recs, nil
}

// Get returns one activity.
func (s *Service) Get(ctx context.Context, activityID id.ActivityID) (*activity.Record, error) {
	if s.cache != nil {
		rec, err := s.cache.Find(ctx, activityID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "activity cache find failed",
				"activity_id", activityID.String(),
				"error", err,
			)
		}
	}
	return s.primary.Find(ctx, activityID)
}

// Render writes one activity to w.
func (s *Service) Render(ctx context.Context, w io.Writer, activityID id.ActivityID, opts render.Options) error {
	rec, err := s.Get(ctx, activityID)
	if err != nil {
		return err
	}
	return s.renderer.Render(ctx, w, rec, opts)
}

// RenderList writes every activity matching q to w.
func (s *Service) RenderList(ctx context.Context, w io.Writer, q activity.Query, opts render.Options) error {
	recs, err := s.List(ctx, q)
	if err != nil {
		return err
	}
	return s.renderer.RenderAll(ctx, w, recs, opts)
}

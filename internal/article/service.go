package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"keeptrack/pkg/activity"
	"keeptrack/pkg/requestcontext"
)

// ErrInvalidArticle is returned for input that cannot form an article.
var ErrInvalidArticle = errors.New("invalid article")

// Recorder is the subset of *activity.Recorder the service drives.
type Recorder interface {
	Record(ctx context.Context, subject activity.Subject, action string, opts activity.Options) (*activity.Record, error)
	AfterCreate(ctx context.Context, subject activity.Subject) (*activity.Record, error)
	AfterUpdate(ctx context.Context, subject activity.Subject, changed bool) (*activity.Record, error)
	BeforeDestroy(ctx context.Context, subject activity.Subject) (*activity.Record, error)
}

// Service mutates articles and records their lifecycle activities. When the
// recorder returns an error the mutation is undone.
type Service struct {
	repo     Repository
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a Service.
func NewService(repo Repository, recorder Recorder, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("article repository is required")
	}
	if recorder == nil {
		return nil, errors.New("activity recorder is required")
	}
	s := &Service{
		repo:     repo,
		recorder: recorder,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get loads one article.
func (s *Service) Get(ctx context.Context, articleID string) (*Article, error) {
	return s.repo.Get(ctx, articleID)
}

// Create stores a new article authored by the current caller and records
// its create activity.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Result, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArticle)
	}
	now := s.now().UTC()
	a := &Article{Fields: Fields{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	caller := requestcontext.CurrentCaller(ctx)
	if caller != nil {
		a.AuthorID = caller.ID
		a.AuthorName = caller.Name
	}
	if err := s.repo.Create(ctx, a.Fields); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	if a.AuthorName != "" {
		a.SetActivity(activity.Tier{Params: activity.Literals(map[string]any{"author_name": a.AuthorName})})
	}
	rec, err := s.recorder.AfterCreate(ctx, a)
	if err != nil {
		if delErr := s.repo.Delete(ctx, a.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to undo article create",
				"article_id", a.ID,
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("record article create: %w", err)
	}
	return &Result{Article: a, Activity: rec}, nil
}

// Update applies req and records an update activity when something changed.
func (s *Service) Update(ctx context.Context, articleID string, req UpdateRequest) (*Result, error) {
	a, err := s.repo.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be blank", ErrInvalidArticle)
	}
	before := a.Fields
	changed := req.apply(&a.Fields)
	if !changed {
		return &Result{Article: a}, nil
	}
	a.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, a.Fields); err != nil {
		return nil, fmt.Errorf("save article: %w", err)
	}

	rec, err := s.recorder.AfterUpdate(ctx, a, changed)
	if err != nil {
		if restoreErr := s.repo.Save(ctx, before); restoreErr != nil {
			s.logger.ErrorContext(ctx, "failed to undo article update",
				"article_id", a.ID,
				"error", restoreErr,
			)
		}
		return nil, fmt.Errorf("record article update: %w", err)
	}
	return &Result{Article: a, Activity: rec}, nil
}

// Delete records the destroy activity and then removes the article. A
// recording error keeps the article.
func (s *Service) Delete(ctx context.Context, articleID string) (*Result, error) {
	a, err := s.repo.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	rec, err := s.recorder.BeforeDestroy(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("record article destroy: %w", err)
	}
	if err := s.repo.Delete(ctx, articleID); err != nil {
		return nil, fmt.Errorf("delete article: %w", err)
	}
	return &Result{Article: a, Activity: rec}, nil
}

// Track records an explicit activity for an article. The returned record is
// nil when a hook vetoed it or tracking is off.
func (s *Service) Track(ctx context.Context, articleID string, opts activity.Options) (*activity.Record, error) {
	a, err := s.repo.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return s.recorder.Record(ctx, a, "", opts)
}

package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"keeptrack/pkg/activity"
	"keeptrack/pkg/platform/sentinel"
)

// Projector appends streamed activities to a read model. Redelivered
// records are ignored.
type Projector struct {
	target activity.Store
	logger *slog.Logger
}

// NewProjector builds a Projector writing to target.
func NewProjector(target activity.Store, logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Projector{target: target, logger: logger}
}

// Handle has the shape of a stream consumer handler.
func (p *Projector) Handle(ctx context.Context, rec *activity.Record) error {
	err := p.target.Append(ctx, rec)
	if errors.Is(err, sentinel.ErrConflict) {
		p.logger.DebugContext(ctx, "activity already projected", "activity_id", rec.ID.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("project activity %s: %w", rec.ID, err)
	}
	return nil
}

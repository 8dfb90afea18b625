package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"keeptrack/pkg/activity"
)

// Fetcher is the subset of *kgo.Client a consumer needs.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
}

// Handler processes one decoded activity.
type Handler func(ctx context.Context, rec *activity.Record) error

// DefaultRetryDelay is how long Run waits after a failed batch before
// polling again.
const DefaultRetryDelay = 500 * time.Millisecond

// Consumer polls a fetcher and hands decoded activities to a handler.
type Consumer struct {
	fetcher    Fetcher
	handle     Handler
	logger     *slog.Logger
	retryDelay time.Duration
	failures   atomic.Int64
}

// NewConsumer builds a consumer. A nil logger discards undecodable records.
func NewConsumer(fetcher Fetcher, handle Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Consumer{fetcher: fetcher, handle: handle, logger: logger, retryDelay: DefaultRetryDelay}
}

// Run polls until ctx is done or the client is closed; both end with a nil
// error. A failed batch is logged and counted, and polling resumes after
// the retry delay. Failed records are not redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.fetcher.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		err := c.Process(ctx, fetches)
		if err == nil {
			continue
		}
		c.failures.Add(1)
		c.logger.ErrorContext(ctx, "activity batch failed", "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.retryDelay):
		}
	}
}

// Failures is the number of batches that reported an error.
func (c *Consumer) Failures() int64 { return c.failures.Load() }

// Process handles one batch of fetches. Every record is offered to the
// handler; fetch and handler errors are joined.
func (c *Consumer) Process(ctx context.Context, fetches kgo.Fetches) error {
	var errs []error
	for _, fe := range fetches.Errors() {
		if errors.Is(fe.Err, context.Canceled) || errors.Is(fe.Err, context.DeadlineExceeded) {
			continue
		}
		errs = append(errs, fmt.Errorf("fetch %s/%d: %w", fe.Topic, fe.Partition, fe.Err))
	}

	fetches.EachRecord(func(r *kgo.Record) {
		rec, err := Decode(r)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping undecodable activity", "error", err)
			return
		}
		if err := c.handle(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("handle activity %s: %w", rec.ID, err))
		}
	})
	return errors.Join(errs...)
}

// Package async decouples activity persistence from the recording path.
// Appends are queued on a bounded channel and written to the wrapped store
// by a single worker; Close drains the queue.
package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"keeptrack/pkg/activity"
	"keeptrack/pkg/platform/sentinel"
)

// ErrBufferFull is returned when the queue cannot take another record.
var ErrBufferFull = fmt.Errorf("activity buffer full: %w", sentinel.ErrUnavailable)

const defaultBuffer = 256

type item struct {
	ctx context.Context
	rec *activity.Record
}

// Store implements activity.Store. Queued records keep the values of the
// caller's context but not its cancellation.
type Store struct {
	next   activity.Store
	logger *slog.Logger
	buffer int

	mu     sync.RWMutex
	closed bool
	queue  chan item
	done   chan struct{}

	dropped atomic.Int64
	failed  atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithBuffer sets the queue capacity.
func WithBuffer(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithLogger sets the logger for failed background appends.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New starts the worker. Call Close to stop it.
func New(next activity.Store, opts ...Option) *Store {
	s := &Store{
		next:   next,
		logger: slog.New(slog.DiscardHandler),
		buffer: defaultBuffer,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = make(chan item, s.buffer)
	go s.run()
	return s
}

// Append implements activity.Store. It never blocks: a full queue returns
// ErrBufferFull and a closed store sentinel.ErrInvalidState.
func (s *Store) Append(ctx context.Context, record *activity.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("activity buffer closed: %w", sentinel.ErrInvalidState)
	}

	select {
	case s.queue <- item{ctx: context.WithoutCancel(ctx), rec: record.Clone()}:
		return nil
	default:
		s.dropped.Add(1)
		return ErrBufferFull
	}
}

func (s *Store) run() {
	defer close(s.done)
	for it := range s.queue {
		if err := s.next.Append(it.ctx, it.rec); err != nil {
			s.failed.Add(1)
			s.logger.WarnContext(it.ctx, "async activity append failed",
				"activity_id", it.rec.ID,
				"key", it.rec.Key,
				"error", err,
			)
		}
	}
}

// Close stops accepting records and waits until the queue is drained or
// ctx is done. It is safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return errors.Join(ctx.Err(), fmt.Errorf("%d activities still queued", len(s.queue)))
	}
}

// Pending is the number of queued records.
func (s *Store) Pending() int { return len(s.queue) }

// Dropped counts appends rejected with ErrBufferFull.
func (s *Store) Dropped() int64 { return s.dropped.Load() }

// Failed counts background appends the wrapped store rejected.
func (s *Store) Failed() int64 { return s.failed.Load() }

package activity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"keeptrack/pkg/requestcontext"
)

// StoragePolicy decides what the lenient Record does with storage failures.
type StoragePolicy int

const (
	// BestEffort logs storage failures and reports "nothing recorded".
	BestEffort StoragePolicy = iota
	// Propagate returns storage failures to the caller.
	Propagate
)

// Recorder is the entry point for recording activities.
type Recorder struct {
	registry *Registry
	composer *Composer
	adapter  Adapter
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	policy   StoragePolicy
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets a logger for storage failures and vetoes.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Recorder) {
		r.tracer = tracer
	}
}

// WithStoragePolicy sets how Record treats storage failures.
func WithStoragePolicy(p StoragePolicy) Option {
	return func(r *Recorder) {
		r.policy = p
	}
}

// NewRecorder creates a recorder over registry that persists through adapter.
func NewRecorder(registry *Registry, adapter Adapter, opts ...Option) (*Recorder, error) {
	if registry == nil {
		return nil, errors.New("activity: registry is required")
	}
	if adapter == nil {
		return nil, errors.New("activity: adapter is required")
	}
	r := &Recorder{
		registry: registry,
		composer: NewComposer(registry),
		adapter:  adapter,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("keeptrack/activity"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Registry returns the registry the recorder reads from.
func (r *Recorder) Registry() *Registry { return r.registry }

// Record records an activity for subject. action may be empty when opts
// carries a Key or Action. It returns (nil, nil) when tracking is disabled,
// when a hook vetoes the activity, or, under BestEffort, when storage fails.
// Composition and hook errors are always returned.
func (r *Recorder) Record(ctx context.Context, subject Subject, action string, opts Options) (*Record, error) {
	return r.record(ctx, subject, action, opts, r.policy == Propagate)
}

// RecordStrict is Record with storage failures always returned.
func (r *Recorder) RecordStrict(ctx context.Context, subject Subject, action string, opts Options) (*Record, error) {
	return r.record(ctx, subject, action, opts, true)
}

func (r *Recorder) record(ctx context.Context, subject Subject, action string, opts Options, strict bool) (*Record, error) {
	ref := subject.ActivityRef()
	if !r.registry.EnabledFor(ref.Type) {
		r.metrics.incSkipped(ref.Type)
		return nil, nil
	}
	if action != "" {
		opts.Action = action
	}

	ctx, span := r.tracer.Start(ctx, "activity.Record", trace.WithAttributes(
		attribute.String("activity.trackable_type", ref.Type),
		attribute.String("activity.trackable_id", ref.ID),
	))
	defer span.End()
	start := time.Now()

	caller := requestcontext.CurrentCaller(ctx)
	settings, err := r.composer.Compose(subject, opts, caller)
	if err != nil {
		r.metrics.incComposeFailures()
		span.RecordError(err)
		span.SetStatus(codes.Error, "compose failed")
		return nil, err
	}
	key := settings.Key()
	hookAction := ActionFromKey(key)
	span.SetAttributes(attribute.String("activity.key", key))

	var hooks *Hooks
	if cfg, ok := r.registry.Lookup(ref.Type); ok {
		hooks = cfg.Hooks()
	}
	allowed, err := hooks.Check(hookAction, subject, caller)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hook failed")
		return nil, err
	}

	if in := subject.ActivityInstance(); in != nil {
		in.ResetActivity()
	}

	if !allowed {
		r.metrics.incVetoed(hookAction)
		r.logger.DebugContext(ctx, "activity vetoed by hook",
			"key", key,
			"trackable", ref.String(),
		)
		return nil, nil
	}

	rec, err := r.adapter.Create(ctx, ref, settings)
	if err != nil {
		var storageErr *StorageError
		if !errors.As(err, &storageErr) {
			storageErr = &StorageError{Op: "create", Err: err}
		}
		r.metrics.incStorageFailures()
		span.RecordError(storageErr)
		span.SetStatus(codes.Error, "storage failed")
		if strict {
			return nil, storageErr
		}
		r.logger.WarnContext(ctx, "activity not persisted",
			"key", key,
			"trackable", ref.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", storageErr,
		)
		return nil, nil
	}

	r.metrics.incRecorded(hookAction)
	r.metrics.observeDuration(time.Since(start).Seconds())
	return rec, nil
}

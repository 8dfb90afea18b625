package activity

import "context"

// AfterCreate records the create activity if the type tracks it.
func (r *Recorder) AfterCreate(ctx context.Context, subject Subject) (*Record, error) {
	return r.lifecycle(ctx, subject, ActionCreate)
}

// AfterUpdate records the update activity if the type tracks it and the
// entity actually changed.
func (r *Recorder) AfterUpdate(ctx context.Context, subject Subject, changed bool) (*Record, error) {
	if !changed {
		return nil, nil
	}
	return r.lifecycle(ctx, subject, ActionUpdate)
}

// BeforeDestroy records the destroy activity if the type tracks it. Call it
// while the entity still exists so attribute references resolve.
func (r *Recorder) BeforeDestroy(ctx context.Context, subject Subject) (*Record, error) {
	return r.lifecycle(ctx, subject, ActionDestroy)
}

func (r *Recorder) lifecycle(ctx context.Context, subject Subject, action Action) (*Record, error) {
	cfg, ok := r.registry.Lookup(subject.ActivityRef().Type)
	if !ok || !cfg.Tracks(action) {
		return nil, nil
	}
	return r.Record(ctx, subject, string(action), Options{})
}

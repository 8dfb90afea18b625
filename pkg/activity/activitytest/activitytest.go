// Package activitytest holds helpers for tests of code that records activities.
package activitytest

import (
	"context"
	"sync"
	"testing"

	"keeptrack/pkg/activity"
)

// WithoutTracking switches recording off for the given types, or globally
// when none are named, until the test finishes.
func WithoutTracking(t testing.TB, reg *activity.Registry, typeNames ...string) {
	t.Helper()
	toggle(t, reg, false, typeNames)
}

// WithTracking switches recording on for the given types, or globally when
// none are named, until the test finishes.
func WithTracking(t testing.TB, reg *activity.Registry, typeNames ...string) {
	t.Helper()
	toggle(t, reg, true, typeNames)
}

func toggle(t testing.TB, reg *activity.Registry, enabled bool, typeNames []string) {
	t.Helper()
	if len(typeNames) == 0 {
		prev := reg.Enabled()
		reg.SetEnabled(enabled)
		t.Cleanup(func() { reg.SetEnabled(prev) })
		return
	}
	for _, name := range typeNames {
		cfg, ok := reg.Lookup(name)
		if !ok {
			t.Fatalf("activitytest: type %q is not tracked", name)
		}
		prev := cfg.Enabled()
		setEnabled(cfg, enabled)
		t.Cleanup(func() { setEnabled(cfg, prev) })
	}
}

func setEnabled(cfg *activity.TypeConfig, enabled bool) {
	if enabled {
		cfg.Enable()
	} else {
		cfg.Disable()
	}
}

// CaptureStore is an activity.Store that keeps appended records for assertions.
type CaptureStore struct {
	mu      sync.Mutex
	records []*activity.Record
	err     error
}

// FailWith makes every later Append return err.
func (c *CaptureStore) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *CaptureStore) Append(_ context.Context, record *activity.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, record.Clone())
	return nil
}

// Records returns the captured records in append order.
func (c *CaptureStore) Records() []*activity.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*activity.Record(nil), c.records...)
}

// Keys returns the keys of the captured records in append order.
func (c *CaptureStore) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.records))
	for _, r := range c.records {
		keys = append(keys, r.Key)
	}
	return keys
}

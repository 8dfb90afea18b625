package requestcontext

import (
	"context"
	"sync"

	id "keeptrack/pkg/domain"
)

// Caller is the ambient actor of a unit of work: the authenticated principal
// of an HTTP request, or whoever a worker acts on behalf of.
type Caller struct {
	ID        string
	Type      string
	Name      string
	ClientIP  string
	UserAgent string
	Browser   string
}

// ActivityRef lets a caller be used directly as an activity owner or recipient.
func (c *Caller) ActivityRef() id.Ref {
	if c == nil {
		return id.Ref{}
	}
	return id.Ref{Type: c.Type, ID: c.ID}
}

// callerSlot is the mutable binding installed by WithCallerScope. One slot
// belongs to exactly one unit of work.
type callerSlot struct {
	mu     sync.RWMutex
	caller *Caller
}

// WithCaller binds an immutable caller to the context.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// WithCallerScope installs a fresh, empty caller slot so code further down
// the chain can SetCaller and ClearCaller explicitly. Slots never leak
// between contexts derived from different parents.
func WithCallerScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, callerSlotKey{}, &callerSlot{})
}

// SetCaller stores caller in the nearest scope and reports whether a scope existed.
func SetCaller(ctx context.Context, caller *Caller) bool {
	slot, ok := ctx.Value(callerSlotKey{}).(*callerSlot)
	if !ok {
		return false
	}
	slot.mu.Lock()
	slot.caller = caller
	slot.mu.Unlock()
	return true
}

// ClearCaller empties the nearest scope.
func ClearCaller(ctx context.Context) {
	SetCaller(ctx, nil)
}

// CurrentCaller returns the caller visible from ctx; nil when none is bound.
// A scoped slot takes precedence over an immutable WithCaller binding.
func CurrentCaller(ctx context.Context) *Caller {
	if slot, ok := ctx.Value(callerSlotKey{}).(*callerSlot); ok {
		slot.mu.RLock()
		caller := slot.caller
		slot.mu.RUnlock()
		if caller != nil {
			return caller
		}
	}
	if caller, ok := ctx.Value(ContextKeyCaller).(*Caller); ok {
		return caller
	}
	return nil
}

// RunWithCaller runs fn inside a new scope holding caller and clears the
// scope on every exit path, including panics.
func RunWithCaller(ctx context.Context, caller *Caller, fn func(ctx context.Context) error) error {
	ctx = WithCallerScope(ctx)
	SetCaller(ctx, caller)
	defer ClearCaller(ctx)
	return fn(ctx)
}

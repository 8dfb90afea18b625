package activity

import (
	"maps"
	"slices"
	"sync"

	"keeptrack/pkg/requestcontext"
)

// HookFunc decides whether an activity for subject may be recorded.
type HookFunc func(subject Subject, caller *requestcontext.Caller) (bool, error)

// Hooks maps canonical actions to at most one predicate each.
type Hooks struct {
	mu       sync.RWMutex
	byAction map[Action]HookFunc
}

// NewHooks returns an empty hook map.
func NewHooks() *Hooks {
	return &Hooks{byAction: make(map[Action]HookFunc)}
}

// Register installs hook for action, replacing any earlier one. A nil hook
// removes the registration.
func (h *Hooks) Register(action string, hook HookFunc) {
	key := NormalizeAction(action)
	h.mu.Lock()
	defer h.mu.Unlock()
	if hook == nil {
		delete(h.byAction, key)
		return
	}
	h.byAction[key] = hook
}

// Configure registers every callable in on and silently skips the rest.
// Accepted shapes are HookFunc, func(Subject, *Caller) (bool, error),
// func(Subject, *Caller) bool and func(Subject) bool. The actions whose
// values were skipped are returned for diagnostics.
func (h *Hooks) Configure(on map[Action]any) []Action {
	var dropped []Action
	for _, action := range slices.Sorted(maps.Keys(on)) {
		hook, ok := asHook(on[action])
		if !ok {
			dropped = append(dropped, NormalizeAction(string(action)))
			continue
		}
		h.Register(string(action), hook)
	}
	return dropped
}

func asHook(v any) (HookFunc, bool) {
	switch fn := v.(type) {
	case HookFunc:
		return fn, fn != nil
	case func(Subject, *requestcontext.Caller) (bool, error):
		return fn, fn != nil
	case func(Subject, *requestcontext.Caller) bool:
		if fn == nil {
			return nil, false
		}
		return func(s Subject, c *requestcontext.Caller) (bool, error) { return fn(s, c), nil }, true
	case func(Subject) bool:
		if fn == nil {
			return nil, false
		}
		return func(s Subject, _ *requestcontext.Caller) (bool, error) { return fn(s), nil }, true
	default:
		return nil, false
	}
}

// Lookup returns the hook registered for action.
func (h *Hooks) Lookup(action string) (HookFunc, bool) {
	if h == nil {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	hook, ok := h.byAction[NormalizeAction(action)]
	return hook, ok
}

// Actions lists the actions that currently have a hook.
func (h *Hooks) Actions() []Action {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Sorted(maps.Keys(h.byAction))
}

// Check runs the hook for action. Unregistered actions are allowed. Hook
// errors are returned unchanged.
func (h *Hooks) Check(action string, subject Subject, caller *requestcontext.Caller) (bool, error) {
	hook, ok := h.Lookup(action)
	if !ok {
		return true, nil
	}
	return hook(subject, caller)
}

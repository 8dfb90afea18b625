package activity

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// TrackOptions declares how a type is tracked: its global settings tier,
// its hooks and which lifecycle actions record automatically.
type TrackOptions struct {
	Owner        Value
	Recipient    Value
	Params       *Mapping
	CustomFields *Mapping

	// On maps actions to hook predicates. Values that are not callables of
	// an accepted shape are dropped.
	On map[Action]any

	// Only restricts lifecycle tracking to these actions.
	Only []Action
	// Except removes actions from the lifecycle set.
	Except []Action
	// SkipDefaults disables lifecycle tracking; only explicit Record calls record.
	SkipDefaults bool
}

// TypeConfig is the registered global configuration of one type.
type TypeConfig struct {
	name    string
	global  Tier
	hooks   *Hooks
	actions map[Action]bool
	enabled atomic.Bool
}

func newTypeConfig(name string, opts TrackOptions) *TypeConfig {
	c := &TypeConfig{
		name: name,
		global: Tier{
			Owner:        opts.Owner,
			Recipient:    opts.Recipient,
			Params:       opts.Params.Clone(),
			CustomFields: opts.CustomFields.Clone(),
		},
		hooks:   NewHooks(),
		actions: trackedActions(opts),
	}
	c.enabled.Store(true)
	return c
}

func trackedActions(opts TrackOptions) map[Action]bool {
	out := make(map[Action]bool)
	if opts.SkipDefaults {
		return out
	}
	base := DefaultActions
	if len(opts.Only) > 0 {
		base = opts.Only
	}
	for _, a := range base {
		out[NormalizeAction(string(a))] = true
	}
	for _, a := range opts.Except {
		delete(out, NormalizeAction(string(a)))
	}
	return out
}

// Name is the registered type name.
func (c *TypeConfig) Name() string { return c.name }

// Global returns a copy of the global settings tier.
func (c *TypeConfig) Global() Tier {
	t := c.global
	t.Params = t.Params.Clone()
	t.CustomFields = t.CustomFields.Clone()
	return t
}

// Hooks returns the type's hook map.
func (c *TypeConfig) Hooks() *Hooks { return c.hooks }

// Tracks reports whether a lifecycle action records automatically.
func (c *TypeConfig) Tracks(action Action) bool {
	return c.actions[NormalizeAction(string(action))]
}

// TrackedActions lists the lifecycle actions that record automatically.
func (c *TypeConfig) TrackedActions() []Action {
	out := make([]Action, 0, len(c.actions))
	for a := range c.actions {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// Enable switches recording on for this type.
func (c *TypeConfig) Enable() { c.enabled.Store(true) }

// Disable switches recording off for this type.
func (c *TypeConfig) Disable() { c.enabled.Store(false) }

// Enabled reports the per-type switch.
func (c *TypeConfig) Enabled() bool { return c.enabled.Load() }

// Registry holds the global tier of every tracked type and the global
// enable switch. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	types   map[string]*TypeConfig
	enabled atomic.Bool
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for configuration diagnostics.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry returns an enabled, empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		types:  make(map[string]*TypeConfig),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.enabled.Store(true)
	return r
}

// Track registers typeName, replacing an earlier registration.
func (r *Registry) Track(typeName string, opts TrackOptions) *TypeConfig {
	cfg := newTypeConfig(typeName, opts)
	for _, action := range cfg.hooks.Configure(opts.On) {
		r.logger.Debug("ignoring non-callable activity hook",
			"type", typeName,
			"action", action,
		)
	}

	r.mu.Lock()
	r.types[typeName] = cfg
	r.mu.Unlock()
	return cfg
}

// Lookup returns the configuration of typeName.
func (r *Registry) Lookup(typeName string) (*TypeConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.types[typeName]
	return cfg, ok
}

// Types lists the registered type names.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// SetEnabled flips the global switch.
func (r *Registry) SetEnabled(enabled bool) { r.enabled.Store(enabled) }

// Enabled reports the global switch.
func (r *Registry) Enabled() bool { return r.enabled.Load() }

// EnabledFor reports whether typeName records: the global switch is on and
// the type has not been disabled. Unregistered types follow the global switch.
func (r *Registry) EnabledFor(typeName string) bool {
	if !r.Enabled() {
		return false
	}
	cfg, ok := r.Lookup(typeName)
	return !ok || cfg.Enabled()
}

// WithTracking runs fn with the global switch on and restores the previous
// state afterwards. The switch is process-wide for this registry, so fn
// should not race with recordings that expect the other state.
func (r *Registry) WithTracking(fn func()) {
	prev := r.enabled.Swap(true)
	defer r.enabled.Store(prev)
	fn()
}

// WithoutTracking runs fn with the global switch off and restores the
// previous state afterwards.
func (r *Registry) WithoutTracking(fn func()) {
	prev := r.enabled.Swap(false)
	defer r.enabled.Store(prev)
	fn()
}

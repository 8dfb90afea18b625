package activity

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_TrackedActions(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		opts TrackOptions
		want []Action
	}{
		{"defaults", TrackOptions{}, []Action{"create", "destroy", "update"}},
		{"only", TrackOptions{Only: []Action{"create", ":Update"}}, []Action{"create", "update"}},
		{"except", TrackOptions{Except: []Action{"destroy"}}, []Action{"create", "update"}},
		{"only and except", TrackOptions{Only: []Action{"create", "update"}, Except: []Action{"update"}}, []Action{"create"}},
		{"skip defaults", TrackOptions{SkipDefaults: true, Only: []Action{"create"}}, []Action{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := reg.Track("Post", tt.opts)
			assert.Equal(t, tt.want, cfg.TrackedActions())
			for _, a := range DefaultActions {
				assert.Equal(t, contains(tt.want, a), cfg.Tracks(a), a)
			}
		})
	}
}

func contains(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

func TestRegistry_TrackReplaces(t *testing.T) {
	reg := NewRegistry()
	reg.Track("Post", TrackOptions{Params: NewMapping(E("a", Literal(1)))})
	reg.Track("Post", TrackOptions{})

	cfg, ok := reg.Lookup("Post")
	require.True(t, ok)
	assert.Equal(t, 0, cfg.Global().Params.Len())
	assert.Equal(t, []string{"Post"}, reg.Types())
}

func TestRegistry_TrackCopiesGlobalTier(t *testing.T) {
	reg := NewRegistry()
	params := NewMapping(E("a", Literal(1)))
	cfg := reg.Track("Post", TrackOptions{Params: params})

	params.Set("b", Literal(2))
	assert.Equal(t, []string{"a"}, cfg.Global().Params.Keys())
}

func TestRegistry_EnableFlags(t *testing.T) {
	reg := NewRegistry()
	cfg := reg.Track("Post", TrackOptions{})

	assert.True(t, reg.EnabledFor("Post"))
	assert.True(t, reg.EnabledFor("Unregistered"))

	cfg.Disable()
	assert.False(t, reg.EnabledFor("Post"))
	assert.True(t, reg.EnabledFor("Unregistered"), "per-type switch is isolated")

	cfg.Enable()
	reg.SetEnabled(false)
	assert.False(t, reg.EnabledFor("Post"))
	assert.False(t, reg.EnabledFor("Unregistered"))
}

func TestRegistry_WithAndWithoutTracking(t *testing.T) {
	reg := NewRegistry()

	reg.WithoutTracking(func() {
		assert.False(t, reg.Enabled())
		reg.WithTracking(func() {
			assert.True(t, reg.Enabled())
		})
		assert.False(t, reg.Enabled(), "inner block restores outer state")
	})
	assert.True(t, reg.Enabled())
}

func TestRegistry_LogsDroppedHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := NewRegistry(WithRegistryLogger(logger))

	cfg := reg.Track("Post", TrackOptions{On: map[Action]any{"update": "yes please"}})

	_, ok := cfg.Hooks().Lookup("update")
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "ignoring non-callable activity hook")
	assert.Contains(t, buf.String(), "action=update")
}

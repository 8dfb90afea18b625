package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := load(env(nil))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Activity.Enabled)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "activities", cfg.Store.Table)
	assert.Equal(t, "activity_views", cfg.Render.Root)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keeptrack.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  shutdown_timeout: 30s
store:
  backend: sqlite
  dsn: "file:activities.db"
  table: activity_log
kafka:
  brokers: ["a:9092", "b:9092"]
log:
  level: debug
`), 0o600))

	cfg, err := load(env(map[string]string{
		"KEEPTRACK_CONFIG_PATH":      path,
		"KEEPTRACK_ADDR":             ":9100",
		"KEEPTRACK_ACTIVITY_ENABLED": "false",
		"KEEPTRACK_KAFKA_BROKERS":    "c:9092, d:9092,",
	}))

	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Activity.Enabled)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "activity_log", cfg.Store.Table)
	assert.Equal(t, []string{"c:9092", "d:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "unset keys keep defaults")
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"bad bool":       {"KEEPTRACK_ACTIVITY_ENABLED": "maybe"},
		"bad int":        {"KEEPTRACK_ASYNC_BUFFER": "lots"},
		"bad backend":    {"KEEPTRACK_STORE_BACKEND": "mongo"},
		"missing dsn":    {"KEEPTRACK_STORE_BACKEND": "postgres"},
		"bad table":      {"KEEPTRACK_STORE_TABLE": "drop table;"},
		"bad policy":     {"KEEPTRACK_STORAGE_POLICY": "sometimes"},
		"bad locale":     {"KEEPTRACK_DEFAULT_LOCALE": "??"},
		"group no redis": {"KEEPTRACK_KAFKA_CONSUMER_GROUP": "projector"},
		"missing file":   {"KEEPTRACK_CONFIG_PATH": "/nonexistent/keeptrack.yml"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := load(env(vars))
			require.Error(t, err)
		})
	}
}

func TestLoadReadsProcessEnv(t *testing.T) {
	t.Setenv("KEEPTRACK_LOG_FORMAT", "text")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Log.Format)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONFIG_FILE", "PORT", "DB_PATH", "JWT_SECRET", "TOKEN_TTL_HOURS", "CORS_ORIGINS",
	"MIGRATIONS_DIR", "STORAGE", "TICK_INTERVAL_MS", "TIMEZONE", "LOG_LEVEL", "LOG_FORMAT",
	"RESET_COUNTS_AS_ABANDONED", "HAPTICS_SUPPORTED", "NOTIFICATIONS_SUPPORTED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, time.Local, cfg.Location)
	assert.False(t, cfg.ResetCountsAsAbandoned)
	assert.True(t, cfg.HapticsSupported)
	assert.Empty(t, cfg.MigrationsDir)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
storage: memory
timezone: UTC
tick_interval_ms: 250
reset_counts_as_abandoned: true
cors_origins:
  - chrome-extension://abc
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("HAPTICS_SUPPORTED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.True(t, cfg.ResetCountsAsAbandoned)
	assert.False(t, cfg.HapticsSupported)
	assert.Equal(t, []string{"chrome-extension://abc"}, cfg.CORSOrigins)
	assert.Equal(t, "./data/guardian.db", cfg.DBPath)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"storage":  {"STORAGE": "redis"},
		"timezone": {"TIMEZONE": "Mars/Olympus"},
		"tick":     {"TICK_INTERVAL_MS": "-5"},
		"file":     {"CONFIG_FILE": "/does/not/exist.yaml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("LIST", " a, ,b ")
	assert.Equal(t, []string{"a", "b"}, getEnvList("LIST", nil))

	t.Setenv("LIST", " , ")
	assert.Equal(t, []string{"x"}, getEnvList("LIST", []string{"x"}))
}

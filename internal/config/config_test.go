package config

import (
	"testing"
	"time"

	"abkit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "GIN_MODE", "SHUTDOWN_TIMEOUT", "DATABASE_URL", "DEFAULT_ALPHA",
		"DEFAULT_BETA", "BATCH_CONCURRENCY", "METRICS_ENABLED", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, 0.05, cfg.Stats.DefaultAlpha)
	assert.Equal(t, 0.2, cfg.Stats.DefaultBeta)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.NoError(t, cfg.Stats.Params().Validate())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("DATABASE_URL", "postgres://localhost/abkit?sslmode=disable")
	t.Setenv("DEFAULT_ALPHA", "0.01")
	t.Setenv("DEFAULT_BETA", "0.1")
	t.Setenv("BATCH_CONCURRENCY", "2")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 0.01, cfg.Stats.Params().Alpha)
	assert.Equal(t, 0.1, cfg.Stats.Params().Beta)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"alpha out of range", "DEFAULT_ALPHA", "1.5"},
		{"alpha not a number", "DEFAULT_ALPHA", "five percent"},
		{"beta zero", "DEFAULT_BETA", "0"},
		{"concurrency zero", "BATCH_CONCURRENCY", "0"},
		{"concurrency text", "BATCH_CONCURRENCY", "many"},
		{"port text", "PORT", "http"},
		{"gin mode", "GIN_MODE", "verbose"},
		{"log level", "LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "7700", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	// Engine config
	assert.Equal(t, 200*time.Millisecond, cfg.Engine.DetachDelay)
	assert.Equal(t, time.Second, cfg.Engine.MonitorInterval)

	// Launch config
	assert.Equal(t, 10*time.Second, cfg.Launch.CaptureTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Launch.PollInterval)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "7700", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":               "9000",
		"HOST":               "0.0.0.0",
		"FOCUS_DETACH_DELAY": "150ms",
		"MONITOR_INTERVAL":   "2s",
		"POLICY_PATH":        "/etc/windowhub/policy.yaml",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_RPS":     "500",
		"RATE_LIMIT_BURST":   "1000",
		"RATE_LIMIT_ENABLED": "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 150*time.Millisecond, cfg.Engine.DetachDelay)
	assert.Equal(t, 2*time.Second, cfg.Engine.MonitorInterval)
	assert.Equal(t, "/etc/windowhub/policy.yaml", cfg.Engine.PolicyPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("MONITOR_INTERVAL", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}

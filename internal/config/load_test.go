package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults verifies the defaults applied when nothing is configured.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port, "Default server port should be 8080")
	assert.Equal(t, "info", cfg.Server.LogLevel, "Default log level should be 'info'")
	assert.Equal(t, 2, cfg.Scheduler.MaxConcurrent)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.ShutdownTimeout())
	assert.False(t, cfg.Janitor.Enabled(), "janitor is off unless an interval is set")
}

// TestLoadFromEnv verifies that the Load function correctly reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TASKD_SERVER_PORT", "9090")
	t.Setenv("TASKD_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TASKD_SCHEDULER_MAX_CONCURRENT", "8")
	t.Setenv("TASKD_SCHEDULER_SHUTDOWN_TIMEOUT_SECONDS", "30")
	t.Setenv("TASKD_JANITOR_INTERVAL", "15m")

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 8, cfg.Scheduler.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.ShutdownTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Janitor.Interval)
	assert.True(t, cfg.Janitor.Enabled())
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Invalid port number",
			envVars: map[string]string{"TASKD_SERVER_PORT": "999999"},
		},
		{
			name:    "Invalid log level",
			envVars: map[string]string{"TASKD_SERVER_LOG_LEVEL": "invalid-level"},
		},
		{
			name:    "Short admin token",
			envVars: map[string]string{"TASKD_SERVER_ADMIN_TOKEN": "short"},
		},
		{
			name:    "Zero concurrency",
			envVars: map[string]string{"TASKD_SCHEDULER_MAX_CONCURRENT": "0"},
		},
		{
			name:    "Zero shutdown timeout",
			envVars: map[string]string{"TASKD_SCHEDULER_SHUTDOWN_TIMEOUT_SECONDS": "0"},
		},
		{
			name:    "Negative janitor interval",
			envVars: map[string]string{"TASKD_JANITOR_INTERVAL": "-1m"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			require.Error(t, err, "Load() should return an error with invalid configuration")
			assert.Contains(t, err.Error(), "validation failed")
			assert.Nil(t, cfg, "Config should be nil when an error occurs")
		})
	}
}

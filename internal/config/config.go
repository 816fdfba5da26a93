package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Janitor   JanitorConfig   `mapstructure:"janitor"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// AdminToken, when set, must be presented as a bearer token on every
	// /api request.
	AdminToken string `mapstructure:"admin_token" validate:"omitempty,min=16"`
}

// SchedulerConfig controls task admission and shutdown.
type SchedulerConfig struct {
	// MaxConcurrent bounds how many tasks run at once
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"gte=1,lte=1024"`

	// ShutdownTimeoutSeconds is how long running tasks get to return on shutdown
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=1,lte=600"`
}

// ShutdownTimeout returns ShutdownTimeoutSeconds as a duration.
func (c SchedulerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// JanitorConfig controls the periodic removal of finished tasks.
type JanitorConfig struct {
	// Interval between sweeps. Zero disables the janitor.
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// Enabled reports whether periodic sweeps are configured.
func (c JanitorConfig) Enabled() bool {
	return c.Interval > 0
}

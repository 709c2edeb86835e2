package config

import (
	"fmt"
	"time"
)

// ObservabilityConfig groups all configuration related to telemetry and
// runtime visibility: logging, the New Relic agent, and periodic dependency
// health checks.
//
// It lives under Config.Observability and is optional at the root level;
// DefaultObservabilityConfig is used when it is omitted.
type ObservabilityConfig struct {
	// ServiceName identifies this service in logs/traces/APM dashboards.
	ServiceName string `koanf:"service_name" validate:"required"`

	// Environment labels telemetry by environment (production, staging, ...).
	Environment string `koanf:"environment" validate:"required"`

	// Logging controls structured logger behavior.
	Logging LoggingConfig `koanf:"logging" validate:"required"`

	// NewRelic controls APM and tracing features.
	NewRelic NewRelicConfig `koanf:"new_relic" validate:"required"`

	// HealthChecks controls periodic dependency health checks.
	HealthChecks HealthChecksConfig `koanf:"health_checks" validate:"required"`
}

// LoggingConfig holds application logging configuration.
type LoggingConfig struct {
	// Level is the verbosity threshold (debug/info/warn/error).
	Level string `koanf:"level" validate:"required"`

	// Format selects the output format for logs ("json" or "console").
	Format string `koanf:"format" validate:"required"`

	// SlowCommandThreshold is the duration beyond which a store round trip is
	// flagged as slow in logs. Supplied as a duration string ("100ms", "1s").
	SlowCommandThreshold time.Duration `koanf:"slow_command_threshold"`
}

// NewRelicConfig holds configuration for New Relic APM and tracing.
// An empty LicenseKey means "not configured" and disables the agent.
type NewRelicConfig struct {
	LicenseKey                string `koanf:"license_key" validate:"required"`
	AppLogForwardingEnabled   bool   `koanf:"app_log_forwarding_enabled"`
	DistributedTracingEnabled bool   `koanf:"distributed_tracing_enabled"`
	DebugLogging              bool   `koanf:"debug_logging"`
}

// HealthChecksConfig controls periodic checks for dependencies.
type HealthChecksConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval" validate:"min=1s"`
	Timeout  time.Duration `koanf:"timeout" validate:"min=1s"`
	Checks   []string      `koanf:"checks"`
}

// DefaultObservabilityConfig provides a safe set of defaults, used when
// Config.Observability is not provided via env.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		// ServiceName and Environment are overwritten in loadConfig.
		ServiceName: "calendar-todo",
		Environment: "development",

		Logging: LoggingConfig{
			Level:                "info",
			Format:               "json",
			SlowCommandThreshold: 100 * time.Millisecond,
		},

		NewRelic: NewRelicConfig{
			LicenseKey:                "",
			AppLogForwardingEnabled:   true,
			DistributedTracingEnabled: true,
			DebugLogging:              false,
		},

		HealthChecks: HealthChecksConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
			Checks:   []string{"redis"},
		},
	}
}

// Validate applies validation rules that go beyond struct tags.
func (c *ObservabilityConfig) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be one of: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Logging.SlowCommandThreshold < 0 {
		return fmt.Errorf("logging slow_command_threshold must be non-negative")
	}

	return nil
}

// GetLogLevel returns the effective log level to use at runtime, defaulting
// by environment when no level is configured.
func (c *ObservabilityConfig) GetLogLevel() string {
	switch c.Environment {
	case "production":
		if c.Logging.Level == "" {
			return "info"
		}
	case "development":
		if c.Logging.Level == "" {
			return "debug"
		}
	}

	return c.Logging.Level
}

// IsProduction reports whether the application is running in production mode.
func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}

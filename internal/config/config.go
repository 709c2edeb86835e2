// Package config manages environment variables.
//
// It reads variables from the process environment (optionally seeded from a
// `.env` file), loads them into structured Go types, and validates that
// required values are present so they can be reused across the application
// runtime.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file (if present) into the process
	// environment before any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Config is the root configuration object for the application.
//
// Env vars use the CALTODO_ prefix and dot-delimited nesting, e.g.
// CALTODO_SERVER.PORT -> Config.Server.Port.
//
// Observability is a pointer because it is optional; defaults are injected
// at load time when it is absent.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// RedisConfig contains connection details for the Redis store that backs
// every repository, the session cache, and the job queue.
//
// KeyPrefix namespaces every key written by this deployment.
// RetryBackoffMS and RetryBackoffCapMS bound the client's retry backoff:
// the delay grows per attempt with jitter, never below RetryBackoffMS and
// never above RetryBackoffCapMS milliseconds.
type RedisConfig struct {
	Address           string `koanf:"address" validate:"required"`
	Password          string `koanf:"password"`
	DB                int    `koanf:"db"`
	KeyPrefix         string `koanf:"key_prefix" validate:"required"`
	MaxRetries        int    `koanf:"max_retries"`
	RetryBackoffMS    int    `koanf:"retry_backoff_ms"`
	RetryBackoffCapMS int    `koanf:"retry_backoff_cap_ms"`
}

// AuthConfig stores authentication settings.
//
// SessionTTLHours is the session token lifetime. BcryptCost of 0 means the
// bcrypt default cost.
type AuthConfig struct {
	SessionTTLHours int `koanf:"session_ttl_hours" validate:"required"`
	BcryptCost      int `koanf:"bcrypt_cost"`
}

// IntegrationConfig holds keys for third-party integrations.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
}

// loadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it, applies observability defaults, and returns the
// resulting config. Missing or malformed required values are fatal.
func loadConfig() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")

	err := k.Load(env.Provider("CALTODO_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CALTODO_"))
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not load initial env variables.")
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not unmarshal main config.")
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Config validation failed.")
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name is fixed; environment follows the primary env so logs and
	// traces are always tagged consistently.
	mainConfig.Observability.ServiceName = "calendar-todo"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return mainConfig, nil
}

// Load is the public entry point used by cmd/api.
func Load() (*Config, error) {
	return loadConfig()
}

// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MinSecretLength is the shortest accepted HMAC-SHA256 secret.
const MinSecretLength = 32

// Config holds runtime configuration for the service.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`
	Port   string `envconfig:"PORT" default:"5000"`

	StoreDriver  string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"result-processing.db"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	AccessTokenSecret string        `envconfig:"ACCESS_TOKEN_SECRET"`
	AccessTokenTTL    time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"5h"`

	RedisAddr    string        `envconfig:"REDIS_ADDR"`
	RoleCacheTTL time.Duration `envconfig:"ROLE_CACHE_TTL" default:"1m"`

	GuardMutations     bool          `envconfig:"GUARD_MUTATIONS" default:"false"`
	TokenRateLimit     int           `envconfig:"TOKEN_RATE_LIMIT" default:"30"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from environment variables. It does not
// validate; call Validate or ValidateStore depending on what the caller
// needs.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks everything the HTTP server needs.
func (c *Config) Validate() error {
	if err := c.ValidateSecret(); err != nil {
		return err
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if c.TokenRateLimit <= 0 {
		return errors.New("TOKEN_RATE_LIMIT must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ValidateSecret checks the token signing secret.
func (c *Config) ValidateSecret() error {
	if c.AccessTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET environment variable is required")
	}
	if len(c.AccessTokenSecret) < MinSecretLength {
		return fmt.Errorf("ACCESS_TOKEN_SECRET must be at least %d characters for HMAC-SHA256 security", MinSecretLength)
	}
	return nil
}

// ValidateStore checks the store selection.
func (c *Config) ValidateStore() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("DATABASE_PATH must not be empty")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", s)
}

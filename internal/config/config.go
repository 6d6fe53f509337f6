// Package config provides configuration management for the application
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ProviderConfig holds configuration for the conferencing provider API
type ProviderConfig struct {
	BaseURL     string        `env:"PROVIDER_BASE_URL"`
	AccessToken string        `env:"PROVIDER_ACCESS_TOKEN"`
	MediaRegion string        `env:"PROVIDER_MEDIA_REGION" envDefault:"eu-central-1"`
	Timeout     time.Duration `env:"PROVIDER_TIMEOUT"      envDefault:"10s"`
}

// RedisConfig holds Redis/Valkey configuration
type RedisConfig struct {
	Enabled bool `env:"REDIS_ENABLED" envDefault:"false"`
	// URI is prioritized if provided, otherwise individual connection parameters are used
	URI       string `env:"REDIS_URI_HUDDLE"`
	Host      string `env:"REDIS_HOST_HUDDLE" envDefault:"localhost"`
	Port      string `env:"REDIS_PORT_HUDDLE" envDefault:"6379"`
	Username  string `env:"REDIS_USERNAME_HUDDLE"`
	Password  string `env:"REDIS_PASSWORD_HUDDLE"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"huddle:"`
	// SessionTTL bounds meeting and attendee records (0 means no expiration)
	SessionTTL time.Duration `env:"REDIS_SESSION_TTL" envDefault:"24h"`
	// LedgerTTL bounds occupancy and usage interval records
	LedgerTTL time.Duration `env:"REDIS_LEDGER_TTL" envDefault:"168h"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
}

// Config is the top-level application configuration
type Config struct {
	Provider ProviderConfig
	Redis    RedisConfig
	Server   ServerConfig
}

// Load parses the full application configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProviderConfigValid checks if the required provider configuration is present
func (c ProviderConfig) IsProviderConfigValid() bool {
	return c.BaseURL != "" && c.AccessToken != ""
}

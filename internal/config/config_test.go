package config_test

import (
	"testing"
	"time"

	"github.com/navikt/huddle/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, "huddle:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 24*time.Hour, cfg.Redis.SessionTTL)
	assert.Equal(t, 168*time.Hour, cfg.Redis.LedgerTTL)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_URI_HUDDLE", "redis://example.local:6380")
	t.Setenv("REDIS_SESSION_TTL", "1h")
	t.Setenv("PROVIDER_BASE_URL", "https://conf.example.com/v1")
	t.Setenv("PROVIDER_ACCESS_TOKEN", "secret")
	t.Setenv("PROVIDER_TIMEOUT", "3s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis://example.local:6380", cfg.Redis.URI)
	assert.Equal(t, time.Hour, cfg.Redis.SessionTTL)
	assert.Equal(t, 3*time.Second, cfg.Provider.Timeout)
	assert.True(t, cfg.Provider.IsProviderConfigValid())
}

func TestIsProviderConfigValid(t *testing.T) {
	cfg := config.ProviderConfig{}
	assert.False(t, cfg.IsProviderConfigValid())

	cfg.BaseURL = "https://conf.example.com/v1"
	assert.False(t, cfg.IsProviderConfigValid(), "token still missing")

	cfg.AccessToken = "secret"
	assert.True(t, cfg.IsProviderConfigValid())
}

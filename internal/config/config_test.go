package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "helpdesk-api", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Postgres.RunMigrations)
	assert.False(t, cfg.Events.PublishToRedis)
	assert.Equal(t, "helpdesk.events", cfg.Events.RedisChannel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("AUTH_TOKEN_TTL_DAYS", "7")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("EVENTS_PUBLISH_TO_REDIS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.App.Addr())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL())
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.True(t, cfg.Events.PublishToRedis)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestTokenTTLFallsBackOnNonPositive(t *testing.T) {
	cfg := AuthConfig{TokenTTLDays: 0}
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL())
}

package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("REDIS_HOST", "")

	cfg := LoadConfig()
	assert.Equal(t, 3004, cfg.AppPort)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.False(t, cfg.RedisEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg := LoadConfig()
	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
}

func TestValidate(t *testing.T) {
	cfg := Config{Env: "production", StoreDriver: DriverPostgres, TokenTTL: time.Hour}
	assert.Error(t, cfg.Validate(), "secret is required in production")

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())

	cfg.StoreDriver = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestSecretFallback(t *testing.T) {
	assert.NotEmpty(t, Config{}.Secret())
	assert.Equal(t, []byte("abc"), Config{JWTSecret: "abc"}.Secret())
}

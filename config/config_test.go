package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("DB_URL", "postgres://localhost:5432/identity")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("S3_BUCKET", "vidstream-media")
	t.Setenv("S3_ACCESS_KEY", "minio")
	t.Setenv("S3_SECRET_KEY", "minio123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15, cfg.AccessExpiryMin)
	assert.Equal(t, 10080, cfg.RefreshExpiryMin)
	assert.Equal(t, 5, cfg.DBTimeoutSec)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "us-east-1", cfg.S3Region)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "30")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "1440")
	t.Setenv("COOKIE_SECURE", "false")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30, cfg.AccessExpiryMin)
	assert.Equal(t, 1440, cfg.RefreshExpiryMin)
	assert.False(t, cfg.CookieSecure)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRY", "not-a-number")

	cfg := Load()

	assert.Equal(t, 15, cfg.AccessExpiryMin)
}

func TestTTLHelpers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRY", "20")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "2880")

	cfg := Load()

	assert.Equal(t, 20*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 2880*time.Minute, cfg.RefreshTokenTTL())
	assert.Equal(t, 5*time.Second, cfg.DBTimeout())
}

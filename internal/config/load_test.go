package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/vocab-api/internal/config"
)

const testJWTSecret = "test-secret-with-at-least-32-characters"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VOCAB_DATABASE_URL", "postgres://localhost:5432/vocab_test")
	t.Setenv("VOCAB_AUTH_JWT_SECRET", testJWTSecret)
}

func TestLoadWithDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 60, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, 10080, cfg.Auth.RefreshTokenLifetimeMinutes)
	assert.Equal(t, 20, cfg.Review.SessionLimit)
	assert.Equal(t, 7, cfg.Review.BatchSize)
	assert.Equal(t, "postgres://localhost:5432/vocab_test", cfg.Database.URL)
	assert.Equal(t, testJWTSecret, cfg.Auth.JWTSecret)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VOCAB_SERVER_PORT", "9090")
	t.Setenv("VOCAB_SERVER_LOG_LEVEL", "debug")
	t.Setenv("VOCAB_REVIEW_SESSION_LIMIT", "50")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 50, cfg.Review.SessionLimit)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("VOCAB_AUTH_JWT_SECRET", testJWTSecret)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadShortJWTSecret(t *testing.T) {
	t.Setenv("VOCAB_DATABASE_URL", "postgres://localhost:5432/vocab_test")
	t.Setenv("VOCAB_AUTH_JWT_SECRET", "too-short")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadInvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VOCAB_SERVER_LOG_LEVEL", "verbose")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadInvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VOCAB_SERVER_PORT", "70000")

	_, err := config.Load()
	require.Error(t, err)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/rental")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "@every 60s", cfg.SweepSchedule)
	assert.Equal(t, 30*time.Second, cfg.SweepTimeout)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/rental")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PROD_ORIGINS", "https://rental.example.com")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "1h")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("SWEEP_SCHEDULE", "@every 5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.Hour, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, "@every 5m", cfg.SweepSchedule)
}

func TestLoad_RequiredAndInvalid(t *testing.T) {
	t.Run("missing DB_DSN", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_SECRET", "secret")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing JWT_SECRET", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/rental")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unparsable TTL", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/rental")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("JWT_ACCESS_TOKEN_TTL", "soon")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bcrypt cost out of range", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/rental")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("BCRYPT_COST", "2")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("prod without origins", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/rental")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("APP_ENV", "prod")
		t.Setenv("PROD_ORIGINS", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/rental")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("LOG_LEVEL", "verbose")
		_, err := Load()
		assert.ErrorContains(t, err, "LOG_LEVEL")
	})
}

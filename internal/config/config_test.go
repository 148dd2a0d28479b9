package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pets")
	t.Setenv("JWT_SECRET", "config-test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, ":3000", cfg.ServerPort)
	assert.Equal(t, "eu-west-1", cfg.RekognitionRegion, "labeling region falls back to AWS region")
	assert.Equal(t, 30*time.Second, cfg.MediaTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.UseS3())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pets")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()

	assert.ErrorIs(t, err, ErrMissingJWTSecret)
	assert.Nil(t, cfg)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()

	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestLoad_UnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_DRIVER", "mongodb")

	_, err := Load()

	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("AWS_BUCKET_NAME", "pet-images")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://pets.example.com ,")
	t.Setenv("MEDIA_TIMEOUT", "not-a-duration")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerPort)
	assert.True(t, cfg.UseS3())
	assert.Equal(t, []string{"http://localhost:5173", "https://pets.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.MediaTimeout, "invalid durations fall back to the default")
}

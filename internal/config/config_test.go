package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "s3", cfg.StorageDriver)
	assert.Equal(t, "localhost:9000", cfg.StorageEndpoint)
	assert.Equal(t, "stash", cfg.StorageBucket)
	assert.False(t, cfg.StorageUseSSL)
	assert.Equal(t, 10*time.Second, cfg.PresignDefaultExpiry)
	assert.Empty(t, cfg.NotifyRedisURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "gcs")
	t.Setenv("STORAGE_BUCKET", "prod-assets")
	t.Setenv("STORAGE_USE_SSL", "true")
	t.Setenv("PRESIGN_DEFAULT_EXPIRY", "300")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, "gcs", cfg.StorageDriver)
	assert.Equal(t, "prod-assets", cfg.StorageBucket)
	assert.True(t, cfg.StorageUseSSL)
	assert.Equal(t, 5*time.Minute, cfg.PresignDefaultExpiry)
	assert.True(t, cfg.IsProduction())
}

func TestInvalidPresignExpiryFallsBack(t *testing.T) {
	t.Setenv("PRESIGN_DEFAULT_EXPIRY", "not-a-number")

	cfg := Load()
	assert.Equal(t, 10*time.Second, cfg.PresignDefaultExpiry)
}

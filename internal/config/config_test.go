package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "unit-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.AllowAdminSignup)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, 20, cfg.Gallery.DefaultPageLimit)
	assert.Equal(t, 100, cfg.Gallery.MaxPageLimit)
	assert.Equal(t, int64(40_000_000), cfg.Gallery.MaxImagePixels)
	assert.Equal(t, "gallery.events", cfg.Broker.Queue)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "unit-secret")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_DAYS", "2")
	t.Setenv("SHARE_BASE_URL", "https://gallery.example.com/")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 48*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, "https://gallery.example.com", cfg.Share.BaseURL)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
	assert.Zero(t, cfg.App.RequestTimeout())
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "unit-secret")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Auth:    AuthConfig{JWTSecret: "s"},
			Storage: StorageConfig{Backend: "local"},
			Gallery: GalleryConfig{DefaultPageLimit: 20, MaxPageLimit: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid local", mutate: func(*Config) {}},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Backend = "s3" }, wantErr: "STORAGE_S3_BUCKET"},
		{name: "s3 with bucket", mutate: func(c *Config) { c.Storage.Backend = "s3"; c.Storage.S3Bucket = "media" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "ftp" }, wantErr: "STORAGE_BACKEND"},
		{name: "default above max", mutate: func(c *Config) { c.Gallery.DefaultPageLimit = 500 }, wantErr: "page limits"},
		{name: "negative pixel budget", mutate: func(c *Config) { c.Gallery.MaxImagePixels = -1 }, wantErr: "GALLERY_MAX_IMAGE_PIXELS"},
		{name: "blank secret", mutate: func(c *Config) { c.Auth.JWTSecret = "  " }, wantErr: "AUTH_JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	values map[string]string
	err    error
	asked  string
}

func (f *fakeSecrets) GetSecretMap(_ context.Context, name string) (map[string]string, error) {
	f.asked = name
	return f.values, f.err
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/")

	cfg, err := FromEnv(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProofStorageAPI, cfg.ProofStorage)
	assert.Equal(t, int64(5*1024*1024), cfg.ProofMaxBytes)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	assert.Equal(t, "storefront_sid", cfg.CookieName)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.AWSUseSecrets)
}

func TestFromEnvRequiresAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	_, err := FromEnv(context.Background(), nil)
	assert.ErrorContains(t, err, "API_BASE_URL")
}

func TestFromEnvS3NeedsBucket(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("PROOF_STORAGE", "S3")
	_, err := FromEnv(context.Background(), nil)
	assert.ErrorContains(t, err, "S3_PROOF_BUCKET")

	t.Setenv("S3_PROOF_BUCKET", "proofs")
	cfg, err := FromEnv(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ProofStorageS3, cfg.ProofStorage)
}

func TestFromEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("CART_TTL", "a week")
	_, err := FromEnv(context.Background(), nil)
	assert.ErrorContains(t, err, "CART_TTL")
}

func TestFromEnvSecretsOverride(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ALLOWED_ORIGINS", "https://tcmudah.id, https://admin.tcmudah.id")

	src := &fakeSecrets{values: map[string]string{"JWT_SECRET": "from-secrets", "REDIS_URL": "redis://cache:6379/1"}}
	cfg, err := FromEnv(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "storefront/CONFIG", src.asked)
	assert.Equal(t, "from-secrets", cfg.JWTSecret)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.True(t, cfg.AWSUseSecrets)
	assert.Equal(t, []string{"https://tcmudah.id", "https://admin.tcmudah.id"}, cfg.AllowedOrigins)

	_, err = FromEnv(context.Background(), &fakeSecrets{err: errors.New("denied")})
	assert.ErrorContains(t, err, "denied")
}

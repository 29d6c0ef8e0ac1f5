package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "firebase", cfg.Auth.Mode)
	assert.Equal(t, uint64(3), cfg.Reactions.CounterRetries)
	assert.Equal(t, 5*time.Second, cfg.Reactions.LockTTL)
	assert.Equal(t, time.Minute, cfg.Reactions.UpdateLease)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
PORT: "9000"
AUTH:
  MODE: jwt
  JWT_SECRET: from-file
REDIS:
  ENABLED: true
  ADDR: redis:6379
FRIENDS:
  CACHE_TTL: 30s
`), 0o600))
	t.Setenv("AUTH_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "jwt", cfg.Auth.Mode)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Friends.CacheTTL)
}

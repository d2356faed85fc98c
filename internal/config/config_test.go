package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MYSQL_DSN", "")

	cfg := New()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "50051", cfg.GRPC.Port)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 20, cfg.Discovery.DefaultLimit)
	assert.Equal(t, 100, cfg.Discovery.MaxLimit)
	assert.Equal(t, 5.0, cfg.Discovery.MinRadiusKm)
	assert.Equal(t, 200.0, cfg.Discovery.MaxRadiusKm)
	assert.Equal(t, 4, cfg.Discovery.OverFetchFactor)
	assert.Equal(t, time.Hour, cfg.Likes.CacheTTL)
	assert.Equal(t, "geo:users", cfg.Geo.Key)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/tripmate")
}

func TestNew_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
discovery:
  max_radius_km: 120
  over_fetch_factor: 6
likes:
  cache_ttl: 10m
redis:
  addr: redis.internal:6379
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REDIS_ADDR", "override:6380")

	cfg := New()

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 120.0, cfg.Discovery.MaxRadiusKm)
	assert.Equal(t, 6, cfg.Discovery.OverFetchFactor)
	assert.Equal(t, 10*time.Minute, cfg.Likes.CacheTTL)
	assert.Equal(t, "override:6380", cfg.Redis.Addr)
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, isTruthy(v), v)
	}
	for _, v := range []string{"", "0", "off", "nope"} {
		assert.False(t, isTruthy(v), v)
	}
}

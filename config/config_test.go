package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"PORT", "GIN_MODE", "DEV_MODE", "DATA_DIR", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	"FETCH_TIMEOUT", "FETCH_PROXIES", "FETCH_MAX_BODY", "CACHE_TTL", "CACHE_MAX_ENTRIES",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "ALLOWED_ORIGINS", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
}

func unsetAll(t *testing.T) {
	t.Helper()
	for _, name := range allVars {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetAll(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "8082", cfg.Port)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, int64(5242880), cfg.FetchMaxBody)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.FetchProxies)
}

func TestLoadOverrides(t *testing.T) {
	unsetAll(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("DATA_DIR", "/var/lib/metacheck")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_FILE", "/var/log/metacheck.log")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("FETCH_PROXIES", "https://a.example/raw?url=, ,https://b.example/?q=")
	t.Setenv("FETCH_MAX_BODY", "1024")
	t.Setenv("CACHE_TTL", "1h")
	t.Setenv("CACHE_MAX_ENTRIES", "10")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example,https://admin.example")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "/var/lib/metacheck", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/var/log/metacheck.log", cfg.Log.File)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"https://a.example/raw?url=", "https://b.example/?q="}, cfg.FetchProxies)
	assert.Equal(t, int64(1024), cfg.FetchMaxBody)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.CacheMaxEntries)
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://app.example", "https://admin.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"DEV_MODE", "maybe"},
		{"FETCH_TIMEOUT", "15"},
		{"FETCH_TIMEOUT", "-1s"},
		{"FETCH_MAX_BODY", "lots"},
		{"CACHE_TTL", "forever"},
		{"CACHE_MAX_ENTRIES", "0"},
		{"RATE_LIMIT_RPS", "fast"},
		{"RATE_LIMIT_BURST", "-2"},
		{"GIN_MODE", "production"},
		{"LOG_LEVEL", "loud"},
		{"REDIS_DB", "one"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			unsetAll(t)
			t.Setenv(tt.name, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	unsetAll(t)
	dir := t.TempDir()

	assert.Equal(t, "", LoadEnvFiles(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=7000\n"), 0644))
	require.NoError(t, os.Unsetenv("PORT"))
	assert.Equal(t, filepath.Join(dir, ".env"), LoadEnvFiles(dir))
	assert.Equal(t, "7000", os.Getenv("PORT"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.development"), []byte("DATA_DIR=devdata\n"), 0644))
	require.NoError(t, os.Unsetenv("DATA_DIR"))
	assert.Equal(t, filepath.Join(dir, ".env.development"), LoadEnvFiles(dir))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "devdata", cfg.DataDir)
}

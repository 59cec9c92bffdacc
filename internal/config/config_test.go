package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"book-catalogue/internal/core/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "catalogue.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

// clearEnv blanks the variables Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "CATALOGUE_LISTEN_ADDR", "CATALOGUE_SOURCE_URL", "CATALOGUE_LOG_LEVEL",
		"CATALOGUE_HTTP_TIMEOUT", "CATALOGUE_REFRESH_DELAY", "CATALOGUE_CACHE_BACKEND",
		"CATALOGUE_CACHE_TTL", "CATALOGUE_CACHE_KEY", "CATALOGUE_CACHE_DIR",
		"CATALOGUE_REDIS_ADDR", "CATALOGUE_REDIS_PASSWORD", "CATALOGUE_REDIS_DB",
		"CATALOGUE_REFRESH_RATE_LIMIT", "CATALOGUE_REFRESH_WINDOW",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, BackendFile, cfg.Cache.Backend)
	assert.Equal(t, model.DefaultSourceURL, cfg.SourceURL)
}

func TestLoad_File(t *testing.T) {
	p := writeFile(t, `
listen_addr: ":9090"
log_level: debug
refresh_delay: 2s
cache:
  backend: redis
  ttl: 5m
  redis:
    addr: "redis:6379"
    db: 2
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.RefreshDelay)
	assert.Equal(t, BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	// untouched keys keep their defaults
	assert.Equal(t, Default().SourceURL, cfg.SourceURL)
	assert.Equal(t, "catalogue_cache", cfg.Cache.Key)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	_, err := Load(writeFile(t, "listen_adr: \":1\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMergeEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                     "3000",
		"CATALOGUE_SOURCE_URL":     "http://example.test/data.json",
		"CATALOGUE_CACHE_BACKEND":  "badger",
		"CATALOGUE_CACHE_TTL":      "1h",
		"CATALOGUE_REDIS_DB":       "4",
		"CATALOGUE_REFRESH_WINDOW": "30s",
	}
	cfg := Default()
	require.NoError(t, mergeEnv(&cfg, func(k string) string { return env[k] }))
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "http://example.test/data.json", cfg.SourceURL)
	assert.Equal(t, BackendBadger, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.Cache.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.RefreshWindow)

	env["CATALOGUE_LISTEN_ADDR"] = "127.0.0.1:8000"
	cfg = Default()
	require.NoError(t, mergeEnv(&cfg, func(k string) string { return env[k] }))
	assert.Equal(t, "127.0.0.1:8000", cfg.ListenAddr)
}

func TestMergeEnv_CollectsErrors(t *testing.T) {
	env := map[string]string{
		"CATALOGUE_CACHE_TTL": "soon",
		"CATALOGUE_REDIS_DB":  "two",
	}
	cfg := Default()
	err := mergeEnv(&cfg, func(k string) string { return env[k] })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOGUE_CACHE_TTL")
	assert.Contains(t, err.Error(), "CATALOGUE_REDIS_DB")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.SourceURL = ""
	cfg.Cache.Backend = "s3"
	cfg.Cache.TTL = 0
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"source_url is required", `unknown cache backend "s3"`, "cache.ttl must be positive"} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = Default()
	cfg.Cache.Backend = BackendBadger
	cfg.Cache.Dir = ""
	assert.ErrorContains(t, cfg.Validate(), "cache.dir is required for the badger backend")

	cfg = Default()
	cfg.Cache.Backend = BackendMemory
	cfg.Cache.Dir = ""
	assert.NoError(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, DefaultServerConfig().Validate())

	cfg, err := LoadServerConfig("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultServerConfig(), cfg)
}

func TestEnvironmentOverrides(t *testing.T) {
	cfg, err := LoadServerConfig("", env(map[string]string{
		"PORT":               "9090",
		"LOG_LEVEL":          "DEBUG",
		"ARIA_VERSION":       "1.3",
		"MAX_DOCUMENT_BYTES": "1024",
		"REPORT_CACHE_TTL":   "30s",
		"SANITIZE_HTML":      "true",
		"CACHE_BACKEND":      "redis",
		"REDIS_URL":          "redis://localhost:6379/0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "1.3", cfg.ARIAVersion)
	assert.Equal(t, int64(1024), cfg.MaxDocumentBytes)
	assert.Equal(t, 30*time.Second, cfg.ReportCacheTTL)
	assert.True(t, cfg.SanitizeHTML)
	assert.Equal(t, "redis", cfg.CacheBackend)
}

func TestYAMLFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a11y.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7070"
ariaVersion: "1.3"
reportCacheTTL: 2m
cacheMaxEntries: 64
`), 0o600))

	cfg, err := LoadServerConfig(path, env(map[string]string{"PORT": "6060"}))
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Port)
	assert.Equal(t, "1.3", cfg.ARIAVersion)
	assert.Equal(t, 2*time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, 64, cfg.CacheMaxEntries)
	assert.Equal(t, "memory", cfg.CacheBackend)
}

func TestInvalidConfig(t *testing.T) {
	cases := map[string]map[string]string{
		"version":      {"ARIA_VERSION": "2.0"},
		"level":        {"LOG_LEVEL": "loud"},
		"redis no url": {"CACHE_BACKEND": "redis"},
		"bad number":   {"MAX_DOCUMENT_BYTES": "lots"},
		"bad bool":     {"TRACE_STDOUT": "maybe"},
		"port":         {"PORT": "http"},
	}
	for name, vars := range cases {
		_, err := LoadServerConfig("", env(vars))
		assert.Error(t, err, name)
	}

	_, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	// Store config
	assert.Equal(t, "sqlite", cfg.Store.Driver)

	// Books config
	assert.Equal(t, 1500*time.Millisecond, cfg.Books.Spacing)
	assert.Equal(t, 2, cfg.Books.MaxConcurrent)
	assert.Equal(t, 3, cfg.Books.MaxAttempts)
	assert.Equal(t, 6*time.Second, cfg.Books.Timeout)
	assert.Equal(t, 5, cfg.Books.PreloadChunk)
	assert.Equal(t, 3*cfg.Books.Spacing, cfg.Books.PreloadDelay)

	// LLM config
	assert.False(t, cfg.LLM.Enabled())

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                    "9000",
		"HOST":                    "127.0.0.1",
		"STORE_DRIVER":            "memory",
		"BOOKS_THROTTLE_DELAY":    "250ms",
		"BOOKS_MAX_CONCURRENT":    "4",
		"AZURE_OPENAI_ENDPOINT":   "https://example.openai.azure.com/",
		"AZURE_OPENAI_API_KEY":    "secret",
		"AZURE_OPENAI_DEPLOYMENT": "gpt-4o",
		"LOG_LEVEL":               "debug",
		"LOG_DEV":                 "true",
		"RATE_LIMIT_RPS":          "500",
		"RATE_LIMIT_BURST":        "1000",
		"RATE_LIMIT_ENABLED":      "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Books.Spacing)
	assert.Equal(t, 4, cfg.Books.MaxConcurrent)
	assert.True(t, cfg.LLM.Enabled())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 2, cfg.Books.MaxConcurrent)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown store driver", key: "STORE_DRIVER", val: "mongo"},
		{name: "zero concurrency", key: "BOOKS_MAX_CONCURRENT", val: "0"},
		{name: "zero attempts", key: "BOOKS_MAX_ATTEMPTS", val: "0"},
		{name: "bad duration", key: "BOOKS_TIMEOUT", val: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)

			// Falls back to defaults
			cfg := LoadOrDefault()
			assert.Equal(t, "sqlite", cfg.Store.Driver)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reads.toml")
	content := `
[server]
port = "8080"
allowed_origins = ["http://localhost:5173"]

[store]
driver = "memory"

[books]
throttle_delay = "2s"
preload_chunk = 3

[logging]
development = true

[rate_limit]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Books.Spacing)
	assert.Equal(t, 3, cfg.Books.PreloadChunk)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)

	// Untouched keys keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3, cfg.Books.MaxAttempts)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reads.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = \"8080\"\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestMissingConfigFileIsIgnored(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
}

func TestMalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[books]\ntimeout = \"fast\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

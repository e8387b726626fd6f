package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Books     BooksConfig
	LLM       LLMConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT"`
	Host            string        `envconfig:"HOST"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver string `envconfig:"STORE_DRIVER"` // "sqlite" or "memory"
	Path   string `envconfig:"STORE_PATH"`
}

// BooksConfig tunes the cover lookup client.
type BooksConfig struct {
	BaseURL       string        `envconfig:"BOOKS_BASE_URL"`
	Spacing       time.Duration `envconfig:"BOOKS_THROTTLE_DELAY"`
	MaxConcurrent int           `envconfig:"BOOKS_MAX_CONCURRENT"`
	MaxAttempts   int           `envconfig:"BOOKS_MAX_ATTEMPTS"`
	Timeout       time.Duration `envconfig:"BOOKS_TIMEOUT"`
	BackoffBase   time.Duration `envconfig:"BOOKS_BACKOFF_BASE"`
	RateLimitBase time.Duration `envconfig:"BOOKS_RATE_LIMIT_BACKOFF"`
	PreloadChunk  int           `envconfig:"BOOKS_PRELOAD_CHUNK"`
	PreloadDelay  time.Duration `envconfig:"BOOKS_PRELOAD_DELAY"`
	PreloadJitter time.Duration `envconfig:"BOOKS_PRELOAD_JITTER"`
}

// LLMConfig holds the Azure OpenAI deployment used for recommendations.
type LLMConfig struct {
	Endpoint   string        `envconfig:"AZURE_OPENAI_ENDPOINT"`
	APIKey     string        `envconfig:"AZURE_OPENAI_API_KEY"`
	Deployment string        `envconfig:"AZURE_OPENAI_DEPLOYMENT"`
	APIVersion string        `envconfig:"AZURE_OPENAI_API_VERSION"`
	Timeout    time.Duration `envconfig:"LLM_TIMEOUT"`
}

// Enabled reports whether enough is configured to call the LLM.
func (c LLMConfig) Enabled() bool {
	return c.Endpoint != "" && c.APIKey != "" && c.Deployment != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL"`
	Development bool   `envconfig:"LOG_DEV"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED"`
}

// Load builds configuration from defaults, the optional TOML file named by
// CONFIG_FILE, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// Fields without a matching variable keep their current value.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("invalid store driver %q", c.Store.Driver)
	}
	if c.Books.MaxConcurrent < 1 {
		return fmt.Errorf("books max concurrent must be positive, got %d", c.Books.MaxConcurrent)
	}
	if c.Books.MaxAttempts < 1 {
		return fmt.Errorf("books max attempts must be positive, got %d", c.Books.MaxAttempts)
	}
	if c.Books.PreloadChunk < 1 {
		return fmt.Errorf("books preload chunk must be positive, got %d", c.Books.PreloadChunk)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			Host:            "0.0.0.0",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "reading-records.db",
		},
		Books: BooksConfig{
			BaseURL:       "https://www.googleapis.com/books/v1",
			Spacing:       1500 * time.Millisecond,
			MaxConcurrent: 2,
			MaxAttempts:   3,
			Timeout:       6 * time.Second,
			BackoffBase:   time.Second,
			RateLimitBase: 3 * time.Second,
			PreloadChunk:  5,
			PreloadDelay:  4500 * time.Millisecond,
			PreloadJitter: time.Second,
		},
		LLM: LLMConfig{
			APIVersion: "2023-05-15",
			Timeout:    30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors the TOML layout. Durations are strings such as "1500ms".
type fileConfig struct {
	Server struct {
		Port            string   `toml:"port"`
		Host            string   `toml:"host"`
		AllowedOrigins  []string `toml:"allowed_origins"`
		ShutdownTimeout string   `toml:"shutdown_timeout"`
		MaxBodyBytes    int64    `toml:"max_body_bytes"`
	} `toml:"server"`
	Store struct {
		Driver string `toml:"driver"`
		Path   string `toml:"path"`
	} `toml:"store"`
	Books struct {
		BaseURL       string `toml:"base_url"`
		ThrottleDelay string `toml:"throttle_delay"`
		MaxConcurrent int    `toml:"max_concurrent"`
		MaxAttempts   int    `toml:"max_attempts"`
		Timeout       string `toml:"timeout"`
		BackoffBase   string `toml:"backoff_base"`
		RateLimitBase string `toml:"rate_limit_backoff"`
		PreloadChunk  int    `toml:"preload_chunk"`
		PreloadDelay  string `toml:"preload_delay"`
		PreloadJitter string `toml:"preload_jitter"`
	} `toml:"books"`
	LLM struct {
		Endpoint   string `toml:"endpoint"`
		Deployment string `toml:"deployment"`
		APIVersion string `toml:"api_version"`
		Timeout    string `toml:"timeout"`
	} `toml:"llm"`
	Logging struct {
		Level       string `toml:"level"`
		Development *bool  `toml:"development"`
	} `toml:"logging"`
	RateLimit struct {
		RequestsPerSecond int   `toml:"rps"`
		Burst             int   `toml:"burst"`
		Enabled           *bool `toml:"enabled"`
	} `toml:"rate_limit"`
}

// applyFile overlays the non-empty values of a TOML file onto cfg.
// A missing file is not an error.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.Server.Port, raw.Server.Port)
	setString(&cfg.Server.Host, raw.Server.Host)
	if len(raw.Server.AllowedOrigins) > 0 {
		cfg.Server.AllowedOrigins = raw.Server.AllowedOrigins
	}
	if raw.Server.MaxBodyBytes > 0 {
		cfg.Server.MaxBodyBytes = raw.Server.MaxBodyBytes
	}

	setString(&cfg.Store.Driver, raw.Store.Driver)
	setString(&cfg.Store.Path, raw.Store.Path)

	setString(&cfg.Books.BaseURL, raw.Books.BaseURL)
	setInt(&cfg.Books.MaxConcurrent, raw.Books.MaxConcurrent)
	setInt(&cfg.Books.MaxAttempts, raw.Books.MaxAttempts)
	setInt(&cfg.Books.PreloadChunk, raw.Books.PreloadChunk)

	setString(&cfg.LLM.Endpoint, raw.LLM.Endpoint)
	setString(&cfg.LLM.Deployment, raw.LLM.Deployment)
	setString(&cfg.LLM.APIVersion, raw.LLM.APIVersion)

	setString(&cfg.Logging.Level, raw.Logging.Level)
	if raw.Logging.Development != nil {
		cfg.Logging.Development = *raw.Logging.Development
	}

	setInt(&cfg.RateLimit.RequestsPerSecond, raw.RateLimit.RequestsPerSecond)
	setInt(&cfg.RateLimit.Burst, raw.RateLimit.Burst)
	if raw.RateLimit.Enabled != nil {
		cfg.RateLimit.Enabled = *raw.RateLimit.Enabled
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.shutdown_timeout", raw.Server.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		{"books.throttle_delay", raw.Books.ThrottleDelay, &cfg.Books.Spacing},
		{"books.timeout", raw.Books.Timeout, &cfg.Books.Timeout},
		{"books.backoff_base", raw.Books.BackoffBase, &cfg.Books.BackoffBase},
		{"books.rate_limit_backoff", raw.Books.RateLimitBase, &cfg.Books.RateLimitBase},
		{"books.preload_delay", raw.Books.PreloadDelay, &cfg.Books.PreloadDelay},
		{"books.preload_jitter", raw.Books.PreloadJitter, &cfg.Books.PreloadJitter},
		{"llm.timeout", raw.LLM.Timeout, &cfg.LLM.Timeout},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.raw)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse config: %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return nil
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func setInt(dst *int, value int) {
	if value > 0 {
		*dst = value
	}
}

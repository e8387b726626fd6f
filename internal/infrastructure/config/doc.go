// Package config provides 12-factor configuration management for the reading tracker backend.
//
// Configuration starts from built-in defaults, is overlaid by an optional TOML
// file named by CONFIG_FILE, and finally by environment variables. CLI flags in
// cmd/server can override the port and development mode.
//
// Configuration Sections:
//   - Server: HTTP listener, CORS origins, body limit, shutdown timeout
//   - Store: record store driver (sqlite or memory) and database path
//   - Books: cover lookup throttling, retries and preload pacing
//   - LLM: Azure OpenAI deployment used for recommendations
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, ALLOWED_ORIGINS, SHUTDOWN_TIMEOUT, MAX_BODY_BYTES
//   - STORE_DRIVER, STORE_PATH
//   - BOOKS_BASE_URL, BOOKS_THROTTLE_DELAY, BOOKS_MAX_CONCURRENT, BOOKS_MAX_ATTEMPTS
//   - AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY, AZURE_OPENAI_DEPLOYMENT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config

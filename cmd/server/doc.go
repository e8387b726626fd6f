// Package main is the entry point for the Very Good Reads backend.
//
// The server backs the desktop-style reading tracker: reading records with
// status and reviews, a reading timeline, throttled cover lookups against
// Google Books, Azure OpenAI recommendations with offline fallbacks, and the
// shared window layout pushed to desktops over WebSocket.
//
// Configuration:
//   - Built-in defaults
//   - Optional TOML file (CONFIG_FILE or -config)
//   - Environment variables (12-factor)
//   - CLI flags (override everything)
//
// Usage:
//
//	# Production mode
//	./server -port 3000
//
//	# Development mode (colored logs, debug level)
//	./server -dev -config reads.toml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

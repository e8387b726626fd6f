// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a named child logger so every line carries the
// subsystem that produced it ("books", "records", "desktop", "ws").
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "3000"))
//	books := logger.Component("books")
//	books.Warn("Lookup failed", zap.Error(err))
package logging

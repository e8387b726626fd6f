// Package middleware provides the HTTP middleware of the reading tracker API.
//
// Middleware stack includes:
//   - CORS: cross-origin access for the desktop frontend
//   - RateLimit: per-IP token bucket limiting, idle clients are forgotten
//   - GlobalRateLimit: one shared bucket, used for the recommendation endpoint
//   - BodyLimit: request size cap plus JSON syntax and depth checks
//   - RecordID: rejects malformed record IDs before they reach the store
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	records.GET("/:id", middleware.RecordID("id"), handlers.GetRecord)
package middleware

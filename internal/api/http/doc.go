// Package http implements the REST API of the reading tracker.
//
// Routes:
//   - /api/reading-records: create, list, search, export and edit records
//   - /api/timeline: reading activity per day or month
//   - /api/books: throttled cover lookups and background preloading
//   - /api/recommendations: model-backed suggestions with fallback lists
//   - /api/desktop: the shared window layout
//   - /api/stats, /api/logs: server counters and desktop log intake
//
// Domain errors map to status codes in one place (statusFor); every error
// body is {"error": "..."}.
package http

// Package books looks up cover images and metadata for reading records
// against the Google Books volumes API.
//
// Every lookup goes through one Client, which
//   - answers repeated lookups from a cache that also remembers misses
//   - shares one upstream call between concurrent lookups of the same book
//   - spaces dispatches and caps how many are in flight at once
//   - retries timeouts, network errors and 429 responses with exponential backoff
//   - preloads batches of books at a lower priority than interactive lookups
//
// Fetch never returns an error. When no cover can be produced the Result has
// UseFallback set and a Reason for the UI to show.
package books

// Package record manages reading records.
//
// A Service validates input, assigns IDs and timestamps, and notifies
// connected desktops about changes. Records live in a Store:
//
//   - SQLiteStore keeps each record as a JSON document in a single table
//   - MemoryStore keeps them in a map, for tests and as a start-up fallback
//
// Example Usage:
//
//	store, err := record.NewSQLiteStore("reading-records.db")
//	svc := record.NewService(store, log, notifier)
//	rec, err := svc.Create(ctx, record.Input{Title: "Dune", Author: "Frank Herbert", Format: "paperback"})
//	reading, err := svc.ListByStatus(ctx, record.StatusReading)
package record

package record

import (
	"context"
	"sort"
)

// Store persists records. Implementations return ErrNotFound for missing
// IDs and hand out copies, so callers may modify what they receive.
type Store interface {
	// Insert adds a new record; an existing ID yields ErrConflict.
	Insert(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns matching records, oldest first.
	List(ctx context.Context, f Filter) ([]*Record, error)
	Replace(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// sortRecords orders by creation time, then ID.
func sortRecords(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

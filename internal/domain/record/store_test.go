package record

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func sampleRecord(n int, status Status, created time.Time) *Record {
	return &Record{
		ID:        fmt.Sprintf("rec_%02d", n),
		Title:     fmt.Sprintf("Book %d", n),
		Author:    "Author",
		Format:    "paperback",
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestStores(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			// Inserted out of order; listing sorts by creation time
			require.NoError(t, s.Insert(ctx, sampleRecord(2, StatusReading, base.Add(time.Hour))))
			require.NoError(t, s.Insert(ctx, sampleRecord(1, StatusToRead, base)))
			require.NoError(t, s.Insert(ctx, sampleRecord(3, StatusRead, base.Add(2*time.Hour))))

			err := s.Insert(ctx, sampleRecord(1, StatusToRead, base))
			assert.ErrorIs(t, err, ErrConflict)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			all, err := s.List(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"rec_01", "rec_02", "rec_03"}, ids(all))

			reading, err := s.List(ctx, Filter{Status: StatusReading})
			require.NoError(t, err)
			assert.Equal(t, []string{"rec_02"}, ids(reading))

			found, err := s.List(ctx, Filter{Query: "book 3"})
			require.NoError(t, err)
			assert.Equal(t, []string{"rec_03"}, ids(found))

			got, err := s.Get(ctx, "rec_02")
			require.NoError(t, err)
			assert.Equal(t, "Book 2", got.Title)
			assert.True(t, got.CreatedAt.Equal(base.Add(time.Hour)))

			// Returned records are copies
			got.Title = "Changed"
			again, err := s.Get(ctx, "rec_02")
			require.NoError(t, err)
			assert.Equal(t, "Book 2", again.Title)

			got.Status = StatusRead
			got.Review = &Review{Stars: 5, Description: "Loved it"}
			require.NoError(t, s.Replace(ctx, got))
			replaced, err := s.Get(ctx, "rec_02")
			require.NoError(t, err)
			assert.Equal(t, "Changed", replaced.Title)
			require.NotNil(t, replaced.Review)
			assert.Equal(t, 5, replaced.Review.Stars)

			read, err := s.List(ctx, Filter{Status: StatusRead})
			require.NoError(t, err)
			assert.Equal(t, []string{"rec_02", "rec_03"}, ids(read))

			assert.ErrorIs(t, s.Replace(ctx, sampleRecord(9, StatusRead, base)), ErrNotFound)

			require.NoError(t, s.Delete(ctx, "rec_01"))
			assert.ErrorIs(t, s.Delete(ctx, "rec_01"), ErrNotFound)
			_, err = s.Get(ctx, "rec_01")
			assert.ErrorIs(t, err, ErrNotFound)

			n, err = s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "records.db")
	created := time.Date(2024, 5, 4, 9, 30, 0, 0, time.UTC)

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, sampleRecord(1, StatusReading, created)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "rec_01")
	require.NoError(t, err)
	assert.Equal(t, StatusReading, got.Status)
	assert.Equal(t, path, reopened.Path())
}

func ids(records []*Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

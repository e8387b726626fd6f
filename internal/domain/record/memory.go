package record

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Insert(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[r.ID]; exists {
		return fmt.Errorf("%w: id %s already exists", ErrConflict, r.ID)
	}
	s.records[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		if f.Match(r) {
			out = append(out, r.Clone())
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) Replace(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[r.ID]; !ok {
		return ErrNotFound
	}
	s.records[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

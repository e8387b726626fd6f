package record

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/monitoring"
	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/id"
	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type notifications struct {
	mu  sync.Mutex
	got []types.Notification
}

func (n *notifications) Notify(note types.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, note)
}

func (n *notifications) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.got))
	for i, note := range n.got {
		out[i] = note.Event
	}
	return out
}

func newTestService(t *testing.T) (*Service, *notifications) {
	t.Helper()
	notes := &notifications{}
	return NewService(NewMemoryStore(), nil, notes), notes
}

func dune() Input {
	return Input{Title: " Dune ", Author: "Frank Herbert", Format: "paperback", Pages: 412}
}

func TestServiceCreate(t *testing.T) {
	svc, notes := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, dune())
	require.NoError(t, err)
	assert.True(t, id.IsRecordID(rec.ID))
	assert.Equal(t, "Dune", rec.Title)
	assert.Equal(t, StatusToRead, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
	assert.Equal(t, []string{EventCreated}, notes.events())

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = svc.Create(ctx, Input{Title: "Dune"})
	assert.ErrorIs(t, err, ErrInvalid)

	in := dune()
	in.Review = &Review{Stars: 5}
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalid)

	in.Status = StatusRead
	reviewed, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 5, reviewed.Review.Stars)
}

func TestServiceListAndSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	inputs := []Input{
		{Title: "Dune", Author: "Frank Herbert", Format: "paperback", Status: StatusReading},
		{Title: "Emma", Author: "Jane Austen", Format: "ebook"},
		{Title: "Persuasion", Author: "Jane Austen", Format: "audiobook", Status: StatusRead},
	}
	for _, in := range inputs {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Dune", all[0].Title)
	assert.Equal(t, "Persuasion", all[2].Title)

	austen, err := svc.List(ctx, Filter{Query: "AUSTEN"})
	require.NoError(t, err)
	assert.Len(t, austen, 2)

	reading, err := svc.ListByStatus(ctx, StatusReading)
	require.NoError(t, err)
	require.Len(t, reading, 1)
	assert.Equal(t, "Dune", reading[0].Title)

	none, err := svc.ListByStatus(ctx, StatusDidNotFinish)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.ListByStatus(ctx, "shelved")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestServiceUpdate(t *testing.T) {
	svc, notes := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, dune())
	require.NoError(t, err)

	later := rec.UpdatedAt.Add(time.Hour)
	svc.now = func() time.Time { return later }

	notesText := "Spice must flow"
	timeSpent := 600
	updated, err := svc.Update(ctx, rec.ID, Patch{Notes: &notesText, TimeSpent: &timeSpent})
	require.NoError(t, err)
	assert.Equal(t, notesText, updated.Notes)
	assert.Equal(t, 600, updated.TimeSpent)
	assert.Equal(t, 412, updated.Pages)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, rec.ID, Patch{})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Update(ctx, rec.ID, Patch{Review: &Review{Stars: 3}})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Update(ctx, "rec_missing", Patch{Notes: &notesText})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{EventCreated, EventUpdated}, notes.events())
}

// slowStore widens the gap between reading a record and writing it back.
type slowStore struct {
	*MemoryStore
}

func (s slowStore) Get(ctx context.Context, id string) (*Record, error) {
	time.Sleep(20 * time.Millisecond)
	return s.MemoryStore.Get(ctx, id)
}

func TestServiceConcurrentUpdatesKeepBothFields(t *testing.T) {
	svc := NewService(slowStore{NewMemoryStore()}, nil, nil)
	ctx := context.Background()

	rec, err := svc.Create(ctx, dune())
	require.NoError(t, err)

	notesText := "Reread the appendix"
	pages := 896
	var wg sync.WaitGroup
	for _, p := range []Patch{{Notes: &notesText}, {Pages: &pages}} {
		wg.Add(1)
		go func(p Patch) {
			defer wg.Done()
			_, err := svc.Update(ctx, rec.ID, p)
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, notesText, got.Notes)
	assert.Equal(t, 896, got.Pages)
}

func TestServiceStatusAndReview(t *testing.T) {
	svc, notes := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, dune())
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, rec.ID, Review{Stars: 4})
	assert.ErrorIs(t, err, ErrConflict)

	moved, err := svc.UpdateStatus(ctx, rec.ID, StatusRead)
	require.NoError(t, err)
	assert.Equal(t, StatusRead, moved.Status)

	_, err = svc.AddReview(ctx, rec.ID, Review{Stars: 0})
	assert.ErrorIs(t, err, ErrInvalid)

	reviewed, err := svc.AddReview(ctx, rec.ID, Review{Stars: 4, Description: "A classic"})
	require.NoError(t, err)
	require.NotNil(t, reviewed.Review)
	assert.Equal(t, 4, reviewed.Review.Stars)

	_, err = svc.UpdateStatus(ctx, rec.ID, "finished")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.UpdateStatus(ctx, "rec_missing", StatusReading)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{EventCreated, EventStatusChanged, EventReviewed}, notes.events())
}

func TestServiceDelete(t *testing.T) {
	metrics := monitoring.NewMetrics()
	notes := &notifications{}
	svc := NewService(NewMemoryStore(), nil, notes).WithMetrics(metrics)
	ctx := context.Background()

	rec, err := svc.Create(ctx, dune())
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RecordsStored))

	require.NoError(t, svc.Delete(ctx, rec.ID))
	assert.ErrorIs(t, svc.Delete(ctx, rec.ID), ErrNotFound)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.RecordsStored))
	assert.Equal(t, []string{EventCreated, EventDeleted}, notes.events())
}

func TestServiceExport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dune())
	require.NoError(t, err)

	data, err := svc.Export(ctx, "json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"_id": "rec_`)
	assert.Contains(t, string(data), `"title": "Dune"`)

	data, err = svc.Export(ctx, "yaml")
	require.NoError(t, err)
	var exported []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &exported))
	require.Len(t, exported, 1)
	assert.Equal(t, "Dune", exported[0]["title"])
	assert.True(t, strings.HasPrefix(exported[0]["id"].(string), "rec_"))

	_, err = svc.Export(ctx, "csv")
	assert.ErrorIs(t, err, ErrInvalid)

	assert.Equal(t, "application/yaml", ContentType("YAML"))
	assert.Equal(t, "application/json", ContentType(""))
}

// mockStore fails on demand.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, r *Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) Get(ctx context.Context, id string) (*Record, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*Record)
	return rec, args.Error(1)
}

func (m *mockStore) List(ctx context.Context, f Filter) ([]*Record, error) {
	args := m.Called(ctx, f)
	records, _ := args.Get(0).([]*Record)
	return records, args.Error(1)
}

func (m *mockStore) Replace(ctx context.Context, r *Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

func TestServiceStoreErrors(t *testing.T) {
	ctx := context.Background()
	diskFull := errors.New("disk full")

	store := new(mockStore)
	store.On("Insert", mock.Anything, mock.AnythingOfType("*record.Record")).Return(diskFull)
	store.On("Get", mock.Anything, "rec_1").Return(&Record{ID: "rec_1", Title: "Dune", Status: StatusRead}, nil)
	store.On("Replace", mock.Anything, mock.AnythingOfType("*record.Record")).Return(diskFull)
	store.On("List", mock.Anything, Filter{}).Return(nil, diskFull)

	notes := &notifications{}
	svc := NewService(store, nil, notes)

	_, err := svc.Create(ctx, dune())
	assert.ErrorIs(t, err, diskFull)

	_, err = svc.AddReview(ctx, "rec_1", Review{Stars: 5})
	assert.ErrorIs(t, err, diskFull)

	_, err = svc.Export(ctx, "json")
	assert.ErrorIs(t, err, diskFull)

	assert.Empty(t, notes.events())
	store.AssertExpectations(t)
}

package record

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/monitoring"
	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/id"
	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/types"
	"go.uber.org/zap"
)

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Notification events
const (
	EventCreated       = "record.created"
	EventUpdated       = "record.updated"
	EventStatusChanged = "record.status_changed"
	EventReviewed      = "record.reviewed"
	EventDeleted       = "record.deleted"
)

// Service implements the reading record operations.
type Service struct {
	store    Store
	log      *zap.Logger
	notifier types.Notifier
	metrics  *monitoring.Metrics
	now      func() time.Time

	// writes serializes read-modify-write cycles so concurrent partial
	// updates of one record do not drop each other's fields.
	writes sync.Mutex
}

// NewService creates a service over store. log and notifier may be nil.
func NewService(store Store, log *zap.Logger, notifier types.Notifier) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = types.NopNotifier{}
	}
	return &Service{
		store:    store,
		log:      log,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithMetrics adds metrics tracking to the service
func (s *Service) WithMetrics(metrics *monitoring.Metrics) *Service {
	s.metrics = metrics
	s.refreshCount(context.Background())
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// Create validates in and stores a new record.
func (s *Service) Create(ctx context.Context, in Input) (rec *Record, err error) {
	timer := monitoring.NewTimer(s.metrics, "records", "create")
	defer func() { timer.StopErr(err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = DefaultStatus
	}
	if in.Review != nil && status != StatusRead {
		return nil, invalid("a review needs status %q", StatusRead)
	}

	now := s.now().UTC()
	rec = &Record{
		ID:         id.NewRecordID().String(),
		Title:      strings.TrimSpace(in.Title),
		Author:     strings.TrimSpace(in.Author),
		Format:     strings.TrimSpace(in.Format),
		Notes:      in.Notes,
		Status:     status,
		Pages:      in.Pages,
		TimeSpent:  in.TimeSpent,
		CoverImage: in.CoverImage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.Review != nil {
		review := *in.Review
		rec.Review = &review
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.log.Info("Record created", zap.String("id", rec.ID), zap.String("title", rec.Title))
	s.notify(types.NotificationSuccess, EventCreated, fmt.Sprintf("Added %q", rec.Title), rec)
	s.refreshCount(ctx)
	return rec, nil
}

// List returns records matching f, oldest first.
func (s *Service) List(ctx context.Context, f Filter) (records []*Record, err error) {
	timer := monitoring.NewTimer(s.metrics, "records", "list")
	defer func() { timer.StopErr(err) }()

	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status %q is not one of to-read, reading, read, did-not-finish", f.Status)
	}
	records, err = s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*Record{}
	}
	return records, nil
}

// ListByStatus returns the records with the given status.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Record, error) {
	if !status.Valid() {
		return nil, invalid("status %q is not one of to-read, reading, read, did-not-finish", status)
	}
	return s.List(ctx, Filter{Status: status})
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Get(ctx, id)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, p Patch) (rec *Record, err error) {
	timer := monitoring.NewTimer(s.metrics, "records", "update")
	defer func() { timer.StopErr(err) }()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	rec, err = s.modify(ctx, id, func(r *Record) error {
		p.apply(r)
		if p.Review != nil && r.Status != StatusRead {
			return fmt.Errorf("%w: only read books can be reviewed", ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Record updated", zap.String("id", rec.ID))
	s.notify(types.NotificationSuccess, EventUpdated, fmt.Sprintf("Updated %q", rec.Title), rec)
	return rec, nil
}

// UpdateStatus moves a record to status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (rec *Record, err error) {
	timer := monitoring.NewTimer(s.metrics, "records", "update_status")
	defer func() { timer.StopErr(err) }()

	if !status.Valid() {
		return nil, invalid("status %q is not one of to-read, reading, read, did-not-finish", status)
	}

	var from Status
	rec, err = s.modify(ctx, id, func(r *Record) error {
		from = r.Status
		r.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Record status changed",
		zap.String("id", rec.ID),
		zap.String("from", string(from)),
		zap.String("to", string(status)))
	s.notify(types.NotificationSuccess, EventStatusChanged,
		fmt.Sprintf("Moved %q to %s", rec.Title, status), rec)
	return rec, nil
}

// AddReview sets the review of a read record, replacing any earlier one.
func (s *Service) AddReview(ctx context.Context, id string, review Review) (rec *Record, err error) {
	timer := monitoring.NewTimer(s.metrics, "records", "add_review")
	defer func() { timer.StopErr(err) }()

	if err := review.Validate(); err != nil {
		return nil, err
	}

	rec, err = s.modify(ctx, id, func(r *Record) error {
		if r.Status != StatusRead {
			return fmt.Errorf("%w: only read books can be reviewed, %q is %s", ErrConflict, r.Title, r.Status)
		}
		r.Review = &review
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Record reviewed", zap.String("id", rec.ID), zap.Int("stars", review.Stars))
	s.notify(types.NotificationSuccess, EventReviewed,
		fmt.Sprintf("Reviewed %q: %d/%d", rec.Title, review.Stars, maxStars), rec)
	return rec, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	timer := monitoring.NewTimer(s.metrics, "records", "delete")
	defer func() { timer.StopErr(err) }()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("Record deleted", zap.String("id", id))
	s.notify(types.NotificationInfo, EventDeleted, "Record deleted", map[string]string{"_id": id})
	s.refreshCount(ctx)
	return nil
}

// Export renders every record in format.
func (s *Service) Export(ctx context.Context, format string) ([]byte, error) {
	records, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		data, err := sonic.ConfigStd.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("export json: %w", err)
		}
		return data, nil
	case FormatYAML, "yml":
		data, err := yaml.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("export yaml: %w", err)
		}
		return data, nil
	default:
		return nil, invalid("unsupported export format %q", format)
	}
}

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatYAML, "yml":
		return "application/yaml"
	default:
		return "application/json"
	}
}

// modify loads a record, applies fn and stores the result.
func (s *Service) modify(ctx context.Context, id string, fn func(*Record) error) (*Record, error) {
	s.writes.Lock()
	defer s.writes.Unlock()

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.Replace(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) notify(kind types.NotificationType, event, message string, data interface{}) {
	s.notifier.Notify(types.NewNotification(kind, event, message, data))
}

func (s *Service) refreshCount(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		s.log.Warn("Failed to count records", zap.Error(err))
		return
	}
	s.metrics.SetRecordsStored(n)
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bandsync/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrForbidden is returned when an actor may not delete a record.
var ErrForbidden = errors.New("actor may not delete this record")

// Store defines the interface for all database operations.
type Store interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]model.Event, error)
	CreateEvent(ctx context.Context, e model.Event) (model.Event, error)
	DeleteEvent(ctx context.Context, id, actor, admin string) error
	ListAvailability(ctx context.Context, start, end time.Time) ([]model.Availability, error)
	UpsertAvailability(ctx context.Context, memberName string, start, end time.Time, status model.AvailabilityStatus) (model.Availability, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// ListEvents returns every event whose [start, end) interval overlaps the
// queried half-open range.
func (s *gormStore) ListEvents(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	var events []model.Event
	err := s.db.WithContext(ctx).
		Where("starts_at < ? AND ends_at > ?", end, start).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// CreateEvent inserts a new event with a fresh id and creation timestamp.
// When the caller supplies a request id that was already stored, the earlier
// insert is returned instead of creating a duplicate, which makes retried
// creations after an ambiguous network failure safe.
func (s *gormStore) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	var created model.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if e.RequestID != "" {
			var existing model.Event
			err := tx.Where("request_id = ?", e.RequestID).First(&existing).Error
			if err == nil {
				created = existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up request id: %w", err)
			}
		}

		e.ID = uuid.NewString()
		if e.RequestID == "" {
			// The column carries a unique index, so absent ids still need a
			// distinct value.
			e.RequestID = uuid.NewString()
		}
		e.CreatedAt = time.Now().UTC()
		if err := tx.Create(&e).Error; err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		created = e
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	return created, nil
}

// DeleteEvent removes an event. Only its creator or the configured admin may
// delete it.
func (s *gormStore) DeleteEvent(ctx context.Context, id, actor, admin string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e model.Event
		if err := tx.Where("id = ?", id).First(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to look up event %s: %w", id, err)
		}
		if actor != e.CreatedBy && (admin == "" || actor != admin) {
			return ErrForbidden
		}
		if err := tx.Delete(&model.Event{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete event %s: %w", id, err)
		}
		return nil
	})
}

// ListAvailability returns every availability record overlapping the queried
// half-open range.
func (s *gormStore) ListAvailability(ctx context.Context, start, end time.Time) ([]model.Availability, error) {
	var records []model.Availability
	err := s.db.WithContext(ctx).
		Where("starts_at < ? AND ends_at > ?", end, start).
		Order("member_name ASC, starts_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return records, nil
}

// UpsertAvailability replaces every availability interval of the member that
// overlaps [start, end) with a single new record. The delete and insert run in
// one transaction, so a concurrent read never observes old and new coexisting.
func (s *gormStore) UpsertAvailability(ctx context.Context, memberName string, start, end time.Time, status model.AvailabilityStatus) (model.Availability, error) {
	record := model.Availability{
		ID:         uuid.NewString(),
		MemberName: memberName,
		Start:      start,
		End:        end,
		Status:     status,
		UpdatedAt:  time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Half-open overlap: existing.start < end AND start < existing.end.
		if err := tx.Where("member_name = ? AND starts_at < ? AND ends_at > ?", memberName, end, start).
			Delete(&model.Availability{}).Error; err != nil {
			return fmt.Errorf("failed to remove overlapping availability for %s: %w", memberName, err)
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create availability for %s: %w", memberName, err)
		}
		return nil
	})
	if err != nil {
		return model.Availability{}, err
	}
	return record, nil
}

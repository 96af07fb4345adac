package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"campus-parking-backend/internal/model"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write found the row in a
	// different state than expected, or a unique constraint refused it.
	ErrConflict = errors.New("conflicting write")
)

// Store defines the interface for all database operations.
type Store interface {
	ListSlots(ctx context.Context, filter SlotFilter) ([]model.ParkingSlot, error)
	GetSlotForUpdate(ctx context.Context, id string) (*model.ParkingSlot, error)
	SetStatus(ctx context.Context, id string, expected, next model.SlotStatus) error
	ZoneStats(ctx context.Context) ([]ZoneCount, error)
	FindOrphanedSlots(ctx context.Context, updatedBefore time.Time) ([]model.ParkingSlot, error)

	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	FindStrandedReservations(ctx context.Context) ([]model.Reservation, error)

	CreateContact(ctx context.Context, m *model.ContactMessage) error

	CreateAlert(ctx context.Context, a *model.Alert) error
	ListAlerts(ctx context.Context, limit int) ([]model.Alert, error)

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db    *gorm.DB
	retry retryPolicy
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, retry: defaultRetryPolicy}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

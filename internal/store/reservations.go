package store

import (
	"context"
	"fmt"

	"campus-parking-backend/internal/model"
)

// CreateReservation inserts a reservation. A second reservation for the same
// slot is refused by the unique index and reported as ErrConflict.
func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reservation for slot %s: %w", r.SlotID, ErrConflict)
		}
		return fmt.Errorf("failed to create reservation for slot %s: %w", r.SlotID, err)
	}
	return nil
}

func (s *gormStore) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// ListReservations returns every reservation, newest first.
func (s *gormStore) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	reservations := []model.Reservation{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// FindStrandedReservations returns reservations whose slot is available.
func (s *gormStore) FindStrandedReservations(ctx context.Context) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := s.db.WithContext(ctx).
		Select("reservations.*").
		Joins("JOIN parking_slots ON parking_slots.id = reservations.slot_id").
		Where("parking_slots.status = ?", model.SlotAvailable).
		Order("reservations.slot_id").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stranded reservations: %w", err)
	}
	return reservations, nil
}

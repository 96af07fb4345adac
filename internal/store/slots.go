package store

import (
	"context"
	"fmt"
	"time"

	"campus-parking-backend/internal/model"
)

// ListSlots returns the slots ordered by zone, then slot number.
func (s *gormStore) ListSlots(ctx context.Context, filter SlotFilter) ([]model.ParkingSlot, error) {
	q := s.db.WithContext(ctx).Order("zone").Order("slot_number")
	if filter.Zone != "" {
		q = q.Where("zone = ?", filter.Zone)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	slots := []model.ParkingSlot{}
	if err := q.Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list parking slots: %w", err)
	}
	return slots, nil
}

// GetSlotForUpdate reads the current state of a slot. It takes no lock; the
// subsequent SetStatus re-checks the status it was read with.
func (s *gormStore) GetSlotForUpdate(ctx context.Context, id string) (*model.ParkingSlot, error) {
	var slot model.ParkingSlot
	if err := s.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &slot, nil
}

// SetStatus moves a slot from expected to next in a single conditional
// UPDATE. Nothing changes unless the slot is in the expected state.
func (s *gormStore) SetStatus(ctx context.Context, id string, expected, next model.SlotStatus) error {
	var affected int64
	err := s.retry.do(ctx, "set_status", func() error {
		res := s.db.WithContext(ctx).Model(&model.ParkingSlot{}).
			Where("id = ? AND status = ?", id, expected).
			Update("status", next)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("failed to set slot %s %s -> %s: %w", id, expected, next, err)
	}
	if affected > 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.ParkingSlot{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check slot %s: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

// ZoneStats counts slots per zone and status.
func (s *gormStore) ZoneStats(ctx context.Context) ([]ZoneCount, error) {
	var counts []ZoneCount
	err := s.db.WithContext(ctx).Model(&model.ParkingSlot{}).
		Select("zone, status, count(*) AS count").
		Group("zone, status").
		Order("zone").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate slot counts: %w", err)
	}
	return counts, nil
}

// FindOrphanedSlots returns booked slots that no reservation references and
// whose status has not changed since updatedBefore.
func (s *gormStore) FindOrphanedSlots(ctx context.Context, updatedBefore time.Time) ([]model.ParkingSlot, error) {
	var slots []model.ParkingSlot
	err := s.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", model.SlotBooked, updatedBefore).
		Where("NOT EXISTS (?)", s.db.Model(&model.Reservation{}).
			Select("1").
			Where("reservations.slot_id = parking_slots.id")).
		Order("id").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orphaned slots: %w", err)
	}
	return slots, nil
}

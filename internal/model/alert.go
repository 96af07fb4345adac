package model

import "time"

// AlertKind classifies an operator alert.
type AlertKind string

const (
	// AlertRollbackFailed means a slot was left booked without a reservation
	// after every compensating write failed.
	AlertRollbackFailed AlertKind = "rollback_failed"
	// AlertOrphanedSlotReleased means the reconciler released a booked slot
	// that had no reservation.
	AlertOrphanedSlotReleased AlertKind = "orphaned_slot_released"
	// AlertStrandedReservationRebooked means the reconciler re-booked a slot
	// that a reservation pointed at while it was available.
	AlertStrandedReservationRebooked AlertKind = "stranded_reservation_rebooked"
)

// Alert is an operator-visible record of a slot/reservation divergence.
type Alert struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Kind          AlertKind `gorm:"size:64;index;not null" json:"kind"`
	SlotID        string    `gorm:"size:32;index" json:"slot_id"`
	ReservationID string    `gorm:"size:36" json:"reservation_id,omitempty"`
	Detail        string    `gorm:"type:text" json:"detail"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
}

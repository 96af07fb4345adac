package model

import "time"

// SlotStatus is the occupancy state of a parking slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

// Valid reports whether s is one of the known statuses.
func (s SlotStatus) Valid() bool {
	return s == SlotAvailable || s == SlotBooked
}

// ParkingSlot is a single physical parking space. Status is the only mutable field.
type ParkingSlot struct {
	ID         string     `gorm:"primaryKey;size:32" json:"id"`
	SlotNumber string     `gorm:"size:32;not null" json:"slot_number"`
	Zone       string     `gorm:"size:8;index;not null" json:"zone"`
	Status     SlotStatus `gorm:"size:16;index;not null" json:"status"`
	CreatedAt  time.Time  `gorm:"not null" json:"-"`
	UpdatedAt  time.Time  `gorm:"not null" json:"-"`
}

func (ParkingSlot) TableName() string {
	return "parking_slots"
}

// IsAvailable reports whether the slot can be reserved.
func (s *ParkingSlot) IsAvailable() bool {
	return s.Status == SlotAvailable
}

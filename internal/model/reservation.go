package model

import "time"

// Reservation binds a user and vehicle to a slot. It is written once and never updated.
type Reservation struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserName      string    `gorm:"size:128;not null" json:"user_name"`
	VehicleNumber string    `gorm:"size:32;not null" json:"vehicle_number"`
	SlotID        string    `gorm:"size:32;not null;uniqueIndex" json:"slot_id"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

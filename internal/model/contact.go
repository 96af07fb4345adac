package model

import "time"

// ContactMessage is a free-form message submitted from the contact page.
type ContactMessage struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Email     string    `gorm:"size:256;not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ContactMessage) TableName() string {
	return "contacts"
}

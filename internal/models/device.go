package models

import (
	"time"
)

// Device represents a playback device registered to a user
type Device struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	UserID       int64     `json:"user_id" gorm:"not null;index;column:user_id" validate:"required"`
	DeviceCode   string    `json:"device_code" gorm:"type:text;not null;uniqueIndex;column:device_code" validate:"required"`
	RegisteredAt time.Time `json:"registered_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:registered_at"`
}

// NewDevice creates a new Device owned by userID
func NewDevice(userID int64, code string) *Device {
	return &Device{
		UserID:       userID,
		DeviceCode:   code,
		RegisteredAt: time.Now().UTC(),
	}
}

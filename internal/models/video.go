package models

import (
	"time"
)

// Video is one registration of a URL on a single device.
// The same URL registered for a user exists once per device.
type Video struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	DeviceID     int64     `json:"device_id" gorm:"not null;index;column:device_id" validate:"required"`
	URL          string    `json:"url" gorm:"type:text;not null;column:url" validate:"required,url"`
	RegisteredAt time.Time `json:"registered_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:registered_at"`
}

// NewVideo creates a new Video for deviceID
func NewVideo(deviceID int64, url string) *Video {
	return &Video{
		DeviceID:     deviceID,
		URL:          url,
		RegisteredAt: time.Now().UTC(),
	}
}

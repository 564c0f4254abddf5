package models

import (
	"time"
)

// Playlist represents a named, ordered collection of videos owned by a user
type Playlist struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64     `json:"user_id" gorm:"not null;index;column:user_id" validate:"required"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewPlaylist creates a new Playlist with timestamps
func NewPlaylist(userID int64, name string) *Playlist {
	now := time.Now().UTC()
	return &Playlist{
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

package models

import (
	"time"
)

// PlaylistMembership places a video at a 1-based position inside a playlist.
// For one playlist the positions are always exactly 1..count.
type PlaylistMembership struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	PlaylistID int64     `json:"playlist_id" gorm:"not null;uniqueIndex:idx_membership_pair;column:playlist_id"`
	VideoID    int64     `json:"video_id" gorm:"not null;uniqueIndex:idx_membership_pair;column:video_id"`
	Position   int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=1"`
	AddedAt    time.Time `json:"added_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:added_at"`

	// Populated by joins, not stored in database
	Video *Video `json:"video,omitempty" gorm:"-"`
}

// NewPlaylistMembership creates a new membership row at position
func NewPlaylistMembership(playlistID, videoID int64, position int) *PlaylistMembership {
	return &PlaylistMembership{
		PlaylistID: playlistID,
		VideoID:    videoID,
		Position:   position,
		AddedAt:    time.Now().UTC(),
	}
}

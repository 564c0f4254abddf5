package models

import (
	"time"
)

// DeviceAssignment binds a playlist to a device.
// At most one assignment per device is active.
type DeviceAssignment struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	DeviceID   int64     `json:"device_id" gorm:"not null;uniqueIndex:idx_assignment_pair;column:device_id"`
	PlaylistID int64     `json:"playlist_id" gorm:"not null;uniqueIndex:idx_assignment_pair;column:playlist_id"`
	Active     bool      `json:"active" gorm:"not null;default:false;column:active"`
	AssignedAt time.Time `json:"assigned_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:assigned_at"`
}

// AssignmentEntry is a device assignment joined with its playlist, as listed for a device
type AssignmentEntry struct {
	Playlist   *Playlist `json:"playlist"`
	Active     bool      `json:"active"`
	AssignedAt time.Time `json:"assigned_at"`
}

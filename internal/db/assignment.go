package db

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/playcast/internal/models"
	"gorm.io/gorm"
)

// AssignmentRepository handles row-level operations on device assignments
type AssignmentRepository struct {
	conn *gorm.DB
}

// Get retrieves the assignment row for the (deviceID, playlistID) pair
func (r *AssignmentRepository) Get(ctx context.Context, deviceID, playlistID int64) (*models.DeviceAssignment, error) {
	var a models.DeviceAssignment
	result := r.conn.WithContext(ctx).
		Where("device_id = ? AND playlist_id = ?", deviceID, playlistID).
		First(&a)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &a, nil
}

// Create inserts an assignment row
func (r *AssignmentRepository) Create(ctx context.Context, a *models.DeviceAssignment) error {
	result := r.conn.WithContext(ctx).Create(a)
	if result.Error != nil {
		return fmt.Errorf("failed to create device assignment: %w", MapGormError(result.Error))
	}
	return nil
}

// DeactivateAll clears the active flag on every assignment of deviceID
func (r *AssignmentRepository) DeactivateAll(ctx context.Context, deviceID int64) error {
	result := r.conn.WithContext(ctx).
		Model(&models.DeviceAssignment{}).
		Where("device_id = ? AND active = ?", deviceID, true).
		Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate device assignments: %w", MapGormError(result.Error))
	}
	return nil
}

// Activate marks an existing assignment row active with a fresh timestamp
func (r *AssignmentRepository) Activate(ctx context.Context, id int64, at time.Time) error {
	result := r.conn.WithContext(ctx).
		Model(&models.DeviceAssignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":      true,
			"assigned_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to activate device assignment: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActive returns how many active assignments deviceID has
func (r *AssignmentRepository) CountActive(ctx context.Context, deviceID int64) (int64, error) {
	var count int64
	result := r.conn.WithContext(ctx).
		Model(&models.DeviceAssignment{}).
		Where("device_id = ? AND active = ?", deviceID, true).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count active assignments: %w", MapGormError(result.Error))
	}
	return count, nil
}

// ActivePlaylist retrieves the playlist currently active on deviceID
func (r *AssignmentRepository) ActivePlaylist(ctx context.Context, deviceID int64) (*models.Playlist, error) {
	var playlist models.Playlist
	result := r.conn.WithContext(ctx).
		Model(&models.Playlist{}).
		Select("playlists.*").
		Joins("JOIN device_assignments da ON da.playlist_id = playlists.id").
		Where("da.device_id = ? AND da.active = ?", deviceID, true).
		Take(&playlist)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &playlist, nil
}

// ListByDevice retrieves the assignments of deviceID, most recently assigned first
func (r *AssignmentRepository) ListByDevice(ctx context.Context, deviceID int64) ([]*models.DeviceAssignment, error) {
	var assignments []*models.DeviceAssignment
	result := r.conn.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("assigned_at DESC, id DESC").
		Find(&assignments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list device assignments: %w", MapGormError(result.Error))
	}
	return assignments, nil
}

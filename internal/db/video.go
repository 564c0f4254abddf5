package db

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/playcast/internal/models"
	"gorm.io/gorm"
)

// VideoRepository handles database operations for videos
type VideoRepository struct {
	conn *gorm.DB
}

// Create inserts a new video into the database
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	result := r.conn.WithContext(ctx).Create(video)
	if result.Error != nil {
		return fmt.Errorf("failed to create video: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a video by id
func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	var video models.Video
	result := r.conn.WithContext(ctx).Where("id = ?", id).First(&video)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &video, nil
}

// Exists reports whether a video with id exists
func (r *VideoRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	result := r.conn.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check video existence: %w", MapGormError(result.Error))
	}
	return count > 0, nil
}

// ListByDevice retrieves the videos of a device in registration order
func (r *VideoRepository) ListByDevice(ctx context.Context, deviceID int64) ([]*models.Video, error) {
	var videos []*models.Video
	result := r.conn.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("id ASC").
		Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list videos by device: %w", MapGormError(result.Error))
	}
	return videos, nil
}

// CountByURL counts the videos with url across the given devices
func (r *VideoRepository) CountByURL(ctx context.Context, url string, deviceIDs []int64) (int64, error) {
	if len(deviceIDs) == 0 {
		return 0, nil
	}
	var count int64
	result := r.conn.WithContext(ctx).
		Model(&models.Video{}).
		Where("url = ? AND device_id IN ?", url, deviceIDs).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count videos by url: %w", MapGormError(result.Error))
	}
	return count, nil
}

// IDsByURL returns the ids of videos with url on the given devices
func (r *VideoRepository) IDsByURL(ctx context.Context, url string, deviceIDs []int64) ([]int64, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	result := r.conn.WithContext(ctx).
		Model(&models.Video{}).
		Where("url = ? AND device_id IN ?", url, deviceIDs).
		Order("id ASC").
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list video ids by url: %w", MapGormError(result.Error))
	}
	return ids, nil
}

// IDsByDevice returns the ids of the videos of deviceID
func (r *VideoRepository) IDsByDevice(ctx context.Context, deviceID int64) ([]int64, error) {
	var ids []int64
	result := r.conn.WithContext(ctx).
		Model(&models.Video{}).
		Where("device_id = ?", deviceID).
		Order("id ASC").
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list video ids by device: %w", MapGormError(result.Error))
	}
	return ids, nil
}

// DeleteByURL deletes, in one statement, every video with url whose device is in deviceIDs.
// Returns the number of rows removed.
func (r *VideoRepository) DeleteByURL(ctx context.Context, url string, deviceIDs []int64) (int64, error) {
	if len(deviceIDs) == 0 {
		return 0, nil
	}
	result := r.conn.WithContext(ctx).
		Where("url = ? AND device_id IN ?", url, deviceIDs).
		Delete(&models.Video{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete videos by url: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}

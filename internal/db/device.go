package db

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/playcast/internal/models"
	"gorm.io/gorm"
)

// DeviceRepository handles database operations for devices
type DeviceRepository struct {
	conn *gorm.DB
}

// Create inserts a new device into the database
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	result := r.conn.WithContext(ctx).Create(device)
	if result.Error != nil {
		return fmt.Errorf("failed to create device: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a device by id
func (r *DeviceRepository) GetByID(ctx context.Context, id int64) (*models.Device, error) {
	var device models.Device
	result := r.conn.WithContext(ctx).Where("id = ?", id).First(&device)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &device, nil
}

// GetByCode retrieves a device by its device code
func (r *DeviceRepository) GetByCode(ctx context.Context, code string) (*models.Device, error) {
	var device models.Device
	result := r.conn.WithContext(ctx).Where("device_code = ?", code).First(&device)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &device, nil
}

// ListByUser retrieves all devices of a user, oldest first
func (r *DeviceRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Device, error) {
	var devices []*models.Device
	result := r.conn.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&devices)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list devices by user: %w", MapGormError(result.Error))
	}
	return devices, nil
}

// IDsByUser returns the ids of all devices owned by userID in ascending order
func (r *DeviceRepository) IDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	result := r.conn.WithContext(ctx).
		Model(&models.Device{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list device ids by user: %w", MapGormError(result.Error))
	}
	return ids, nil
}

// CountByUser returns how many devices userID owns
func (r *DeviceRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	result := r.conn.WithContext(ctx).Model(&models.Device{}).Where("user_id = ?", userID).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count devices by user: %w", MapGormError(result.Error))
	}
	return count, nil
}

// OwnerOf returns the owning user id of a device
func (r *DeviceRepository) OwnerOf(ctx context.Context, id int64) (int64, error) {
	var owner struct{ UserID int64 }
	result := r.conn.WithContext(ctx).
		Model(&models.Device{}).
		Select("user_id").
		Where("id = ?", id).
		Take(&owner)
	if result.Error != nil {
		return 0, MapGormError(result.Error)
	}
	return owner.UserID, nil
}

// Delete deletes a device; its videos and assignments cascade
func (r *DeviceRepository) Delete(ctx context.Context, id int64) error {
	result := r.conn.WithContext(ctx).Where("id = ?", id).Delete(&models.Device{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete device: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

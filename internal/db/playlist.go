package db

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/playcast/internal/models"
	"gorm.io/gorm"
)

// PlaylistRepository handles database operations for playlist records
type PlaylistRepository struct {
	conn *gorm.DB
}

// Create inserts a new playlist into the database
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	result := r.conn.WithContext(ctx).Create(playlist)
	if result.Error != nil {
		return fmt.Errorf("failed to create playlist: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a playlist by id
func (r *PlaylistRepository) GetByID(ctx context.Context, id int64) (*models.Playlist, error) {
	var playlist models.Playlist
	result := r.conn.WithContext(ctx).Where("id = ?", id).First(&playlist)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &playlist, nil
}

// ListByUser retrieves all playlists of a user, oldest first
func (r *PlaylistRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Playlist, error) {
	var playlists []*models.Playlist
	result := r.conn.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&playlists)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list playlists by user: %w", MapGormError(result.Error))
	}
	return playlists, nil
}

// GetByIDs retrieves the playlists with the given ids keyed by id
func (r *PlaylistRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Playlist, error) {
	found := make(map[int64]*models.Playlist, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var playlists []*models.Playlist
	result := r.conn.WithContext(ctx).Where("id IN ?", ids).Find(&playlists)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get playlists by ids: %w", MapGormError(result.Error))
	}
	for _, p := range playlists {
		found[p.ID] = p
	}
	return found, nil
}

// OwnerOf returns the owning user id of a playlist
func (r *PlaylistRepository) OwnerOf(ctx context.Context, id int64) (int64, error) {
	var owner struct{ UserID int64 }
	result := r.conn.WithContext(ctx).
		Model(&models.Playlist{}).
		Select("user_id").
		Where("id = ?", id).
		Take(&owner)
	if result.Error != nil {
		return 0, MapGormError(result.Error)
	}
	return owner.UserID, nil
}

// Touch bumps updated_at after the playlist contents change
func (r *PlaylistRepository) Touch(ctx context.Context, id int64) error {
	result := r.conn.WithContext(ctx).
		Model(&models.Playlist{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("failed to touch playlist: %w", MapGormError(result.Error))
	}
	return nil
}

// Delete deletes a playlist; memberships and device assignments cascade
func (r *PlaylistRepository) Delete(ctx context.Context, id int64) error {
	result := r.conn.WithContext(ctx).Where("id = ?", id).Delete(&models.Playlist{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete playlist: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeviceOwner resolves the owner of a device; part of the ownership lookup contract
func (r *Repositories) DeviceOwner(ctx context.Context, deviceID int64) (int64, error) {
	return r.Devices.OwnerOf(ctx, deviceID)
}

// PlaylistOwner resolves the owner of a playlist; part of the ownership lookup contract
func (r *Repositories) PlaylistOwner(ctx context.Context, playlistID int64) (int64, error) {
	return r.Playlists.OwnerOf(ctx, playlistID)
}

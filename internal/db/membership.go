package db

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/playcast/internal/models"
	"gorm.io/gorm"
)

// MembershipRepository handles row-level operations on playlist memberships.
// It does not keep positions contiguous on its own; the playlist engine
// composes these calls inside one transaction to do that.
type MembershipRepository struct {
	conn *gorm.DB
}

// Create inserts a membership row
func (r *MembershipRepository) Create(ctx context.Context, m *models.PlaylistMembership) error {
	result := r.conn.WithContext(ctx).Create(m)
	if result.Error != nil {
		return fmt.Errorf("failed to create playlist membership: %w", MapGormError(result.Error))
	}
	return nil
}

// Get retrieves the membership of videoID in playlistID
func (r *MembershipRepository) Get(ctx context.Context, playlistID, videoID int64) (*models.PlaylistMembership, error) {
	var m models.PlaylistMembership
	result := r.conn.WithContext(ctx).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		First(&m)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &m, nil
}

// Exists reports whether videoID is a member of playlistID
func (r *MembershipRepository) Exists(ctx context.Context, playlistID, videoID int64) (bool, error) {
	var count int64
	result := r.conn.WithContext(ctx).
		Model(&models.PlaylistMembership{}).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check playlist membership: %w", MapGormError(result.Error))
	}
	return count > 0, nil
}

// Count returns the number of members of playlistID
func (r *MembershipRepository) Count(ctx context.Context, playlistID int64) (int, error) {
	var count int64
	result := r.conn.WithContext(ctx).
		Model(&models.PlaylistMembership{}).
		Where("playlist_id = ?", playlistID).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count playlist memberships: %w", MapGormError(result.Error))
	}
	return int(count), nil
}

// MaxPosition returns the highest position in playlistID, or 0 when empty
func (r *MembershipRepository) MaxPosition(ctx context.Context, playlistID int64) (int, error) {
	var maxPos int
	result := r.conn.WithContext(ctx).
		Model(&models.PlaylistMembership{}).
		Select("COALESCE(MAX(position), 0)").
		Where("playlist_id = ?", playlistID).
		Scan(&maxPos)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get max playlist position: %w", MapGormError(result.Error))
	}
	return maxPos, nil
}

// ShiftUpFrom adds 1 to every position >= from in playlistID
func (r *MembershipRepository) ShiftUpFrom(ctx context.Context, playlistID int64, from int) error {
	result := r.conn.WithContext(ctx).
		Model(&models.PlaylistMembership{}).
		Where("playlist_id = ? AND position >= ?", playlistID, from).
		Update("position", gorm.Expr("position + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to shift playlist positions up: %w", MapGormError(result.Error))
	}
	return nil
}

// ShiftDownAfter subtracts 1 from every position > after in playlistID
func (r *MembershipRepository) ShiftDownAfter(ctx context.Context, playlistID int64, after int) error {
	result := r.conn.WithContext(ctx).
		Model(&models.PlaylistMembership{}).
		Where("playlist_id = ? AND position > ?", playlistID, after).
		Update("position", gorm.Expr("position - 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to shift playlist positions down: %w", MapGormError(result.Error))
	}
	return nil
}

// Delete removes the membership of videoID in playlistID
func (r *MembershipRepository) Delete(ctx context.Context, playlistID, videoID int64) error {
	result := r.conn.WithContext(ctx).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Delete(&models.PlaylistMembership{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete playlist membership: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPosition overwrites the position of one membership row
func (r *MembershipRepository) SetPosition(ctx context.Context, playlistID, videoID int64, position int) error {
	result := r.conn.WithContext(ctx).
		Model(&models.PlaylistMembership{}).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Update("position", position)
	if result.Error != nil {
		return fmt.Errorf("failed to set playlist position: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPositions sets every position in playlistID to sentinel
func (r *MembershipRepository) ResetPositions(ctx context.Context, playlistID int64, sentinel int) error {
	result := r.conn.WithContext(ctx).
		Model(&models.PlaylistMembership{}).
		Where("playlist_id = ?", playlistID).
		Update("position", sentinel)
	if result.Error != nil {
		return fmt.Errorf("failed to reset playlist positions: %w", MapGormError(result.Error))
	}
	return nil
}

// VideoIDs returns the member video ids of playlistID in position order
func (r *MembershipRepository) VideoIDs(ctx context.Context, playlistID int64) ([]int64, error) {
	var ids []int64
	result := r.conn.WithContext(ctx).
		Model(&models.PlaylistMembership{}).
		Where("playlist_id = ?", playlistID).
		Order("position ASC").
		Pluck("video_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list playlist video ids: %w", MapGormError(result.Error))
	}
	return ids, nil
}

// ListByPlaylist retrieves the memberships of playlistID ordered by position
func (r *MembershipRepository) ListByPlaylist(ctx context.Context, playlistID int64) ([]*models.PlaylistMembership, error) {
	var memberships []*models.PlaylistMembership
	result := r.conn.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Order("position ASC").
		Find(&memberships)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list playlist memberships: %w", MapGormError(result.Error))
	}
	return memberships, nil
}

// ListVideos retrieves the videos of playlistID ordered by position
func (r *MembershipRepository) ListVideos(ctx context.Context, playlistID int64) ([]*models.Video, error) {
	var videos []*models.Video
	result := r.conn.WithContext(ctx).
		Model(&models.Video{}).
		Select("videos.*").
		Joins("JOIN playlist_memberships pm ON pm.video_id = videos.id").
		Where("pm.playlist_id = ?", playlistID).
		Order("pm.position ASC").
		Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list playlist videos: %w", MapGormError(result.Error))
	}
	return videos, nil
}

// ListByVideos returns every membership of the given videos, grouped by playlist
// with the highest position first
func (r *MembershipRepository) ListByVideos(ctx context.Context, videoIDs []int64) ([]*models.PlaylistMembership, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	var memberships []*models.PlaylistMembership
	result := r.conn.WithContext(ctx).
		Where("video_id IN ?", videoIDs).
		Order("playlist_id ASC, position DESC").
		Find(&memberships)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list memberships by videos: %w", MapGormError(result.Error))
	}
	return memberships, nil
}

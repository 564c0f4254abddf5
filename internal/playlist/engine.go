// Package playlist keeps the videos of a playlist in a gapless 1-based order
// and exposes the authorized playlist operations built on top of it.
package playlist

import (
	"context"

	"github.com/stwalsh4118/playcast/internal/apperr"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/models"
)

// resetPosition is the sentinel every row passes through during Reorder
const resetPosition = 0

// Engine maintains membership positions. For a fixed playlist the positions
// are exactly 1..count between operations.
//
// Every method runs on tx, a repository set bound to an open transaction owned
// by the caller; a failing method leaves the rollback to that caller.
type Engine struct{}

// NewEngine creates a membership engine
func NewEngine() *Engine {
	return &Engine{}
}

// InsertAt adds videoID to playlistID. A nil position appends after the current
// last position. A given position must lie in 1..count+1; rows at or after it
// move up by one before the new row is written.
func (e *Engine) InsertAt(ctx context.Context, tx *db.Repositories, playlistID, videoID int64, position *int) (*models.PlaylistMembership, error) {
	if err := tx.LockPlaylist(ctx, playlistID); err != nil {
		return nil, apperr.FromStorage(err)
	}

	exists, err := tx.Memberships.Exists(ctx, playlistID, videoID)
	if err != nil {
		return nil, apperr.FromStorage(err)
	}
	if exists {
		return nil, apperr.Conflictf("video %d is already in playlist %d", videoID, playlistID)
	}

	var target int
	if position == nil {
		last, err := tx.Memberships.MaxPosition(ctx, playlistID)
		if err != nil {
			return nil, apperr.FromStorage(err)
		}
		target = last + 1
	} else {
		count, err := tx.Memberships.Count(ctx, playlistID)
		if err != nil {
			return nil, apperr.FromStorage(err)
		}
		target = *position
		if target < 1 || target > count+1 {
			return nil, apperr.InvalidInputf("position %d is outside 1..%d", target, count+1)
		}
		if err := tx.Memberships.ShiftUpFrom(ctx, playlistID, target); err != nil {
			return nil, apperr.FromStorage(err)
		}
	}

	membership := models.NewPlaylistMembership(playlistID, videoID, target)
	if err := tx.Memberships.Create(ctx, membership); err != nil {
		return nil, apperr.FromStorage(err)
	}

	return membership, nil
}

// RemoveVideo deletes the membership of videoID and closes the gap it leaves
func (e *Engine) RemoveVideo(ctx context.Context, tx *db.Repositories, playlistID, videoID int64) error {
	if err := tx.LockPlaylist(ctx, playlistID); err != nil {
		return apperr.FromStorage(err)
	}

	membership, err := tx.Memberships.Get(ctx, playlistID, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return apperr.NotFoundf("video %d is not in playlist %d", videoID, playlistID)
		}
		return apperr.FromStorage(err)
	}

	if err := tx.Memberships.Delete(ctx, playlistID, videoID); err != nil {
		return apperr.FromStorage(err)
	}
	if err := tx.Memberships.ShiftDownAfter(ctx, playlistID, membership.Position); err != nil {
		return apperr.FromStorage(err)
	}

	return nil
}

// DetachVideos removes the given videos from every playlist containing them and
// closes the gaps. Callers run it before deleting video rows: the delete cascade
// does not renumber positions.
func (e *Engine) DetachVideos(ctx context.Context, tx *db.Repositories, videoIDs []int64) (int, error) {
	memberships, err := tx.Memberships.ListByVideos(ctx, videoIDs)
	if err != nil {
		return 0, apperr.FromStorage(err)
	}

	var locked int64
	for _, m := range memberships {
		if m.PlaylistID != locked {
			if err := tx.LockPlaylist(ctx, m.PlaylistID); err != nil {
				return 0, apperr.FromStorage(err)
			}
			locked = m.PlaylistID
		}

		// Highest position first, so the positions still to visit are unaffected by the shift
		if err := tx.Memberships.Delete(ctx, m.PlaylistID, m.VideoID); err != nil {
			return 0, apperr.FromStorage(err)
		}
		if err := tx.Memberships.ShiftDownAfter(ctx, m.PlaylistID, m.Position); err != nil {
			return 0, apperr.FromStorage(err)
		}
	}

	return len(memberships), nil
}

// SetPosition overwrites one row's position without moving any other row.
// The caller is responsible for the result being gapless; Reorder is the only user.
func (e *Engine) SetPosition(ctx context.Context, tx *db.Repositories, playlistID, videoID int64, position int) error {
	if position < 1 {
		return apperr.InvalidInputf("position %d must be >= 1", position)
	}
	if err := tx.Memberships.SetPosition(ctx, playlistID, videoID, position); err != nil {
		if db.IsNotFound(err) {
			return apperr.NotFoundf("video %d is not in playlist %d", videoID, playlistID)
		}
		return apperr.FromStorage(err)
	}
	return nil
}

// Reorder replaces the whole order of playlistID with orderedVideoIDs.
// The list must name every current member exactly once; otherwise nothing changes.
func (e *Engine) Reorder(ctx context.Context, tx *db.Repositories, playlistID int64, orderedVideoIDs []int64) error {
	if err := tx.LockPlaylist(ctx, playlistID); err != nil {
		return apperr.FromStorage(err)
	}

	current, err := tx.Memberships.VideoIDs(ctx, playlistID)
	if err != nil {
		return apperr.FromStorage(err)
	}
	if err := sameMembers(current, orderedVideoIDs); err != nil {
		return err
	}

	// Reset first so swapping two positions never needs a transient duplicate
	if err := tx.Memberships.ResetPositions(ctx, playlistID, resetPosition); err != nil {
		return apperr.FromStorage(err)
	}
	for i, videoID := range orderedVideoIDs {
		if err := e.SetPosition(ctx, tx, playlistID, videoID, i+1); err != nil {
			return err
		}
	}

	return nil
}

// PositionOf returns the position of videoID; ok is false when it is not a member
func (e *Engine) PositionOf(ctx context.Context, tx *db.Repositories, playlistID, videoID int64) (position int, ok bool, err error) {
	membership, err := tx.Memberships.Get(ctx, playlistID, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, apperr.FromStorage(err)
	}
	return membership.Position, true, nil
}

// ListOrdered returns the videos of playlistID in position order
func (e *Engine) ListOrdered(ctx context.Context, tx *db.Repositories, playlistID int64) ([]*models.Video, error) {
	videos, err := tx.Memberships.ListVideos(ctx, playlistID)
	if err != nil {
		return nil, apperr.FromStorage(err)
	}
	return videos, nil
}

// Exists reports whether videoID is a member of playlistID
func (e *Engine) Exists(ctx context.Context, tx *db.Repositories, playlistID, videoID int64) (bool, error) {
	exists, err := tx.Memberships.Exists(ctx, playlistID, videoID)
	if err != nil {
		return false, apperr.FromStorage(err)
	}
	return exists, nil
}

// Memberships returns the membership rows of playlistID in position order
func (e *Engine) Memberships(ctx context.Context, tx *db.Repositories, playlistID int64) ([]*models.PlaylistMembership, error) {
	memberships, err := tx.Memberships.ListByPlaylist(ctx, playlistID)
	if err != nil {
		return nil, apperr.FromStorage(err)
	}
	return memberships, nil
}

// sameMembers checks that proposed is a permutation of current
func sameMembers(current, proposed []int64) error {
	seen := make(map[int64]bool, len(proposed))
	for _, id := range proposed {
		if seen[id] {
			return apperr.InvalidInputf("video %d appears more than once in the new order", id)
		}
		seen[id] = true
	}

	members := make(map[int64]bool, len(current))
	for _, id := range current {
		members[id] = true
		if !seen[id] {
			return apperr.InvalidInputf("new order omits member video %d", id)
		}
	}
	for _, id := range proposed {
		if !members[id] {
			return apperr.InvalidInputf("video %d is not a member of the playlist", id)
		}
	}
	return nil
}

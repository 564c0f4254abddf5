// Package device manages devices and the exclusive playlist assignment each one carries.
package device

import (
	"context"
	"time"

	"github.com/stwalsh4118/playcast/internal/apperr"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/models"
)

// AssignmentManager keeps at most one active assignment per device.
// Every method runs on tx, a repository set bound to a caller-owned transaction.
type AssignmentManager struct {
	now func() time.Time
}

// NewAssignmentManager creates an assignment manager
func NewAssignmentManager() *AssignmentManager {
	return &AssignmentManager{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Assign makes playlistID the single active assignment of deviceID.
// Re-assigning the active playlist only refreshes its timestamp.
func (m *AssignmentManager) Assign(ctx context.Context, tx *db.Repositories, deviceID, playlistID int64) (*models.DeviceAssignment, error) {
	if err := tx.LockDevice(ctx, deviceID); err != nil {
		return nil, apperr.FromStorage(err)
	}

	// Deactivate before activating so the partial unique index never sees two active rows
	if err := tx.Assignments.DeactivateAll(ctx, deviceID); err != nil {
		return nil, apperr.FromStorage(err)
	}

	now := m.now()
	existing, err := tx.Assignments.Get(ctx, deviceID, playlistID)
	switch {
	case err == nil:
		if err := tx.Assignments.Activate(ctx, existing.ID, now); err != nil {
			return nil, apperr.FromStorage(err)
		}
		existing.Active = true
		existing.AssignedAt = now
		return existing, nil

	case db.IsNotFound(err):
		assignment := &models.DeviceAssignment{
			DeviceID:   deviceID,
			PlaylistID: playlistID,
			Active:     true,
			AssignedAt: now,
		}
		if err := tx.Assignments.Create(ctx, assignment); err != nil {
			return nil, apperr.FromStorage(err)
		}
		return assignment, nil

	default:
		return nil, apperr.FromStorage(err)
	}
}

// GetActive returns the active playlist of deviceID, or nil when it has none
func (m *AssignmentManager) GetActive(ctx context.Context, tx *db.Repositories, deviceID int64) (*models.Playlist, error) {
	playlist, err := tx.Assignments.ActivePlaylist(ctx, deviceID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperr.FromStorage(err)
	}
	return playlist, nil
}

// ListAssignments returns every assignment of deviceID with its playlist, newest first
func (m *AssignmentManager) ListAssignments(ctx context.Context, tx *db.Repositories, deviceID int64) ([]*models.AssignmentEntry, error) {
	assignments, err := tx.Assignments.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, apperr.FromStorage(err)
	}

	ids := make([]int64, len(assignments))
	for i, a := range assignments {
		ids[i] = a.PlaylistID
	}
	playlists, err := tx.Playlists.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.FromStorage(err)
	}

	entries := make([]*models.AssignmentEntry, 0, len(assignments))
	for _, a := range assignments {
		playlist, ok := playlists[a.PlaylistID]
		if !ok {
			continue
		}
		entries = append(entries, &models.AssignmentEntry{
			Playlist:   playlist,
			Active:     a.Active,
			AssignedAt: a.AssignedAt,
		})
	}
	return entries, nil
}

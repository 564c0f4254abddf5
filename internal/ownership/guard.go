// Package ownership provides the authorization predicates shared by the playlist,
// device and video components. It never mutates anything.
package ownership

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/playcast/internal/apperr"
	"github.com/stwalsh4118/playcast/internal/db"
)

// Lookup resolves owners of entities. db.Repositories satisfies it, so a guard
// built on a transaction-bound set reads inside that transaction.
type Lookup interface {
	DeviceOwner(ctx context.Context, deviceID int64) (int64, error)
	PlaylistOwner(ctx context.Context, playlistID int64) (int64, error)
}

// Guard answers "does this user own that entity" questions
type Guard struct {
	lookup Lookup
}

// NewGuard creates a guard over lookup
func NewGuard(lookup Lookup) *Guard {
	return &Guard{lookup: lookup}
}

// UserOwnsDevice reports whether userID owns deviceID.
// A missing device is reported as false, not as an error.
func (g *Guard) UserOwnsDevice(ctx context.Context, userID, deviceID int64) (bool, error) {
	owner, err := g.lookup.DeviceOwner(ctx, deviceID)
	return ownedBy(owner, err, userID)
}

// UserOwnsPlaylist reports whether userID owns playlistID.
// A missing playlist is reported as false, not as an error.
func (g *Guard) UserOwnsPlaylist(ctx context.Context, userID, playlistID int64) (bool, error) {
	owner, err := g.lookup.PlaylistOwner(ctx, playlistID)
	return ownedBy(owner, err, userID)
}

// DeviceOwnerOf returns the owning user of deviceID, NotFound when the device is absent
func (g *Guard) DeviceOwnerOf(ctx context.Context, deviceID int64) (int64, error) {
	owner, err := g.lookup.DeviceOwner(ctx, deviceID)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, apperr.NotFoundf("device %d", deviceID)
		}
		return 0, apperr.FromStorage(err)
	}
	return owner, nil
}

// RequireDevice fails with Unauthorized unless userID owns deviceID
func (g *Guard) RequireDevice(ctx context.Context, userID, deviceID int64) error {
	ok, err := g.UserOwnsDevice(ctx, userID, deviceID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorizedf("device %d is not owned by user %d", deviceID, userID)
	}
	return nil
}

// RequirePlaylist fails with Unauthorized unless userID owns playlistID
func (g *Guard) RequirePlaylist(ctx context.Context, userID, playlistID int64) error {
	ok, err := g.UserOwnsPlaylist(ctx, userID, playlistID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorizedf("playlist %d is not owned by user %d", playlistID, userID)
	}
	return nil
}

func ownedBy(owner int64, err error, userID int64) (bool, error) {
	if err != nil {
		if db.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve owner: %w", apperr.FromStorage(err))
	}
	return owner == userID, nil
}

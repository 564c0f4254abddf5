package device

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"github.com/stwalsh4118/playcast/internal/apperr"
	"github.com/stwalsh4118/playcast/internal/config"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/logger"
	"github.com/stwalsh4118/playcast/internal/metrics"
	"github.com/stwalsh4118/playcast/internal/models"
	"github.com/stwalsh4118/playcast/internal/ownership"
	"github.com/stwalsh4118/playcast/internal/playlist"
)

// Playback is what a device needs to start playing: its active playlist in order
type Playback struct {
	Device   *models.Device   `json:"device"`
	Playlist *models.Playlist `json:"playlist"`
	Videos   []*models.Video  `json:"videos"`
}

// Service handles device registration and playlist assignment
type Service struct {
	db          *db.DB
	repos       *db.Repositories
	assignments *AssignmentManager
	engine      *playlist.Engine
	codePattern *regexp.Regexp
	maxDevices  int
	log         zerolog.Logger
}

// NewService creates a new device service instance.
// The device code pattern comes from configuration and must compile.
func NewService(database *db.DB, repos *db.Repositories, policy config.PolicyConfig) (*Service, error) {
	pattern, err := regexp.Compile(policy.DeviceCodePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid device code pattern: %w", err)
	}

	return &Service{
		db:          database,
		repos:       repos,
		assignments: NewAssignmentManager(),
		engine:      playlist.NewEngine(),
		codePattern: pattern,
		maxDevices:  policy.MaxDevicesPerUser,
		log:         logger.Component("device"),
	}, nil
}

// Register adds a device with code to userID's devices
func (s *Service) Register(ctx context.Context, userID int64, code string) (*models.Device, error) {
	if !s.codePattern.MatchString(code) {
		return nil, fmt.Errorf("failed to register device: %w",
			apperr.InvalidInputf("device code %q does not match %s", code, s.codePattern))
	}

	device := models.NewDevice(userID, code)
	err := s.run(ctx, "device.register", func(tx *db.Repositories) error {
		exists, err := tx.Users.Exists(ctx, userID)
		if err != nil {
			return apperr.FromStorage(err)
		}
		if !exists {
			return apperr.NotFoundf("user %d", userID)
		}

		if err := tx.LockUser(ctx, userID); err != nil {
			return apperr.FromStorage(err)
		}
		count, err := tx.Devices.CountByUser(ctx, userID)
		if err != nil {
			return apperr.FromStorage(err)
		}
		if s.maxDevices > 0 && count >= int64(s.maxDevices) {
			return apperr.Conflictf("user %d already has %d devices", userID, count)
		}

		if err := tx.Devices.Create(ctx, device); err != nil {
			if db.IsDuplicate(err) {
				return apperr.Conflictf("device code %s is already registered", code)
			}
			return apperr.FromStorage(err)
		}
		return nil
	})
	if err != nil {
		s.failure(err).
			Int64("user_id", userID).
			Msg("Register device failed")
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	s.log.Info().
		Int64("device_id", device.ID).
		Int64("user_id", userID).
		Msg("Device registered successfully")

	return device, nil
}

// List returns the devices of userID in registration order
func (s *Service) List(ctx context.Context, userID int64) ([]*models.Device, error) {
	devices, err := s.repos.Devices.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", apperr.FromStorage(err))
	}
	return devices, nil
}

// Delete removes a device of userID together with its videos and assignments.
// Its videos leave their playlists first.
func (s *Service) Delete(ctx context.Context, userID, deviceID int64) error {
	err := s.run(ctx, "device.delete", func(tx *db.Repositories) error {
		if err := ownership.NewGuard(tx).RequireDevice(ctx, userID, deviceID); err != nil {
			return err
		}

		videoIDs, err := tx.Videos.IDsByDevice(ctx, deviceID)
		if err != nil {
			return apperr.FromStorage(err)
		}
		if _, err := s.engine.DetachVideos(ctx, tx, videoIDs); err != nil {
			return err
		}
		return apperr.FromStorage(tx.Devices.Delete(ctx, deviceID))
	})
	if err != nil {
		s.failure(err).
			Int64("device_id", deviceID).
			Int64("user_id", userID).
			Msg("Delete device failed")
		return fmt.Errorf("failed to delete device: %w", err)
	}

	s.log.Info().
		Int64("device_id", deviceID).
		Msg("Device deleted successfully")
	return nil
}

// AssignPlaylist makes playlistID the active playlist of deviceID.
// userID must own both.
func (s *Service) AssignPlaylist(ctx context.Context, userID, deviceID, playlistID int64) (*models.DeviceAssignment, error) {
	var assignment *models.DeviceAssignment
	err := s.run(ctx, "device.assign", func(tx *db.Repositories) error {
		guard := ownership.NewGuard(tx)
		if err := guard.RequireDevice(ctx, userID, deviceID); err != nil {
			return err
		}
		if err := guard.RequirePlaylist(ctx, userID, playlistID); err != nil {
			return err
		}

		var err error
		assignment, err = s.assignments.Assign(ctx, tx, deviceID, playlistID)
		return err
	})
	if err != nil {
		s.failure(err).
			Int64("device_id", deviceID).
			Int64("playlist_id", playlistID).
			Int64("user_id", userID).
			Msg("Assign playlist failed")
		return nil, fmt.Errorf("failed to assign playlist: %w", err)
	}

	s.log.Info().
		Int64("device_id", deviceID).
		Int64("playlist_id", playlistID).
		Msg("Playlist assigned to device")

	return assignment, nil
}

// ActivePlaylist returns the active playlist of deviceID, or nil when none is assigned
func (s *Service) ActivePlaylist(ctx context.Context, userID, deviceID int64) (*models.Playlist, error) {
	if err := ownership.NewGuard(s.repos).RequireDevice(ctx, userID, deviceID); err != nil {
		return nil, fmt.Errorf("failed to get active playlist: %w", err)
	}

	active, err := s.assignments.GetActive(ctx, s.repos, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active playlist: %w", err)
	}
	return active, nil
}

// Assignments returns every playlist ever assigned to deviceID, newest first
func (s *Service) Assignments(ctx context.Context, userID, deviceID int64) ([]*models.AssignmentEntry, error) {
	if err := ownership.NewGuard(s.repos).RequireDevice(ctx, userID, deviceID); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	entries, err := s.assignments.ListAssignments(ctx, s.repos, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return entries, nil
}

// Playback resolves a device by its code and returns its active playlist with videos in order
func (s *Service) Playback(ctx context.Context, userID int64, deviceCode string) (*Playback, error) {
	device, err := s.repos.Devices.GetByCode(ctx, deviceCode)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("failed to get playback: %w", apperr.NotFoundf("device code %s", deviceCode))
		}
		return nil, fmt.Errorf("failed to get playback: %w", apperr.FromStorage(err))
	}
	if device.UserID != userID {
		return nil, fmt.Errorf("failed to get playback: %w",
			apperr.Unauthorizedf("device %d is not owned by user %d", device.ID, userID))
	}

	active, err := s.assignments.GetActive(ctx, s.repos, device.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playback: %w", err)
	}
	if active == nil {
		return nil, fmt.Errorf("failed to get playback: %w",
			apperr.NotFoundf("device %d has no active playlist", device.ID))
	}

	videos, err := s.engine.ListOrdered(ctx, s.repos, active.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playback: %w", err)
	}

	s.log.Debug().
		Int64("device_id", device.ID).
		Int64("playlist_id", active.ID).
		Int("video_count", len(videos)).
		Msg("Resolved device playback")

	return &Playback{Device: device, Playlist: active, Videos: videos}, nil
}

func (s *Service) run(ctx context.Context, operation string, fn func(tx *db.Repositories) error) error {
	err := s.db.InTx(ctx, fn)
	if err != nil {
		err = apperr.FromStorage(err)
	}
	metrics.ObserveTx(operation, err)
	return err
}

func (s *Service) failure(err error) *zerolog.Event {
	switch apperr.KindOf(err) {
	case apperr.KindStorageFailure, apperr.KindUnknown:
		return s.log.Error().Err(err)
	default:
		return s.log.Warn().Err(err)
	}
}

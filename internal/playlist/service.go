package playlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stwalsh4118/playcast/internal/apperr"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/logger"
	"github.com/stwalsh4118/playcast/internal/metrics"
	"github.com/stwalsh4118/playcast/internal/models"
	"github.com/stwalsh4118/playcast/internal/ownership"
)

const maxNameLength = 255

// Service handles authorized playlist operations. Each mutation runs as one
// transaction: ownership is checked first, then the engine writes.
type Service struct {
	db     *db.DB
	repos  *db.Repositories
	engine *Engine
}

// NewService creates a new playlist service instance
func NewService(database *db.DB, repos *db.Repositories) *Service {
	return &Service{
		db:     database,
		repos:  repos,
		engine: NewEngine(),
	}
}

// Engine returns the membership engine used by the service
func (s *Service) Engine() *Engine {
	return s.engine
}

// Create creates an empty playlist owned by userID
func (s *Service) Create(ctx context.Context, userID int64, name string) (*models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("failed to create playlist: %w",
			apperr.InvalidInputf("playlist name must be 1..%d characters", maxNameLength))
	}

	exists, err := s.repos.Users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", apperr.FromStorage(err))
	}
	if !exists {
		return nil, fmt.Errorf("failed to create playlist: %w", apperr.NotFoundf("user %d", userID))
	}

	playlist := models.NewPlaylist(userID, name)
	if err := s.repos.Playlists.Create(ctx, playlist); err != nil {
		logger.Log.Error().
			Err(err).
			Int64("user_id", userID).
			Msg("Failed to create playlist in database")
		return nil, fmt.Errorf("failed to create playlist: %w", apperr.FromStorage(err))
	}

	logger.Log.Info().
		Int64("playlist_id", playlist.ID).
		Int64("user_id", userID).
		Str("name", playlist.Name).
		Msg("Playlist created successfully")

	return playlist, nil
}

// List returns the playlists owned by userID
func (s *Service) List(ctx context.Context, userID int64) ([]*models.Playlist, error) {
	playlists, err := s.repos.Playlists.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", apperr.FromStorage(err))
	}
	return playlists, nil
}

// Delete removes a playlist owned by userID; memberships and assignments cascade
func (s *Service) Delete(ctx context.Context, userID, playlistID int64) error {
	err := s.run(ctx, "playlist.delete", func(tx *db.Repositories) error {
		if err := ownership.NewGuard(tx).RequirePlaylist(ctx, userID, playlistID); err != nil {
			return err
		}
		return apperr.FromStorage(tx.Playlists.Delete(ctx, playlistID))
	})
	if err != nil {
		failureEvent(err).
			Int64("playlist_id", playlistID).
			Int64("user_id", userID).
			Msg("Delete playlist failed")
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	logger.Log.Info().
		Int64("playlist_id", playlistID).
		Msg("Playlist deleted successfully")
	return nil
}

// AddVideo inserts videoID into playlistID at position, or appends when position is nil.
// The video must be on one of the caller's devices.
func (s *Service) AddVideo(ctx context.Context, userID, playlistID, videoID int64, position *int) (*models.PlaylistMembership, error) {
	var membership *models.PlaylistMembership
	err := s.run(ctx, "playlist.add_video", func(tx *db.Repositories) error {
		guard := ownership.NewGuard(tx)
		if err := guard.RequirePlaylist(ctx, userID, playlistID); err != nil {
			return err
		}

		video, err := tx.Videos.GetByID(ctx, videoID)
		if err != nil {
			if db.IsNotFound(err) {
				return apperr.NotFoundf("video %d", videoID)
			}
			return apperr.FromStorage(err)
		}
		owns, err := guard.UserOwnsDevice(ctx, userID, video.DeviceID)
		if err != nil {
			return err
		}
		if !owns {
			return apperr.Unauthorizedf("video %d is not on a device of user %d", videoID, userID)
		}

		membership, err = s.engine.InsertAt(ctx, tx, playlistID, videoID, position)
		if err != nil {
			return err
		}
		return apperr.FromStorage(tx.Playlists.Touch(ctx, playlistID))
	})
	if err != nil {
		failureEvent(err).
			Int64("playlist_id", playlistID).
			Int64("video_id", videoID).
			Int64("user_id", userID).
			Msg("Add video to playlist failed")
		return nil, fmt.Errorf("failed to add video to playlist: %w", err)
	}

	logger.Log.Info().
		Int64("playlist_id", playlistID).
		Int64("video_id", videoID).
		Int("position", membership.Position).
		Msg("Video added to playlist successfully")

	return membership, nil
}

// RemoveVideo removes videoID from playlistID and closes the gap
func (s *Service) RemoveVideo(ctx context.Context, userID, playlistID, videoID int64) error {
	err := s.run(ctx, "playlist.remove_video", func(tx *db.Repositories) error {
		if err := ownership.NewGuard(tx).RequirePlaylist(ctx, userID, playlistID); err != nil {
			return err
		}
		if err := s.engine.RemoveVideo(ctx, tx, playlistID, videoID); err != nil {
			return err
		}
		return apperr.FromStorage(tx.Playlists.Touch(ctx, playlistID))
	})
	if err != nil {
		failureEvent(err).
			Int64("playlist_id", playlistID).
			Int64("video_id", videoID).
			Int64("user_id", userID).
			Msg("Remove video from playlist failed")
		return fmt.Errorf("failed to remove video from playlist: %w", err)
	}

	logger.Log.Info().
		Int64("playlist_id", playlistID).
		Int64("video_id", videoID).
		Msg("Video removed from playlist successfully")

	return nil
}

// Reorder replaces the order of playlistID with videoIDs
func (s *Service) Reorder(ctx context.Context, userID, playlistID int64, videoIDs []int64) error {
	err := s.run(ctx, "playlist.reorder", func(tx *db.Repositories) error {
		if err := ownership.NewGuard(tx).RequirePlaylist(ctx, userID, playlistID); err != nil {
			return err
		}
		if err := s.engine.Reorder(ctx, tx, playlistID, videoIDs); err != nil {
			return err
		}
		return apperr.FromStorage(tx.Playlists.Touch(ctx, playlistID))
	})
	if err != nil {
		failureEvent(err).
			Int64("playlist_id", playlistID).
			Int("video_count", len(videoIDs)).
			Int64("user_id", userID).
			Msg("Reorder playlist failed")
		return fmt.Errorf("failed to reorder playlist: %w", err)
	}

	logger.Log.Info().
		Int64("playlist_id", playlistID).
		Int("video_count", len(videoIDs)).
		Msg("Playlist reordered successfully")

	return nil
}

// Videos returns the videos of playlistID in order
func (s *Service) Videos(ctx context.Context, userID, playlistID int64) ([]*models.Video, error) {
	if err := ownership.NewGuard(s.repos).RequirePlaylist(ctx, userID, playlistID); err != nil {
		return nil, fmt.Errorf("failed to get playlist videos: %w", err)
	}

	videos, err := s.engine.ListOrdered(ctx, s.repos, playlistID)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Int64("playlist_id", playlistID).
			Msg("Failed to list playlist videos")
		return nil, fmt.Errorf("failed to get playlist videos: %w", err)
	}

	logger.Log.Debug().
		Int64("playlist_id", playlistID).
		Int("video_count", len(videos)).
		Msg("Retrieved playlist videos")

	return videos, nil
}

// Memberships returns the membership rows of playlistID in order
func (s *Service) Memberships(ctx context.Context, userID, playlistID int64) ([]*models.PlaylistMembership, error) {
	if err := ownership.NewGuard(s.repos).RequirePlaylist(ctx, userID, playlistID); err != nil {
		return nil, fmt.Errorf("failed to get playlist memberships: %w", err)
	}

	memberships, err := s.engine.Memberships(ctx, s.repos, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist memberships: %w", err)
	}
	return memberships, nil
}

// PositionOf returns the position of videoID in playlistID, NotFound when it is not a member
func (s *Service) PositionOf(ctx context.Context, userID, playlistID, videoID int64) (int, error) {
	if err := ownership.NewGuard(s.repos).RequirePlaylist(ctx, userID, playlistID); err != nil {
		return 0, fmt.Errorf("failed to get video position: %w", err)
	}

	position, ok, err := s.engine.PositionOf(ctx, s.repos, playlistID, videoID)
	if err != nil {
		return 0, fmt.Errorf("failed to get video position: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("failed to get video position: %w",
			apperr.NotFoundf("video %d is not in playlist %d", videoID, playlistID))
	}
	return position, nil
}

// run executes fn as one atomic unit and records its outcome
func (s *Service) run(ctx context.Context, operation string, fn func(tx *db.Repositories) error) error {
	err := s.db.InTx(ctx, fn)
	if err != nil {
		err = apperr.FromStorage(err)
	}
	metrics.ObserveTx(operation, err)
	return err
}

// failureEvent logs client mistakes at warn and storage failures at error
func failureEvent(err error) *zerolog.Event {
	switch apperr.KindOf(err) {
	case apperr.KindStorageFailure, apperr.KindUnknown:
		return logger.Log.Error().Err(err)
	default:
		return logger.Log.Warn().Err(err)
	}
}

// Package video replicates a video URL onto every device a user owns and removes it again.
package video

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
	"github.com/stwalsh4118/playcast/internal/playlist"
)

// Coordinator performs the multi-device video writes. Each call is one transaction.
type Coordinator struct {
	db     *db.DB
	repos  *db.Repositories
	engine *playlist.Engine
	log    zerolog.Logger
}

// NewCoordinator creates a new coordinator
func NewCoordinator(database *db.DB, repos *db.Repositories) *Coordinator {
	return &Coordinator{
		db:     database,
		repos:  repos,
		engine: playlist.NewEngine(),
		log:    logger.Component("video"),
	}
}

// RegisterForUser creates one video row with url on every device of userID.
// Returns the created ids in ascending device id order. Nothing persists on failure.
func (c *Coordinator) RegisterForUser(ctx context.Context, userID int64, url string) ([]int64, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("failed to register video: %w", apperr.InvalidInputf("url is required"))
	}

	var created []int64
	err := c.run(ctx, "video.register", func(tx *db.Repositories) error {
		deviceIDs, err := tx.Devices.IDsByUser(ctx, userID)
		if err != nil {
			return apperr.FromStorage(err)
		}
		if len(deviceIDs) == 0 {
			return apperr.ErrNoDevices
		}

		created = make([]int64, 0, len(deviceIDs))
		for _, deviceID := range deviceIDs {
			video := models.NewVideo(deviceID, url)
			if err := tx.Videos.Create(ctx, video); err != nil {
				return apperr.FromStorage(err)
			}
			created = append(created, video.ID)
		}
		return nil
	})
	if err != nil {
		c.failure(err).
			Int64("user_id", userID).
			Str("url", url).
			Msg("Register video across devices failed")
		return nil, fmt.Errorf("failed to register video: %w", err)
	}

	metrics.ObserveRows(metrics.DirectionOut, len(created))
	c.log.Info().
		Int64("user_id", userID).
		Str("url", url).
		Int("device_count", len(created)).
		Msg("Video registered across devices")

	return created, nil
}

// DeleteAcrossUserDevices removes every video sharing the origin video's url from
// the devices of userID, in one statement. The videos leave their playlists first.
// Returns the number of video rows removed.
func (c *Coordinator) DeleteAcrossUserDevices(ctx context.Context, originVideoID, userID int64) (int64, error) {
	var deleted int64
	err := c.run(ctx, "video.delete", func(tx *db.Repositories) error {
		origin, err := tx.Videos.GetByID(ctx, originVideoID)
		if err != nil {
			if db.IsNotFound(err) {
				return apperr.NotFoundf("video %d", originVideoID)
			}
			return apperr.FromStorage(err)
		}

		owner, err := ownership.NewGuard(tx).DeviceOwnerOf(ctx, origin.DeviceID)
		if err != nil {
			return err
		}
		if owner != userID {
			return apperr.Unauthorizedf("video %d is not owned by user %d", originVideoID, userID)
		}

		deviceIDs, err := tx.Devices.IDsByUser(ctx, userID)
		if err != nil {
			return apperr.FromStorage(err)
		}

		videoIDs, err := tx.Videos.IDsByURL(ctx, origin.URL, deviceIDs)
		if err != nil {
			return apperr.FromStorage(err)
		}
		if _, err := c.engine.DetachVideos(ctx, tx, videoIDs); err != nil {
			return err
		}

		deleted, err = tx.Videos.DeleteByURL(ctx, origin.URL, deviceIDs)
		return apperr.FromStorage(err)
	})
	if err != nil {
		c.failure(err).
			Int64("video_id", originVideoID).
			Int64("user_id", userID).
			Msg("Delete video across devices failed")
		return 0, fmt.Errorf("failed to delete video: %w", err)
	}

	metrics.ObserveRows(metrics.DirectionIn, int(deleted))
	c.log.Info().
		Int64("video_id", originVideoID).
		Int64("user_id", userID).
		Int64("deleted", deleted).
		Msg("Video deleted across devices")

	return deleted, nil
}

// FirstDeviceVideos returns the videos of the user's earliest registered device, by id
func (c *Coordinator) FirstDeviceVideos(ctx context.Context, userID int64) ([]*models.Video, error) {
	deviceIDs, err := c.repos.Devices.IDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get first device videos: %w", apperr.FromStorage(err))
	}
	if len(deviceIDs) == 0 {
		return nil, fmt.Errorf("failed to get first device videos: %w", apperr.ErrNoDevices)
	}

	first := deviceIDs[0]
	for _, id := range deviceIDs[1:] {
		if id < first {
			first = id
		}
	}

	videos, err := c.repos.Videos.ListByDevice(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("failed to get first device videos: %w", apperr.FromStorage(err))
	}
	return videos, nil
}

// DeviceVideos returns the videos of one device of userID in registration order
func (c *Coordinator) DeviceVideos(ctx context.Context, userID, deviceID int64) ([]*models.Video, error) {
	if err := ownership.NewGuard(c.repos).RequireDevice(ctx, userID, deviceID); err != nil {
		return nil, fmt.Errorf("failed to list device videos: %w", err)
	}

	videos, err := c.repos.Videos.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device videos: %w", apperr.FromStorage(err))
	}
	return videos, nil
}

// URLOf returns the url of videoID
func (c *Coordinator) URLOf(ctx context.Context, videoID int64) (string, error) {
	video, err := c.repos.Videos.GetByID(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return "", fmt.Errorf("failed to get video url: %w", apperr.NotFoundf("video %d", videoID))
		}
		return "", fmt.Errorf("failed to get video url: %w", apperr.FromStorage(err))
	}
	return video.URL, nil
}

func (c *Coordinator) run(ctx context.Context, operation string, fn func(tx *db.Repositories) error) error {
	err := c.db.InTx(ctx, fn)
	if err != nil {
		err = apperr.FromStorage(err)
	}
	metrics.ObserveTx(operation, err)
	return err
}

func (c *Coordinator) failure(err error) *zerolog.Event {
	switch apperr.KindOf(err) {
	case apperr.KindStorageFailure, apperr.KindUnknown:
		return c.log.Error().Err(err)
	default:
		return c.log.Warn().Err(err)
	}
}

// Package testutil holds database fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/logger"
	"github.com/stwalsh4118/playcast/internal/models"
)

var emailSeq atomic.Int64

// MigrationsPath returns the file:// URL of the repository migrations directory,
// independent of the test's working directory
func MigrationsPath(t *testing.T) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	// internal/testutil -> repository root
	root := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return "file://" + filepath.Join(root, "migrations")
}

// NewDB creates a migrated SQLite database in a temp dir.
// The database is closed when the test ends.
func NewDB(t *testing.T) (*db.DB, *db.Repositories) {
	t.Helper()

	logger.Init("error", false)

	database, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to open test database")

	require.NoError(t, database.Migrate(MigrationsPath(t)), "Failed to run migrations")

	t.Cleanup(func() {
		_ = database.Close()
	})

	return database, db.NewRepositories(database)
}

// DeviceCode returns a unique code matching the default device code pattern
func DeviceCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:24]
}

// CreateUser inserts a user with a unique email
func CreateUser(t *testing.T, repos *db.Repositories) *models.User {
	t.Helper()

	user := models.NewUser(fmt.Sprintf("user%d@example.com", emailSeq.Add(1)), "hash")
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

// CreateDevice inserts a device owned by userID
func CreateDevice(t *testing.T, repos *db.Repositories, userID int64) *models.Device {
	t.Helper()

	device := models.NewDevice(userID, DeviceCode())
	require.NoError(t, repos.Devices.Create(context.Background(), device))
	return device
}

// CreatePlaylist inserts a playlist owned by userID
func CreatePlaylist(t *testing.T, repos *db.Repositories, userID int64, name string) *models.Playlist {
	t.Helper()

	playlist := models.NewPlaylist(userID, name)
	require.NoError(t, repos.Playlists.Create(context.Background(), playlist))
	return playlist
}

// CreateVideo inserts a video on deviceID
func CreateVideo(t *testing.T, repos *db.Repositories, deviceID int64, url string) *models.Video {
	t.Helper()

	video := models.NewVideo(deviceID, url)
	require.NoError(t, repos.Videos.Create(context.Background(), video))
	return video
}

// CreateVideos inserts n videos on deviceID with distinct urls
func CreateVideos(t *testing.T, repos *db.Repositories, deviceID int64, n int) []*models.Video {
	t.Helper()

	videos := make([]*models.Video, n)
	for i := range videos {
		videos[i] = CreateVideo(t, repos, deviceID, fmt.Sprintf("http://cdn.example.com/%d/v%d.mp4", deviceID, i+1))
	}
	return videos
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/playcast/internal/config"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/device"
	"github.com/stwalsh4118/playcast/internal/middleware"
	"github.com/stwalsh4118/playcast/internal/models"
	"github.com/stwalsh4118/playcast/internal/playlist"
	"github.com/stwalsh4118/playcast/internal/testutil"
	"github.com/stwalsh4118/playcast/internal/video"
)

const testTimeout = 5 * time.Second

// setupTestRouter creates a test router with every route registered
func setupTestRouter(t *testing.T) (*gin.Engine, *db.DB, *db.Repositories) {
	t.Helper()

	database, repos := testutil.NewDB(t)

	deviceService, err := device.NewService(database, repos, config.Default().Policy)
	require.NoError(t, err)
	coordinator := video.NewCoordinator(database, repos)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	apiGroup := router.Group("/api")
	SetupHealthRoutes(apiGroup, database)

	authed := apiGroup.Group("", middleware.RequireUser())
	SetupPlaylistRoutes(authed, playlist.NewService(database, repos), testTimeout)
	SetupDeviceRoutes(authed, deviceService, coordinator, testTimeout)
	SetupVideoRoutes(authed, coordinator, testTimeout)

	return router, database, repos
}

// do performs a request as userID and returns the recorder
func do(router *gin.Engine, method, path string, userID int64, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set(middleware.UserIDHeader, fmt.Sprint(userID))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

func TestHealth(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := do(router, http.MethodGet, "/api/health", 0, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	decode(t, w, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "healthy", resp.Database)
	assert.Equal(t, config.DriverSQLite, resp.Driver)
}

func TestRoutes_RequireUser(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := do(router, http.MethodGet, "/api/playlists", 0, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlaylistFlow(t *testing.T) {
	router, _, repos := setupTestRouter(t)
	user := testutil.CreateUser(t, repos)
	device := testutil.CreateDevice(t, repos, user.ID)
	videos := testutil.CreateVideos(t, repos, device.ID, 3)

	w := do(router, http.MethodPost, "/api/playlists", user.ID, CreatePlaylistRequest{Name: "Weekend"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Playlist
	decode(t, w, &created)
	base := fmt.Sprintf("/api/playlists/%d", created.ID)

	for _, v := range videos {
		w = do(router, http.MethodPost, base+"/videos", user.ID, AddVideoRequest{VideoID: v.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = do(router, http.MethodPut, base+"/order", user.ID, ReorderPlaylistRequest{
		VideoIDs: []int64{videos[2].ID, videos[0].ID, videos[1].ID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ordered PlaylistVideosResponse
	decode(t, w, &ordered)
	require.Len(t, ordered.Videos, 3)
	assert.Equal(t, videos[2].ID, ordered.Videos[0].ID)

	w = do(router, http.MethodGet, fmt.Sprintf("%s/videos/%d/position", base, videos[1].ID), user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var position PositionResponse
	decode(t, w, &position)
	assert.Equal(t, 3, position.Position)

	w = do(router, http.MethodDelete, fmt.Sprintf("%s/videos/%d", base, videos[2].ID), user.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, base+"/videos", user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &ordered)
	require.Len(t, ordered.Videos, 2)
	assert.Equal(t, videos[0].ID, ordered.Videos[0].ID)
	assert.Equal(t, videos[1].ID, ordered.Videos[1].ID)

	w = do(router, http.MethodGet, "/api/playlists", user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list PlaylistListResponse
	decode(t, w, &list)
	assert.Len(t, list.Playlists, 1)

	w = do(router, http.MethodDelete, base, user.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPlaylistErrors(t *testing.T) {
	router, _, repos := setupTestRouter(t)
	owner := testutil.CreateUser(t, repos)
	stranger := testutil.CreateUser(t, repos)
	device := testutil.CreateDevice(t, repos, owner.ID)
	videos := testutil.CreateVideos(t, repos, device.ID, 2)
	p := testutil.CreatePlaylist(t, repos, owner.ID, "Mine")
	base := fmt.Sprintf("/api/playlists/%d", p.ID)

	w := do(router, http.MethodPost, base+"/videos", owner.ID, AddVideoRequest{VideoID: videos[0].ID})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name   string
		method string
		path   string
		user   int64
		body   interface{}
		status int
		code   string
	}{
		{"duplicate member", http.MethodPost, base + "/videos", owner.ID, AddVideoRequest{VideoID: videos[0].ID}, http.StatusConflict, "conflict"},
		{"position out of range", http.MethodPost, base + "/videos", owner.ID, AddVideoRequest{VideoID: videos[1].ID, Position: intPtr(5)}, http.StatusBadRequest, "invalid_input"},
		{"unknown video", http.MethodPost, base + "/videos", owner.ID, AddVideoRequest{VideoID: 9999}, http.StatusNotFound, "not_found"},
		{"stranger adds", http.MethodPost, base + "/videos", stranger.ID, AddVideoRequest{VideoID: videos[1].ID}, http.StatusForbidden, "unauthorized"},
		{"reorder subset", http.MethodPut, base + "/order", owner.ID, ReorderPlaylistRequest{VideoIDs: []int64{}}, http.StatusBadRequest, "invalid_input"},
		{"remove non member", http.MethodDelete, fmt.Sprintf("%s/videos/%d", base, videos[1].ID), owner.ID, nil, http.StatusNotFound, "not_found"},
		{"bad id", http.MethodGet, "/api/playlists/abc/videos", owner.ID, nil, http.StatusBadRequest, "invalid_request"},
		{"empty name", http.MethodPost, "/api/playlists", owner.ID, CreatePlaylistRequest{Name: ""}, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.method, tt.path, tt.user, tt.body)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var resp ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.code, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestDeviceFlow(t *testing.T) {
	router, _, repos := setupTestRouter(t)
	user := testutil.CreateUser(t, repos)
	other := testutil.CreateUser(t, repos)
	code := testutil.DeviceCode()

	w := do(router, http.MethodPost, "/api/devices", user.ID, RegisterDeviceRequest{DeviceCode: code})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered models.Device
	decode(t, w, &registered)
	base := fmt.Sprintf("/api/devices/%d", registered.ID)

	w = do(router, http.MethodPost, "/api/devices", user.ID, RegisterDeviceRequest{DeviceCode: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, base+"/playlist", user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active ActivePlaylistResponse
	decode(t, w, &active)
	assert.Nil(t, active.Playlist)

	p := testutil.CreatePlaylist(t, repos, user.ID, "Lobby")
	w = do(router, http.MethodPut, base+"/playlist", user.ID, AssignPlaylistRequest{PlaylistID: p.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(router, http.MethodPut, base+"/playlist", other.ID, AssignPlaylistRequest{PlaylistID: p.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodGet, base+"/assignments", user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var assignments AssignmentListResponse
	decode(t, w, &assignments)
	require.Len(t, assignments.Assignments, 1)
	assert.True(t, assignments.Assignments[0].Active)
	assert.Equal(t, p.ID, assignments.Assignments[0].Playlist.ID)

	w = do(router, http.MethodGet, "/api/playback/"+code, user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var playback device.Playback
	decode(t, w, &playback)
	assert.Equal(t, p.ID, playback.Playlist.ID)

	w = do(router, http.MethodGet, "/api/devices", user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var devices DeviceListResponse
	decode(t, w, &devices)
	assert.Len(t, devices.Devices, 1)

	w = do(router, http.MethodDelete, base, other.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(router, http.MethodDelete, base, user.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestVideoFanout(t *testing.T) {
	router, _, repos := setupTestRouter(t)
	user := testutil.CreateUser(t, repos)
	other := testutil.CreateUser(t, repos)

	w := do(router, http.MethodPost, "/api/videos", user.ID, RegisterVideoRequest{URL: "http://x/a.mp4"})
	require.Equal(t, http.StatusBadRequest, w.Code, "no devices yet")
	var errResp ErrorResponse
	decode(t, w, &errResp)
	assert.Equal(t, "invalid_input", errResp.Error)

	first := testutil.CreateDevice(t, repos, user.ID)
	testutil.CreateDevice(t, repos, user.ID)

	w = do(router, http.MethodPost, "/api/videos", user.ID, RegisterVideoRequest{URL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/videos", user.ID, RegisterVideoRequest{URL: "http://x/a.mp4"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered RegisterVideoResponse
	decode(t, w, &registered)
	require.Len(t, registered.VideoIDs, 2)

	w = do(router, http.MethodGet, "/api/videos", user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list VideoListResponse
	decode(t, w, &list)
	require.Len(t, list.Videos, 1)
	assert.Equal(t, first.ID, list.Videos[0].DeviceID)

	w = do(router, http.MethodGet, fmt.Sprintf("/api/devices/%d/videos", first.ID), user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	path := fmt.Sprintf("/api/videos/%d", registered.VideoIDs[0])
	w = do(router, http.MethodDelete, path, other.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodDelete, path, user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted DeleteVideoResponse
	decode(t, w, &deleted)
	assert.Equal(t, int64(2), deleted.Deleted)

	w = do(router, http.MethodDelete, path, user.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func intPtr(i int) *int {
	return &i
}

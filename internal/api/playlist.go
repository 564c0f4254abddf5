package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/playcast/internal/models"
	"github.com/stwalsh4118/playcast/internal/playlist"
)

// Request/Response DTOs

// CreatePlaylistRequest represents a request to create a playlist
type CreatePlaylistRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// AddVideoRequest adds a video to a playlist. Position is 1-based; omitted appends.
type AddVideoRequest struct {
	VideoID  int64 `json:"video_id" binding:"required,gt=0"`
	Position *int  `json:"position,omitempty"`
}

// ReorderPlaylistRequest lists every member video id in the new order
type ReorderPlaylistRequest struct {
	VideoIDs []int64 `json:"video_ids" binding:"required"`
}

// PlaylistListResponse represents a list of playlists
type PlaylistListResponse struct {
	Playlists []*models.Playlist `json:"playlists"`
}

// PlaylistVideosResponse represents the ordered videos of a playlist
type PlaylistVideosResponse struct {
	PlaylistID int64           `json:"playlist_id"`
	Videos     []*models.Video `json:"videos"`
}

// PositionResponse represents the position of one video in a playlist
type PositionResponse struct {
	PlaylistID int64 `json:"playlist_id"`
	VideoID    int64 `json:"video_id"`
	Position   int   `json:"position"`
}

// PlaylistHandler handles playlist-related API requests
type PlaylistHandler struct {
	service *playlist.Service
	timeout time.Duration
}

// NewPlaylistHandler creates a new playlist handler instance
func NewPlaylistHandler(service *playlist.Service, timeout time.Duration) *PlaylistHandler {
	return &PlaylistHandler{service: service, timeout: timeout}
}

// Create handles POST /api/playlists
func (h *PlaylistHandler) Create(c *gin.Context) {
	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	created, err := h.service.Create(ctx, caller(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List handles GET /api/playlists
func (h *PlaylistHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	playlists, err := h.service.List(ctx, caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if playlists == nil {
		playlists = []*models.Playlist{}
	}

	c.JSON(http.StatusOK, PlaylistListResponse{Playlists: playlists})
}

// Delete handles DELETE /api/playlists/:id
func (h *PlaylistHandler) Delete(c *gin.Context) {
	playlistID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.service.Delete(ctx, caller(c), playlistID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Videos handles GET /api/playlists/:id/videos
func (h *PlaylistHandler) Videos(c *gin.Context) {
	playlistID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	videos, err := h.service.Videos(ctx, caller(c), playlistID)
	if err != nil {
		respondError(c, err)
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}

	c.JSON(http.StatusOK, PlaylistVideosResponse{PlaylistID: playlistID, Videos: videos})
}

// AddVideo handles POST /api/playlists/:id/videos
func (h *PlaylistHandler) AddVideo(c *gin.Context) {
	playlistID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AddVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	membership, err := h.service.AddVideo(ctx, caller(c), playlistID, req.VideoID, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, membership)
}

// RemoveVideo handles DELETE /api/playlists/:id/videos/:videoId
func (h *PlaylistHandler) RemoveVideo(c *gin.Context) {
	playlistID, ok := idParam(c, "id")
	if !ok {
		return
	}
	videoID, ok := idParam(c, "videoId")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.service.RemoveVideo(ctx, caller(c), playlistID, videoID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Reorder handles PUT /api/playlists/:id/order
func (h *PlaylistHandler) Reorder(c *gin.Context) {
	playlistID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ReorderPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	userID := caller(c)
	if err := h.service.Reorder(ctx, userID, playlistID, req.VideoIDs); err != nil {
		respondError(c, err)
		return
	}

	videos, err := h.service.Videos(ctx, userID, playlistID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PlaylistVideosResponse{PlaylistID: playlistID, Videos: videos})
}

// Position handles GET /api/playlists/:id/videos/:videoId/position
func (h *PlaylistHandler) Position(c *gin.Context) {
	playlistID, ok := idParam(c, "id")
	if !ok {
		return
	}
	videoID, ok := idParam(c, "videoId")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	position, err := h.service.PositionOf(ctx, caller(c), playlistID, videoID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PositionResponse{
		PlaylistID: playlistID,
		VideoID:    videoID,
		Position:   position,
	})
}

// SetupPlaylistRoutes registers playlist routes on an authenticated group
func SetupPlaylistRoutes(group *gin.RouterGroup, service *playlist.Service, timeout time.Duration) {
	handler := NewPlaylistHandler(service, timeout)

	playlists := group.Group("/playlists")
	playlists.POST("", handler.Create)
	playlists.GET("", handler.List)
	playlists.DELETE("/:id", handler.Delete)
	playlists.GET("/:id/videos", handler.Videos)
	playlists.POST("/:id/videos", handler.AddVideo)
	playlists.DELETE("/:id/videos/:videoId", handler.RemoveVideo)
	playlists.GET("/:id/videos/:videoId/position", handler.Position)
	playlists.PUT("/:id/order", handler.Reorder)
}

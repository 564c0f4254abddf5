package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/playcast/internal/models"
	"github.com/stwalsh4118/playcast/internal/video"
)

// RegisterVideoRequest registers one url on every device of the caller
type RegisterVideoRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// RegisterVideoResponse lists the created video ids in device order
type RegisterVideoResponse struct {
	URL      string  `json:"url"`
	VideoIDs []int64 `json:"video_ids"`
}

// DeleteVideoResponse reports how many device copies were removed
type DeleteVideoResponse struct {
	Deleted int64 `json:"deleted"`
}

// VideoListResponse represents a list of videos
type VideoListResponse struct {
	Videos []*models.Video `json:"videos"`
}

// VideoHandler handles video fan-out and fan-in requests
type VideoHandler struct {
	coordinator *video.Coordinator
	timeout     time.Duration
}

// NewVideoHandler creates a new video handler instance
func NewVideoHandler(coordinator *video.Coordinator, timeout time.Duration) *VideoHandler {
	return &VideoHandler{coordinator: coordinator, timeout: timeout}
}

// Register handles POST /api/videos
func (h *VideoHandler) Register(c *gin.Context) {
	var req RegisterVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	ids, err := h.coordinator.RegisterForUser(ctx, caller(c), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegisterVideoResponse{URL: req.URL, VideoIDs: ids})
}

// Delete handles DELETE /api/videos/:id
func (h *VideoHandler) Delete(c *gin.Context) {
	videoID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	deleted, err := h.coordinator.DeleteAcrossUserDevices(ctx, videoID, caller(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeleteVideoResponse{Deleted: deleted})
}

// List handles GET /api/videos, the videos of the caller's first device
func (h *VideoHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	videos, err := h.coordinator.FirstDeviceVideos(ctx, caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}

	c.JSON(http.StatusOK, VideoListResponse{Videos: videos})
}

// SetupVideoRoutes registers video routes on an authenticated group
func SetupVideoRoutes(group *gin.RouterGroup, coordinator *video.Coordinator, timeout time.Duration) {
	handler := NewVideoHandler(coordinator, timeout)

	videos := group.Group("/videos")
	videos.POST("", handler.Register)
	videos.GET("", handler.List)
	videos.DELETE("/:id", handler.Delete)
}

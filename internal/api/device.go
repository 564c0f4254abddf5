package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/playcast/internal/device"
	"github.com/stwalsh4118/playcast/internal/models"
	"github.com/stwalsh4118/playcast/internal/video"
)

// Request/Response DTOs

// RegisterDeviceRequest represents a request to register a device
type RegisterDeviceRequest struct {
	DeviceCode string `json:"device_code" binding:"required"`
}

// AssignPlaylistRequest makes a playlist the active playlist of a device
type AssignPlaylistRequest struct {
	PlaylistID int64 `json:"playlist_id" binding:"required,gt=0"`
}

// DeviceListResponse represents a list of devices
type DeviceListResponse struct {
	Devices []*models.Device `json:"devices"`
}

// ActivePlaylistResponse holds the active playlist of a device, null when none
type ActivePlaylistResponse struct {
	DeviceID int64            `json:"device_id"`
	Playlist *models.Playlist `json:"playlist"`
}

// AssignmentListResponse lists the assignments of a device, newest first
type AssignmentListResponse struct {
	DeviceID    int64                     `json:"device_id"`
	Assignments []*models.AssignmentEntry `json:"assignments"`
}

// DeviceVideosResponse lists the videos registered on a device
type DeviceVideosResponse struct {
	DeviceID int64           `json:"device_id"`
	Videos   []*models.Video `json:"videos"`
}

// DeviceHandler handles device-related API requests
type DeviceHandler struct {
	service     *device.Service
	coordinator *video.Coordinator
	timeout     time.Duration
}

// NewDeviceHandler creates a new device handler instance
func NewDeviceHandler(service *device.Service, coordinator *video.Coordinator, timeout time.Duration) *DeviceHandler {
	return &DeviceHandler{
		service:     service,
		coordinator: coordinator,
		timeout:     timeout,
	}
}

// Register handles POST /api/devices
func (h *DeviceHandler) Register(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	registered, err := h.service.Register(ctx, caller(c), req.DeviceCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registered)
}

// List handles GET /api/devices
func (h *DeviceHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	devices, err := h.service.List(ctx, caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if devices == nil {
		devices = []*models.Device{}
	}

	c.JSON(http.StatusOK, DeviceListResponse{Devices: devices})
}

// Delete handles DELETE /api/devices/:id
func (h *DeviceHandler) Delete(c *gin.Context) {
	deviceID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.service.Delete(ctx, caller(c), deviceID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignPlaylist handles PUT /api/devices/:id/playlist
func (h *DeviceHandler) AssignPlaylist(c *gin.Context) {
	deviceID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AssignPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	assignment, err := h.service.AssignPlaylist(ctx, caller(c), deviceID, req.PlaylistID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// ActivePlaylist handles GET /api/devices/:id/playlist
func (h *DeviceHandler) ActivePlaylist(c *gin.Context) {
	deviceID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	active, err := h.service.ActivePlaylist(ctx, caller(c), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ActivePlaylistResponse{DeviceID: deviceID, Playlist: active})
}

// Assignments handles GET /api/devices/:id/assignments
func (h *DeviceHandler) Assignments(c *gin.Context) {
	deviceID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	entries, err := h.service.Assignments(ctx, caller(c), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AssignmentListResponse{DeviceID: deviceID, Assignments: entries})
}

// Videos handles GET /api/devices/:id/videos
func (h *DeviceHandler) Videos(c *gin.Context) {
	deviceID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	videos, err := h.coordinator.DeviceVideos(ctx, caller(c), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}

	c.JSON(http.StatusOK, DeviceVideosResponse{DeviceID: deviceID, Videos: videos})
}

// Playback handles GET /api/playback/:code
func (h *DeviceHandler) Playback(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	playback, err := h.service.Playback(ctx, caller(c), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, playback)
}

// SetupDeviceRoutes registers device routes on an authenticated group
func SetupDeviceRoutes(group *gin.RouterGroup, service *device.Service, coordinator *video.Coordinator, timeout time.Duration) {
	handler := NewDeviceHandler(service, coordinator, timeout)

	devices := group.Group("/devices")
	devices.POST("", handler.Register)
	devices.GET("", handler.List)
	devices.DELETE("/:id", handler.Delete)
	devices.PUT("/:id/playlist", handler.AssignPlaylist)
	devices.GET("/:id/playlist", handler.ActivePlaylist)
	devices.GET("/:id/assignments", handler.Assignments)
	devices.GET("/:id/videos", handler.Videos)

	group.GET("/playback/:code", handler.Playback)
}

// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stwalsh4118/playcast/internal/api"
	"github.com/stwalsh4118/playcast/internal/config"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/device"
	"github.com/stwalsh4118/playcast/internal/logger"
	"github.com/stwalsh4118/playcast/internal/middleware"
	"github.com/stwalsh4118/playcast/internal/playlist"
	"github.com/stwalsh4118/playcast/internal/video"
)

// Server represents the HTTP server
type Server struct {
	config          *config.Config
	db              *db.DB
	repos           *db.Repositories
	playlistService *playlist.Service
	deviceService   *device.Service
	coordinator     *video.Coordinator
	router          *gin.Engine
	server          *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) (*Server, error) {
	repos := db.NewRepositories(database)

	deviceService, err := device.NewService(database, repos, cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to create device service: %w", err)
	}

	s := &Server{
		config:          cfg,
		db:              database,
		repos:           repos,
		playlistService: playlist.NewService(database, repos),
		deviceService:   deviceService,
		coordinator:     video.NewCoordinator(database, repos),
	}
	s.setupRouter()

	return s, nil
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(cors.New(corsConfig()))

	if s.config.Metrics.Enabled {
		s.router.GET(s.config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	apiGroup := s.router.Group("/api")
	api.SetupHealthRoutes(apiGroup, s.db)

	timeout := s.config.Server.RequestTimeout
	authed := apiGroup.Group("", middleware.RequireUser())
	api.SetupPlaylistRoutes(authed, s.playlistService, timeout)
	api.SetupDeviceRoutes(authed, s.deviceService, s.coordinator, timeout)
	api.SetupVideoRoutes(authed, s.coordinator, timeout)
}

// corsConfig allows any origin and the headers the API reads
func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, middleware.UserIDHeader, middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	return cfg
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Str("driver", s.db.Driver()).
		Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}

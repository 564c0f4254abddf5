package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stwalsh4118/playcast/internal/config"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/logger"
	"github.com/stwalsh4118/playcast/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", false)
		logger.Log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	if err := run(cfg); err != nil {
		logger.Log.Error().Err(err).Msg("Playcast service stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger.Log.Info().
		Str("driver", cfg.Database.Driver).
		Msg("Playcast service starting")

	database, err := db.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if err := database.Migrate(cfg.Database.MigrationsPath); err != nil {
		return err
	}

	srv, err := server.New(cfg, database)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

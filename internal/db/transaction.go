package db

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/playcast/internal/config"
	"github.com/stwalsh4118/playcast/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithTransaction executes a function within a database transaction
// The transaction is automatically committed if the function returns nil
// or rolled back if the function returns an error or panics.
// A cancelled ctx aborts the running statement, which also rolls back.
func (db *DB) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return fmt.Errorf("transaction error: %w", err)
		}
		return nil
	})
}

// InTx runs fn with a repository set bound to one transaction
func (db *DB) InTx(ctx context.Context, fn func(tx *Repositories) error) error {
	return db.WithTransaction(ctx, func(gtx *gorm.DB) error {
		return fn(NewRepositoriesFor(gtx, db.driver))
	})
}

// lockRow takes a row lock on the given model's primary key for the rest of the transaction.
// SQLite has no row locks; there every transaction already holds the
// database write lock from BEGIN IMMEDIATE, so nothing is issued.
func lockRow(ctx context.Context, conn *gorm.DB, driver string, model interface{}, id int64) error {
	if driver != config.DriverPostgres {
		return nil
	}
	var locked struct{ ID int64 }
	result := conn.WithContext(ctx).
		Model(model).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		Take(&locked)
	if result.Error != nil {
		return MapGormError(result.Error)
	}
	return nil
}

// LockPlaylist serializes membership writers on one playlist
func (r *Repositories) LockPlaylist(ctx context.Context, playlistID int64) error {
	if err := lockRow(ctx, r.conn, r.driver, &models.Playlist{}, playlistID); err != nil {
		return fmt.Errorf("failed to lock playlist %d: %w", playlistID, err)
	}
	return nil
}

// LockDevice serializes assignment writers on one device
func (r *Repositories) LockDevice(ctx context.Context, deviceID int64) error {
	if err := lockRow(ctx, r.conn, r.driver, &models.Device{}, deviceID); err != nil {
		return fmt.Errorf("failed to lock device %d: %w", deviceID, err)
	}
	return nil
}

// LockUser serializes device registration for one user
func (r *Repositories) LockUser(ctx context.Context, userID int64) error {
	if err := lockRow(ctx, r.conn, r.driver, &models.User{}, userID); err != nil {
		return fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	return nil
}

package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stwalsh4118/playcast/internal/config"
	"github.com/stwalsh4118/playcast/internal/logger"
)

// RunMigrations applies the migrations found under migrationsPath for the given driver.
// Each driver keeps its own subdirectory, so for "file://./migrations" the sqlite
// files are read from "file://./migrations/sqlite".
//
// Returns nil when there is nothing left to apply.
func RunMigrations(db *sql.DB, driver, migrationsPath string) error {
	var (
		instance database.Driver
		name     string
		err      error
	)

	switch driver {
	case config.DriverSQLite, "":
		name = "sqlite3"
		instance, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case config.DriverPostgres:
		name = "pgx5"
		instance, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	default:
		return fmt.Errorf("unsupported migration driver: %s", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source := migrationsPath + "/" + dirFor(driver)
	m, err := migrate.NewWithDatabaseInstance(source, name, instance)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		logger.Log.Debug().
			Str("driver", name).
			Uint("version", version).
			Bool("dirty", dirty).
			Msg("Database migrations applied")
	}

	return nil
}

// Migrate runs the migrations for an open DB using its own driver
func (db *DB) Migrate(migrationsPath string) error {
	sqlDB, err := db.GetSQLDB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return RunMigrations(sqlDB, db.driver, migrationsPath)
}

func dirFor(driver string) string {
	if driver == config.DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

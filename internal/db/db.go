package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stwalsh4118/playcast/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// DB wraps a GORM database connection
type DB struct {
	*gorm.DB
	driver string
}

// New opens a database connection for the configured driver and verifies it with a ping
func New(cfg config.DatabaseConfig) (*DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(cfg))
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	// TranslateError surfaces driver constraint errors as gorm.ErrDuplicatedKey
	// and gorm.ErrForeignKeyViolated for both drivers.
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	timeout := cfg.ConnectionTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}
	return &DB{DB: gormDB, driver: driver}, nil
}

// NewSQLite opens a SQLite database file with default settings.
// Example: "./data/playcast.db"
func NewSQLite(dbPath string) (*DB, error) {
	return New(config.DatabaseConfig{
		Driver:            config.DriverSQLite,
		Path:              dbPath,
		ConnectionTimeout: 5 * time.Second,
		BusyTimeout:       5 * time.Second,
		EnableWAL:         true,
	})
}

// sqliteDSN builds the mattn/go-sqlite3 connection string.
// _txlock=immediate makes every transaction take the write lock at BEGIN,
// so two writers on the same playlist or device never interleave.
func sqliteDSN(cfg config.DatabaseConfig) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_txlock=immediate&_busy_timeout=%d", cfg.Path, busy.Milliseconds())
	if cfg.EnableWAL {
		dsn += "&_journal_mode=WAL"
	}
	return dsn
}

// Driver returns the configured driver name
func (db *DB) Driver() string {
	return db.driver
}

// Health checks database connectivity
func (db *DB) Health(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// GetSQLDB returns the underlying sql.DB for migrations
func (db *DB) GetSQLDB() (*sql.DB, error) {
	return db.DB.DB()
}

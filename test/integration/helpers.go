//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/playcast/internal/config"
	"github.com/stwalsh4118/playcast/internal/db"
	"github.com/stwalsh4118/playcast/internal/logger"
	"github.com/stwalsh4118/playcast/internal/middleware"
	"github.com/stwalsh4118/playcast/internal/models"
	"github.com/stwalsh4118/playcast/internal/server"
)

// postgresDSNEnv points the suite at an empty postgres database; unset runs sqlite only
const postgresDSNEnv = "PLAYCAST_TEST_POSTGRES_DSN"

// backend is one database the suite runs against
type backend struct {
	name string
	cfg  func(t *testing.T) config.DatabaseConfig
}

// backends returns sqlite always and postgres when configured
func backends() []backend {
	list := []backend{{
		name: config.DriverSQLite,
		cfg: func(t *testing.T) config.DatabaseConfig {
			cfg := config.Default().Database
			cfg.Path = filepath.Join(t.TempDir(), "integration.db")
			return cfg
		},
	}}

	if dsn := os.Getenv(postgresDSNEnv); dsn != "" {
		list = append(list, backend{
			name: config.DriverPostgres,
			cfg: func(t *testing.T) config.DatabaseConfig {
				cfg := config.Default().Database
				cfg.Driver = config.DriverPostgres
				cfg.DSN = dsn
				return cfg
			},
		})
	}
	return list
}

// migrationsPath returns the repository migrations directory regardless of working directory
func migrationsPath(t *testing.T) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	root := filepath.Dir(filepath.Dir(filepath.Dir(filename))) // test/integration -> root
	return "file://" + filepath.Join(root, "migrations")
}

// harness is a running server over a migrated database
type harness struct {
	t        *testing.T
	database *db.DB
	repos    *db.Repositories
	http     *httptest.Server
}

func newHarness(t *testing.T, b backend) *harness {
	t.Helper()

	logger.Init("error", false)

	cfg := config.Default()
	cfg.Database = b.cfg(t)

	database, err := db.New(cfg.Database)
	require.NoError(t, err, "Failed to open database")
	require.NoError(t, database.Migrate(migrationsPath(t)), "Failed to run migrations")

	srv, err := server.New(cfg, database)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		ts.Close()
		if b.name == config.DriverPostgres {
			// users cascade to every other table
			_ = database.Exec("TRUNCATE users RESTART IDENTITY CASCADE").Error
		}
		_ = database.Close()
	})

	return &harness{
		t:        t,
		database: database,
		repos:    db.NewRepositories(database),
		http:     ts,
	}
}

// user inserts a user directly; accounts are managed outside this service
func (h *harness) user(email string) *models.User {
	h.t.Helper()

	u := models.NewUser(email, "hash")
	require.NoError(h.t, h.repos.Users.Create(context.Background(), u))
	return u
}

// call performs a JSON request as userID and decodes the response into out when non-nil
func (h *harness) call(method, path string, userID int64, body, out interface{}) int {
	h.t.Helper()

	status, err := h.do(method, path, userID, body, out)
	require.NoError(h.t, err)
	return status
}

// do is call without assertions, safe to use from worker goroutines
func (h *harness) do(method, path string, userID int64, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, h.http.URL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, fmt.Sprint(userID))

	resp, err := h.http.Client().Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

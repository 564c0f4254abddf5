package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/playcast/internal/config"
	"github.com/stwalsh4118/playcast/internal/middleware"
	"github.com/stwalsh4118/playcast/internal/testutil"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	database, _ := testutil.NewDB(t)
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := New(cfg, database)
	require.NoError(t, err)
	return srv
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		user   string
		status int
	}{
		{"health is public", "/api/health", "", http.StatusOK},
		{"metrics exposed", "/metrics", "", http.StatusOK},
		{"playlists need a user", "/api/playlists", "", http.StatusUnauthorized},
		{"playlists with user", "/api/playlists", "1", http.StatusOK},
		{"unknown route", "/api/nope", "1", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.user != "" {
				req.Header.Set(middleware.UserIDHeader, tt.user)
			}
			w := httptest.NewRecorder()

			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Metrics.Enabled = false
	})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_InvalidPolicy(t *testing.T) {
	database, _ := testutil.NewDB(t)
	cfg := config.Default()
	cfg.Policy.DeviceCodePattern = "[unclosed"

	_, err := New(cfg, database)

	assert.Error(t, err)
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv := newTestServer(t, nil)

	assert.NoError(t, srv.Shutdown(context.Background()))
}

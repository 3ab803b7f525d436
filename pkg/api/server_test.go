package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/common"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
	"github.com/goran-ethernal/DepositIndexor/pkg/downloader"
)

func noSyncState(context.Context, uint64) (*downloader.SyncState, error) {
	return &downloader.SyncState{}, nil
}

func newTestServer(cfg *config.APIConfig) *Server {
	return NewServer(cfg, store.NewMemoryBackend(), SyncStateReaderFunc(noSyncState), []uint64{1},
		logger.NewNopLogger())
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	cfg := &config.APIConfig{
		Enabled:       true,
		ListenAddress: "127.0.0.1:9090",
		ReadTimeout:   common.Duration{Duration: 5 * time.Second},
		WriteTimeout:  common.Duration{Duration: 10 * time.Second},
		IdleTimeout:   common.Duration{Duration: 60 * time.Second},
	}

	server := newTestServer(cfg)

	require.NotNil(t, server.handler)
	require.NotNil(t, server.log)
	require.Equal(t, "127.0.0.1:9090", server.server.Addr)
	require.Equal(t, 5*time.Second, server.server.ReadTimeout)
	require.Equal(t, 10*time.Second, server.server.WriteTimeout)
	require.Equal(t, 60*time.Second, server.server.IdleTimeout)
}

func TestServer_CORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cors       config.CORSConfig
		wantOrigin string
	}{
		{name: "enabled", cors: config.CORSConfig{Enabled: true, AllowedOrigins: []string{"https://app.example"}},
			wantOrigin: "https://app.example"},
		{name: "disabled", cors: config.CORSConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.APIConfig{Enabled: true, CORS: tt.cors}
			cfg.ApplyDefaults()

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", "https://app.example")
			w := httptest.NewRecorder()
			newTestServer(cfg).Handler().ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServer_Swagger(t *testing.T) {
	t.Parallel()

	cfg := &config.APIConfig{Enabled: true}
	cfg.ApplyDefaults()

	w := httptest.NewRecorder()
	newTestServer(cfg).Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Contains(t, doc, "paths")
}

func TestServer_UnknownRoute(t *testing.T) {
	t.Parallel()

	cfg := &config.APIConfig{Enabled: true}
	cfg.ApplyDefaults()

	w := httptest.NewRecorder()
	newTestServer(cfg).Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/entities", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_Start_Disabled(t *testing.T) {
	t.Parallel()

	cfg := &config.APIConfig{Enabled: false}
	cfg.ApplyDefaults()

	// returns immediately without a cancelled context
	require.NoError(t, newTestServer(cfg).Start(context.Background()))
}

func TestServer_Start_GracefulShutdown(t *testing.T) {
	t.Parallel()

	cfg := &config.APIConfig{Enabled: true, ListenAddress: "127.0.0.1:0"}
	cfg.ApplyDefaults()
	server := newTestServer(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownCtxTimeout + 5*time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_Start_ListenError(t *testing.T) {
	t.Parallel()

	cfg := &config.APIConfig{Enabled: true, ListenAddress: "256.0.0.1:1"}
	cfg.ApplyDefaults()

	err := newTestServer(cfg).Start(context.Background())
	require.ErrorContains(t, err, "failed to listen")
}

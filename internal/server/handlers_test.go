package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/relaychat/internal/chat"
)

// TestHealthHandler tests the health check endpoint.
func TestHealthHandler(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodHead} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/", http.NoBody)
			rr := httptest.NewRecorder()

			HealthHandler(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
			assert.Equal(t, HealthBody, rr.Body.String())
		})
	}
}

// TestTestPageHandler tests the built-in test page.
func TestTestPageHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	TestPageHandler(rr, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html", rr.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rr.Body.String(), "Relay Chat Test"))
}

// TestWebSocketHandlerRejectsNonGet verifies that only GET may upgrade.
func TestWebSocketHandlerRejectsNonGet(t *testing.T) {
	hub := NewHub(chat.NewRelay(chat.Options{}), nil)

	rr := httptest.NewRecorder()
	hub.WebSocketHandler(rr, httptest.NewRequest(http.MethodPost, "/ws", http.NoBody))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

// TestWebSocketHandlerRequiresUpgrade verifies that plain GETs are refused.
func TestWebSocketHandlerRequiresUpgrade(t *testing.T) {
	hub := NewHub(chat.NewRelay(chat.Options{}), nil)

	req := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	req.Header.Set("Origin", testOriginURL)
	rr := httptest.NewRecorder()
	hub.WebSocketHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, hub.ClientCount())
}

// TestSetupRoutes verifies the route table.
func TestSetupRoutes(t *testing.T) {
	hub := NewHub(chat.NewRelay(chat.Options{}), nil)
	mux := SetupRoutes(hub)
	require.NotNil(t, mux)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, HealthBody, rr.Body.String())

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ws", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

// TestCreateServer verifies the HTTP server timeouts.
func TestCreateServer(t *testing.T) {
	mux := http.NewServeMux()
	srv := CreateServer(":8080", mux)

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, mux, srv.Handler)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}

// TestStartAndShutdownServer verifies that a shut down server stops cleanly.
func TestStartAndShutdownServer(t *testing.T) {
	srv := CreateServer("127.0.0.1:0", http.NewServeMux())

	errCh := make(chan error, 1)
	go func() { errCh <- StartServer(srv) }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ShutdownServer(ctx, srv))
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("StartServer did not return after shutdown")
	}
}

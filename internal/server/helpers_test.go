package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/relaychat/internal/chat"
)

const testOriginURL = "http://localhost:8080"

// frame is a decoded server event as seen by a client.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// startTestServer runs a hub behind an httptest server and returns the hub
// and the WebSocket URL. Both are torn down when the test ends.
func startTestServer(t *testing.T, cfg *Config) (*Hub, string) {
	t.Helper()
	if cfg == nil {
		cfg = NewConfig()
		cfg.RateLimit.Burst = 100
	}

	hub := NewHub(chat.NewRelay(cfg.RelayOptions()), cfg)
	go hub.Run()

	return hub, startTestServerWithHub(t, hub)
}

// startTestServerWithHub serves an already running hub and returns the
// WebSocket URL.
func startTestServerWithHub(t *testing.T, hub *Hub) string {
	t.Helper()
	testServer := httptest.NewServer(SetupRoutes(hub))
	t.Cleanup(func() {
		_ = hub.Shutdown(2 * time.Second)
		testServer.Close()
	})

	return "ws" + strings.TrimPrefix(testServer.URL, "http") + "/ws"
}

// connectWebSocket dials url with an allowed Origin header.
func connectWebSocket(url string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	headers.Set("Origin", testOriginURL)

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := connectWebSocket(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

// joinAs dials, joins and drains frames up to the first user list the new
// client receives.
func joinAs(t *testing.T, url, username string, role any) *websocket.Conn {
	t.Helper()
	conn := dial(t, url)
	sendEvent(t, conn, "join", map[string]any{"username": username, "role": role})
	readUntil(t, conn, "userList")
	return conn
}

// readUntil reads frames until one named event arrives, failing the test after
// a short deadline.
func readUntil(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	for {
		var f frame
		err := conn.ReadJSON(&f)
		require.NoError(t, err, "waiting for %q", event)
		if f.Event == event {
			return f
		}
	}
}

// expectNoEvent asserts that no frame named event arrives within wait.
func expectNoEvent(t *testing.T, conn *websocket.Conn, event string, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		require.NotEqual(t, event, f.Event, "unexpected %q frame", event)
	}
}

func decodeMessage(t *testing.T, f frame) chat.ChatMessage {
	t.Helper()
	var msg chat.ChatMessage
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	return msg
}

func decodeUsers(t *testing.T, f frame) []string {
	t.Helper()
	var users []chat.Presence
	require.NoError(t, json.Unmarshal(f.Data, &users))
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names
}

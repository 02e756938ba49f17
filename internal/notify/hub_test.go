package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
	"rideshare/internal/logger"
)

// startHub runs a hub behind a test server. The principal for each
// connection is taken from the user and role query parameters.
func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.NewNop())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		principal := domain.Principal{
			UserID: r.URL.Query().Get("user"),
			Role:   domain.Role(r.URL.Query().Get("role")),
		}
		go NewClient(hub, conn, principal, logger.NewNop()).Serve()
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, user string, role domain.Role) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=" + user + "&role=" + string(role)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ActiveConnections() == n }, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_SendToUser(t *testing.T) {
	hub, srv := startHub(t)
	alice := dial(t, srv, "alice", domain.RoleUser)
	dial(t, srv, "bob", domain.RoleDriver)
	waitForConnections(t, hub, 2)

	sent := hub.SendToUser("alice", Message{Type: "RIDE_ACCEPTED", Data: map[string]string{"rideId": "r1"}})
	assert.Equal(t, 1, sent)

	msg := readMessage(t, alice)
	assert.Equal(t, "RIDE_ACCEPTED", msg.Type)
	assert.Equal(t, map[string]any{"rideId": "r1"}, msg.Data)
}

func TestHub_BroadcastToRole(t *testing.T) {
	hub, srv := startHub(t)
	dial(t, srv, "alice", domain.RoleUser)
	bob := dial(t, srv, "bob", domain.RoleDriver)
	carol := dial(t, srv, "carol", domain.RoleDriver)
	waitForConnections(t, hub, 3)

	sent := hub.BroadcastToRole(domain.RoleDriver, Message{Type: "RIDE_REQUESTED"})
	assert.Equal(t, 2, sent)

	assert.Equal(t, "RIDE_REQUESTED", readMessage(t, bob).Type)
	assert.Equal(t, "RIDE_REQUESTED", readMessage(t, carol).Type)
}

func TestHub_UnregistersClosedConnections(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "alice", domain.RoleUser)
	waitForConnections(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForConnections(t, hub, 0)

	assert.Equal(t, 0, hub.SendToUser("alice", Message{Type: "RIDE_COMPLETED"}))
}

func TestHub_StopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.NewNop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// Unregister after stop must not block.
	hub.Unregister(&Client{send: make(chan []byte)})
	assert.False(t, hub.Register(&Client{send: make(chan []byte)}))
}

package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := strconv.Atoi(r.URL.Query().Get("user"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(NewClient(hub, conn, userID))
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + strconv.Itoa(userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubPublishesToUserRoom(t *testing.T) {
	hub, srv := startHub(t)
	first := dial(t, srv, 7)
	second := dial(t, srv, 7)
	other := dial(t, srv, 8)

	require.Eventually(t, func() bool { return hub.Connections(7) == 2 && hub.Connections(8) == 1 },
		time.Second, 10*time.Millisecond)

	hub.Publish(7, "application.status", map[string]interface{}{"participant_id": 3, "status": "approved"})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var event struct {
			Type    string                 `json:"type"`
			Payload map[string]interface{} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, "application.status", event.Type)
		assert.Equal(t, "approved", event.Payload["status"])
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHubUnregistersClosedConnections(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, 5)
	require.Eventually(t, func() bool { return hub.Connections(5) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections(5) == 0 }, time.Second, 10*time.Millisecond)

	// Публикация без получателей не должна паниковать.
	hub.Publish(5, "message.received", nil)
}

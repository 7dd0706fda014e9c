package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/realtime"
)

func TestServeWsRegistersAuthenticatedUser(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := realtime.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ws := NewWebSocketHandler(hub, []string{"https://hoops.example.com"}, logger)
	srv := httptest.NewServer(middleware.Authenticate(testSecret)(http.HandlerFunc(ws.ServeWs)))
	defer srv.Close()

	s := &testServer{t: t}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + s.token(42)

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://hoops.example.com"}})
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections(42) == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(42, "message.received", map[string]int{"id": 1})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"message.received"`)
}

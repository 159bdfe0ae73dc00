package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *gws.Conn) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zerolog.Nop())
	hub.SetHistoryHandler(func() any { return []string{"earlier"} })
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", hub.HandleWebSocket)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return hub, conn
}

func readMessage(t *testing.T, conn *gws.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_Broadcast(t *testing.T) {
	hub, conn := startHub(t)

	hub.Broadcast("search:started", map[string]string{"query": "Dune"})

	msg := readMessage(t, conn)
	assert.Equal(t, "search:started", msg.Type)
	assert.Equal(t, map[string]any{"query": "Dune"}, msg.Payload)
	assert.NotEmpty(t, msg.Timestamp)
}

func TestHub_History(t *testing.T) {
	_, conn := startHub(t)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageLogsHistory}))

	msg := readMessage(t, conn)
	assert.Equal(t, MessageLogsHistory, msg.Type)
	assert.Equal(t, []any{"earlier"}, msg.Payload)
}

func TestHub_BroadcastWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Broadcast("log:entry", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked with no running hub")
	}
}

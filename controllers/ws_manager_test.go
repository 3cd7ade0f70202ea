package controllers

import (
	"context"
	"encoding/json"
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
)

func newTestHub(t *testing.T, pongTimeout time.Duration) (*WSManager, string) {
	t.Helper()
	m := NewWSManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.PingInterval = 20 * time.Millisecond
	m.PongTimeout = pongTimeout
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go m.Start(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		m.Attach(conn, r.URL.Query().Get("user"), Push{Type: "hello"})
	}))
	t.Cleanup(srv.Close)
	return m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readPush skips heartbeat frames.
func readPush(t *testing.T, conn *websocket.Conn) Push {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		if string(msg) == "ping" {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("pong")))
			continue
		}
		var p Push
		require.NoError(t, json.Unmarshal(msg, &p))
		return p
	}
}

func TestWSManager_InitialThenBroadcast(t *testing.T) {
	m, url := newTestHub(t, time.Second)
	a := dial(t, url+"?user=u1")
	b := dial(t, url+"?user=u1")

	assert.Equal(t, "hello", readPush(t, a).Type)
	assert.Equal(t, "hello", readPush(t, b).Type)
	require.Eventually(t, func() bool { return m.Count() == 2 }, time.Second, 5*time.Millisecond)

	m.Broadcast(PushToast, map[string]string{"message": "ok"})
	assert.Equal(t, PushToast, readPush(t, a).Type)
	assert.Equal(t, PushToast, readPush(t, b).Type)

	a.Close()
	require.Eventually(t, func() bool { return m.Count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWSManager_CommandsReachHandler(t *testing.T) {
	m, url := newTestHub(t, time.Second)
	got := make(chan Command, 1)
	var gotUser string
	m.OnCommand(func(userID string, cmd Command) {
		gotUser = userID
		got <- cmd
	})

	conn := dial(t, url+"?user=u7")
	readPush(t, conn)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"select","conversationId":"c9"}`)))

	select {
	case cmd := <-got:
		assert.Equal(t, "select", cmd.Type)
		assert.Equal(t, "c9", cmd.ConversationID)
		assert.Equal(t, "u7", gotUser)
	case <-time.After(time.Second):
		t.Fatal("command not delivered")
	}
}

func TestWSManager_SilentTabTimesOut(t *testing.T) {
	m, url := newTestHub(t, 30*time.Millisecond)
	conn := dial(t, url)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	require.NoError(t, err)

	require.Eventually(t, func() bool { return m.Count() == 0 }, time.Second, 10*time.Millisecond)
}

package monitoring

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingrisk/logger"
)

func dial(t *testing.T, server *httptest.Server, origin string) (*websocket.Conn, error) {
	t.Helper()
	header := make(map[string][]string)
	if origin != "" {
		header["Origin"] = []string{origin}
	}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), header)
	return conn, err
}

func TestHubBroadcasts(t *testing.T) {
	hub := NewHub(logger.NewNop(), []string{"*"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(hub)
	defer server.Close()

	first, err := dial(t, server, "")
	require.NoError(t, err)
	defer first.Close()
	second, err := dial(t, server, "")
	require.NoError(t, err)
	defer second.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Publish(PredictionServed, map[string]string{"risk": "low"}))

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, PredictionServed, msg.Type)
		assert.JSONEq(t, `{"risk":"low"}`, string(msg.Data))
		assert.NotEmpty(t, msg.ID)
	}

	first.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	hub := NewHub(logger.NewNop(), []string{"https://hotel.example"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(hub)
	defer server.Close()

	_, err := dial(t, server, "https://evil.example")
	assert.Error(t, err)

	conn, err := dial(t, server, "https://hotel.example")
	require.NoError(t, err)
	conn.Close()
}

func TestHubStopsWithContext(t *testing.T) {
	hub := NewHub(logger.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	server := httptest.NewServer(hub)
	defer server.Close()
	conn, err := dial(t, server, "")
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.Clients())
}

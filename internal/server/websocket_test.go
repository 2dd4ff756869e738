package server_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/scrypster/reverie/internal/server"
)

func TestEventHub_BroadcastReachesClient(t *testing.T) {
	hub := server.NewEventHub()
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil) //nolint:staticcheck
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck

	// Give the hub time to register the client.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(map[string]string{
		"event":      "synthesis_complete",
		"thought_id": "thought:abc12345",
	})

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "synthesis_complete")
	assert.Contains(t, string(data), "thought:abc12345")
}

func TestEventHub_BroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := server.NewEventHub()
	go hub.Run()
	defer hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Broadcast(map[string]int{"n": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked with no clients connected")
	}
}

package webapi

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/driftkit/drift/pkg/dirty"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionHubBroadcastsToWebsocketClients(t *testing.T) {
	hub := NewTransitionHub()
	go hub.Run()

	e := echo.New()
	e.GET("/ws/transitions", hub.ServeWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/transitions"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	received := make(chan dirty.Transition, 1)
	go func() {
		var transition dirty.Transition
		if err := conn.ReadJSON(&transition); err == nil {
			received <- transition
		}
	}()

	// Registration races the first publish, so keep publishing until the
	// client hears one.
	deadline := time.After(2 * time.Second)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case transition := <-received:
			assert.Equal(t, "thing-1", transition.EntityUUID)
			assert.Equal(t, "saved", transition.FromState)
			assert.Equal(t, "updated.uncommitted", transition.ToState)
			return

		case <-tick.C:
			hub.Publish(dirty.Transition{
				EntityUUID: "thing-1",
				FromState:  "saved",
				ToState:    "updated.uncommitted",
			})

		case <-deadline:
			t.Fatal("timed out waiting for a broadcast transition")
		}
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	// No Run loop draining the hub; Publish must still return.
	hub := NewTransitionHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(dirty.Transition{EntityUUID: "thing-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no consumer")
	}
}

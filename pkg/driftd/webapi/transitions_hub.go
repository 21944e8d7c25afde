package webapi

import (
	"net/http"

	"github.com/apex/log"
	"github.com/driftkit/drift/pkg/dirty"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// TransitionHub fans tracker transitions out to websocket clients. The tracker
// calls Publish synchronously from inside the entity lock, so Publish never
// blocks: when the hub can't keep up the transition is dropped, clients get a
// best-effort feed, not a durable log.
type TransitionHub struct {
	register   chan *transitionClient
	unregister chan *transitionClient
	broadcast  chan dirty.Transition
	clients    map[*transitionClient]bool
}

type transitionClient struct {
	conn *websocket.Conn
	send chan dirty.Transition
}

func NewTransitionHub() *TransitionHub {
	return &TransitionHub{
		register:   make(chan *transitionClient),
		unregister: make(chan *transitionClient),
		broadcast:  make(chan dirty.Transition, 256),
		clients:    make(map[*transitionClient]bool),
	}
}

func (h *TransitionHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case transition := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- transition:
				default:
					// Channel full, skip this client
					log.Warnf("TransitionHub: dropping transition for slow client")
				}
			}
		}
	}
}

// Publish hands a transition to the hub without blocking the caller.
func (h *TransitionHub) Publish(transition dirty.Transition) {
	select {
	case h.broadcast <- transition:
	default:
		log.Warnf("TransitionHub: broadcast backlog full, dropping transition for %s", transition.EntityUUID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// driftd listens on localhost only
		return true
	},
}

func (h *TransitionHub) ServeWS(ctx echo.Context) error {
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		log.Errorf("TransitionHub upgrade error: %s", err)
		return err
	}

	client := &transitionClient{
		conn: conn,
		send: make(chan dirty.Transition, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump(h)

	return nil
}

func (c *transitionClient) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for transition := range c.send {
		if err := c.conn.WriteJSON(transition); err != nil {
			return
		}
	}
}

// readPump discards anything the client sends; its job is to notice the
// connection closing and unregister.
func (c *transitionClient) readPump(h *TransitionHub) {
	defer func() {
		h.unregister <- c
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

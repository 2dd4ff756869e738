package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
)

// EventHub fans synthesis events out to connected websocket clients. The
// CLI and any web frontend subscribe to learn when a thought's background
// profile synthesis lands.
type EventHub struct {
	clients    map[*wsClient]bool
	broadcast  chan interface{}
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
}

type wsClient struct {
	hub  *EventHub
	conn *websocket.Conn //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	send chan []byte
}

// NewEventHub creates the hub; call Run in a goroutine and Stop on
// shutdown.
func NewEventHub() *EventHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventHub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan interface{}, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes registration and broadcast traffic until Stop.
func (h *EventHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("server: websocket client connected (total: %d)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("server: websocket client disconnected (total: %d)", count)

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("server: failed to marshal websocket event: %v", err)
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Slow client, drop it.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop shuts down the hub and all client connections.
func (h *EventHub) Stop() {
	h.cancel()
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		_ = client.conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck
	}
	h.clients = make(map[*wsClient]bool)
	h.mu.Unlock()
}

// Broadcast sends an event to all clients, dropping it when the channel is
// full rather than blocking a synthesis worker.
func (h *EventHub) Broadcast(event interface{}) {
	select {
	case h.broadcast <- event:
	default:
		log.Println("server: websocket broadcast channel full, dropping event")
	}
}

// ServeHTTP upgrades the connection and starts the pumps.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil) //nolint:staticcheck
	if err != nil {
		log.Printf("server: websocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *wsClient) writePump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message) //nolint:staticcheck
		cancel()
		if err != nil {
			return
		}
	}
}

// readPump drains client messages to detect disconnection.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck
	}()

	for {
		if _, _, err := c.conn.Read(context.Background()); err != nil { //nolint:staticcheck
			return
		}
	}
}

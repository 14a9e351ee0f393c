package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

type delivery struct {
	userID  uuid.UUID
	payload interface{}
}

// Hub tracks one live connection per user and writes pushes to it. A user
// with no live connection simply misses the push; the persisted notification
// remains the record.
type Hub struct {
	clients   map[uuid.UUID]Conn
	clientsMu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx ends. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			log.Printf("Client registered: %s", client.UserID)
			h.clientsMu.Lock()
			if old, ok := h.clients[client.UserID]; ok && old != client.Conn {
				old.Close()
			}
			h.clients[client.UserID] = client.Conn
			h.clientsMu.Unlock()
		case client := <-h.unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			h.clientsMu.Lock()
			if conn, ok := h.clients[client.UserID]; ok && conn == client.Conn {
				delete(h.clients, client.UserID)
			}
			h.clientsMu.Unlock()
		case d := <-h.deliver:
			h.write(d)
		}
	}
}

// Join makes client the live session for its user. It reports false once
// the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave drops client if it is still the user's live session. It returns
// immediately when the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) write(d delivery) {
	h.clientsMu.RLock()
	conn, ok := h.clients[d.userID]
	h.clientsMu.RUnlock()
	if !ok {
		return
	}
	if err := conn.WriteJSON(d.payload); err != nil {
		log.Printf("Error sending push to client %s: %v", d.userID, err)
		conn.Close()
		h.clientsMu.Lock()
		if current, ok := h.clients[d.userID]; ok && current == conn {
			delete(h.clients, d.userID)
		}
		h.clientsMu.Unlock()
	}
}

// Online reports whether userID has a live connection on this instance.
func (h *Hub) Online(userID uuid.UUID) bool {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Send queues payload for userID and reports whether the user had a live
// connection. It never blocks on a slow socket; when the queue is full the
// push is dropped.
func (h *Hub) Send(userID uuid.UUID, payload interface{}) bool {
	if !h.Online(userID) {
		return false
	}
	select {
	case h.deliver <- delivery{userID: userID, payload: payload}:
		return true
	default:
		log.Printf("⚠️ Push queue full, dropping push for %s", userID)
		return false
	}
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for id, conn := range h.clients {
		conn.Close()
		delete(h.clients, id)
	}
}

// Package ws is the sandbox's STOMP broker: clients CONNECT with a bearer
// token, SUBSCRIBE to topics and queues, and SEND to application
// destinations served by registered handlers.
package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/stomp"
)

// Authenticator resolves the bearer token of a CONNECT frame.
type Authenticator func(token string) (models.User, error)

// Guard decides whether user may subscribe to destination.
type Guard func(user models.User, destination string) error

// SendHandler consumes the body of a SEND frame.
type SendHandler func(user models.User, destination string, body []byte) error

type sendRoute struct {
	prefix string
	handle SendHandler
}

// Hub owns the rooms, one per destination, and the live connections.
type Hub struct {
	authenticate Authenticator
	guard        Guard
	upgrader     websocket.Upgrader

	mu       sync.RWMutex
	rooms    map[string]*Room
	clients  map[*Client]struct{}
	handlers []sendRoute
	closed   bool
}

// NewHub builds a broker. Browser origins must be listed in
// allowedOrigins; requests without an Origin header (terminal clients)
// are always accepted.
func NewHub(auth Authenticator, guard Guard, allowedOrigins []string) *Hub {
	h := &Hub{
		authenticate: auth,
		guard:        guard,
		rooms:        make(map[string]*Room),
		clients:      make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
	}}
	return h
}

// Handle routes SEND frames whose destination starts with prefix.
func (h *Hub) Handle(prefix string, fn SendHandler) {
	h.mu.Lock()
	h.handlers = append(h.handlers, sendRoute{prefix: prefix, handle: fn})
	h.mu.Unlock()
}

func (h *Hub) handler(destination string) SendHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.handlers {
		if strings.HasPrefix(destination, r.prefix) {
			return r.handle
		}
	}
	return nil
}

// getRoom returns the destination's room, creating it when asked.
func (h *Hub) getRoom(destination string, create bool) *Room {
	h.mu.RLock()
	r := h.rooms[destination]
	h.mu.RUnlock()
	if r != nil || !create {
		return r
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	if r = h.rooms[destination]; r == nil {
		r = newRoom(destination)
		h.rooms[destination] = r
	}
	return r
}

// Publish sends payload as JSON to every subscriber of destination.
func (h *Hub) Publish(destination string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", destination, err)
	}
	if r := h.getRoom(destination, false); r != nil {
		r.publish(body)
	}
	return nil
}

// ServeHTTP upgrades the request and runs the STOMP session until the
// client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("ws upgrade error: %v", err)
		return
	}
	socket.SetReadLimit(1 << 20)

	c := newClient(h, stomp.Wrap(socket))
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = c.conn.Drop()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	c.readPump(bearer(r.Header.Get(stomp.HeaderAuthorization)))

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Close stops every room and drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	rooms := h.rooms
	clients := h.clients
	h.rooms = make(map[string]*Room)
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for _, r := range rooms {
		r.stop()
	}
	for c := range clients {
		_ = c.conn.Drop()
	}
}

func bearer(header string) string {
	token, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/gesturetube/internal/app"
	"github.com/ayusman/gesturetube/internal/log"
	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 16
	writeWait    = 5 * time.Second
)

// ErrNoClients is returned by Broadcast when nobody is listening.
var ErrNoClients = errors.New("no event clients connected")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StateEvent carries a session snapshot to event clients.
type StateEvent struct {
	Event    string       `json:"event"`
	Snapshot app.Snapshot `json:"snapshot"`
}

// LoadEvent tells the embedded player page which video to show.
type LoadEvent struct {
	Event    string `json:"event"`
	EmbedURL string `json:"embedUrl"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans JSON events out to WebSocket clients on /api/events. It carries
// session snapshots to observers and command messages to the embedded player.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	greet   []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Broadcast sends v as JSON to every client. Slow clients miss messages
// rather than stall the sender.
func (h *Hub) Broadcast(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return ErrNoClients
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Debug("event client too slow, message dropped")
		}
	}
	return nil
}

// Observe publishes a session snapshot.
func (h *Hub) Observe(s app.Snapshot) {
	h.Broadcast(StateEvent{Event: "state", Snapshot: s})
}

// Load switches the embedded player to embedURL and remembers it for
// clients that connect later.
func (h *Hub) Load(embedURL string) error {
	ev := LoadEvent{Event: "load", EmbedURL: embedURL}
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.greet = msg
	h.mu.Unlock()

	if err := h.Broadcast(ev); err != nil && !errors.Is(err, ErrNoClients) {
		return err
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade error", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	if h.greet != nil {
		c.send <- h.greet
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		close(c.send)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

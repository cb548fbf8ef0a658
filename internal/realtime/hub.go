// Package realtime is the push side of the delivery channel: a websocket
// hub addressable by user id. Delivery is best-effort; a slow or gone
// connection drops frames, and clients recover from the stores.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Envelope is the wire frame for every pushed event.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type Hub struct {
	logger *slog.Logger

	register   chan *client
	unregister chan *client
	deliver    chan delivery
	broadcast  chan []byte

	mu    sync.RWMutex
	users map[string]map[*client]struct{}
}

type delivery struct {
	userID string
	frame  []byte
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *client),
		unregister: make(chan *client),
		deliver:    make(chan delivery, 256),
		broadcast:  make(chan []byte, 64),
		users:      make(map[string]map[*client]struct{}),
	}
}

// Run owns the connection registry. Call it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			conns := h.users[c.userID]
			if conns == nil {
				conns = make(map[*client]struct{})
				h.users[c.userID] = conns
			}
			conns[c] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("ws connected", "user_id", c.userID, "conn_id", c.id)

		case c := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.users[c.userID]; ok {
				if _, ok := conns[c]; ok {
					delete(conns, c)
					close(c.send)
					if len(conns) == 0 {
						delete(h.users, c.userID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("ws disconnected", "user_id", c.userID, "conn_id", c.id)

		case d := <-h.deliver:
			h.mu.RLock()
			for c := range h.users[d.userID] {
				c.push(d.frame)
			}
			h.mu.RUnlock()

		case frame := <-h.broadcast:
			h.mu.RLock()
			for _, conns := range h.users {
				for c := range conns {
					c.push(frame)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NotifyUser pushes the event to every active connection of userID and
// returns how many connections it was queued to. Zero means the user is
// offline; persisted state is the caller's safety net.
func (h *Hub) NotifyUser(userID, event string, payload any) int {
	frame, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("ws marshal event failed", "event", event, "err", err)
		return 0
	}

	h.mu.RLock()
	conns := h.users[userID]
	n := len(conns)
	h.mu.RUnlock()
	if n == 0 {
		return 0
	}

	h.deliver <- delivery{userID: userID, frame: frame}
	return n
}

// Broadcast pushes the event to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	frame, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("ws marshal event failed", "event", event, "err", err)
		return
	}
	h.broadcast <- frame
}

// ConnectionCount reports active connections for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

package notify

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/identity"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub pushes case events to connected users over websockets
type Hub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

// NewHub returns a hub with no connections
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*websocket.Conn)}
}

// ServeWS upgrades an authenticated request and registers the caller's connection
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade error", "error", err)
		return
	}

	userID := caller.UserID
	h.mutex.Lock()
	if old, ok := h.clients[userID]; ok {
		old.Close()
	}
	h.clients[userID] = conn
	h.mutex.Unlock()
	zap.S().Infow("user connected to case events", "userId", userID)

	// keep reading until the client goes away
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.remove(userID, conn)
	zap.S().Infow("user disconnected from case events", "userId", userID)
}

// Notify pushes the event to every connected recipient
func (h *Hub) Notify(_ context.Context, e Event) {
	for _, r := range e.Recipients {
		h.mutex.Lock()
		conn, exists := h.clients[r.UserID]
		h.mutex.Unlock()
		if !exists {
			continue
		}
		h.writeMu.Lock()
		err := conn.WriteJSON(map[string]interface{}{
			"event": e.Type,
			"data":  e,
		})
		h.writeMu.Unlock()
		if err != nil {
			zap.S().Warnw("error sending case event", "userId", r.UserID, "error", err)
			h.remove(r.UserID, conn)
		}
	}
}

// Connected returns the number of connected users
func (h *Hub) Connected() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(userID string, conn *websocket.Conn) {
	h.mutex.Lock()
	if h.clients[userID] == conn {
		delete(h.clients, userID)
	}
	h.mutex.Unlock()
	conn.Close()
}

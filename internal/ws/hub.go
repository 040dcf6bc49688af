package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rental-service/internal/models"
	"rental-service/internal/observability"
)

// Hub maintains active websocket connections. Every connection lives in
// its user's room for notifications; joining a chat session moves the
// connection between session rooms, one session per connection at a
// time.
type Hub struct {
	userRooms    map[int]map[*websocket.Conn]bool
	sessionRooms map[int]map[*websocket.Conn]bool
	connSessions map[*websocket.Conn]int
	connInfo     map[*websocket.Conn]ConnInfo
	writeMus     map[*websocket.Conn]*sync.Mutex
	mu           sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		userRooms:    make(map[int]map[*websocket.Conn]bool),
		sessionRooms: make(map[int]map[*websocket.Conn]bool),
		connSessions: make(map[*websocket.Conn]int),
		connInfo:     make(map[*websocket.Conn]ConnInfo),
		writeMus:     make(map[*websocket.Conn]*sync.Mutex),
	}
}

// AddClient registers a connection in its user's room.
func (h *Hub) AddClient(userID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.userRooms[userID]; !ok {
		h.userRooms[userID] = make(map[*websocket.Conn]bool)
	}
	h.userRooms[userID][conn] = true
	h.connInfo[conn] = info
	h.writeMus[conn] = &sync.Mutex{}
}

// RemoveClient drops a connection from every room it belongs to.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	info, ok := h.connInfo[conn]
	if ok {
		if conns, exists := h.userRooms[info.UserID]; exists {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.userRooms, info.UserID)
			}
		}
	}
	if sessionID, joined := h.connSessions[conn]; joined {
		if conns, exists := h.sessionRooms[sessionID]; exists {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.sessionRooms, sessionID)
			}
		}
		delete(h.connSessions, conn)
	}
	delete(h.connInfo, conn)
	delete(h.writeMus, conn)
}

// JoinSession moves the connection into a chat session room, leaving
// whatever session it was in before.
func (h *Hub) JoinSession(sessionID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, joined := h.connSessions[conn]; joined {
		if prev == sessionID {
			return
		}
		if conns, exists := h.sessionRooms[prev]; exists {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.sessionRooms, prev)
			}
		}
	}
	if _, ok := h.sessionRooms[sessionID]; !ok {
		h.sessionRooms[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.sessionRooms[sessionID][conn] = true
	h.connSessions[conn] = sessionID
}

// BroadcastToSession delivers an event to every connection joined to a
// chat session.
func (h *Hub) BroadcastToSession(sessionID int, event models.SocketEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.sessionRooms[sessionID]))
	for conn := range h.sessionRooms[sessionID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		h.write(conn, payload)
	}
}

// NotifyUser delivers an event to every connection of a user.
func (h *Hub) NotifyUser(userID int, event models.SocketEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.userRooms[userID]))
	for conn := range h.userRooms[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		h.write(conn, payload)
	}
}

// NotifyRental pushes a rental lifecycle notification to a user.
func (h *Hub) NotifyRental(userID int, n models.RentalNotification) {
	event, err := models.NewSocketEvent(models.EventRentalNotification, n)
	if err != nil {
		log.Printf("rental notification encode error: %v", err)
		return
	}
	h.NotifyUser(userID, event)
	observability.IncWSEvent("user", "rental_notification")
}

// write serializes writers per connection; gorilla/websocket allows at
// most one concurrent writer, and handler and cron goroutines can push
// to the same connection at once.
func (h *Hub) write(conn *websocket.Conn, payload []byte) {
	h.mu.RLock()
	writeMu, ok := h.writeMus[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, payload)
	writeMu.Unlock()
	if err != nil {
		log.Printf("websocket write error: %v", err)
		conn.Close()
		h.publishWSError(conn, err)
		h.RemoveClient(conn)
	}
}

func (h *Hub) publishWSError(conn *websocket.Conn, err error) {
	h.mu.RLock()
	info, ok := h.connInfo[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.users",
		observability.NewEnvelope("ws_events", "ws_error", payload), headers)
	observability.IncWSEvent("user", "ws_error")
}

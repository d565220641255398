package handlers

import (
	"sync"

	"hrms-backend/internal/utils"

	"github.com/gofiber/websocket/v2"
)

// Connection is one live websocket with its owner's identity. Writes go
// through Send, which serializes them; fiber's websocket conns are not safe
// for concurrent writes.
type Connection struct {
	ID       string
	UserID   int
	Username string

	ws      *websocket.Conn
	writeMu sync.Mutex
}

// Send writes a JSON payload to the connection.
func (c *Connection) Send(payload interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return utils.SendJSON(c.ws, payload)
}

// Hub tracks live connections and which conversation each one has open, and
// fans persisted chat events back out to subscribed clients.
type Hub struct {
	mu sync.RWMutex
	// conversation key -> connection id -> connection
	conversations map[string]map[string]*Connection
	conns         map[string]*Connection
}

// Manager is the process-wide hub.
var Manager = &Hub{
	conversations: make(map[string]map[string]*Connection),
	conns:         make(map[string]*Connection),
}

// Register stores a new connection. Returns the Connection and whether this
// is the user's first live connection (they just came online).
func (h *Hub) Register(connID string, userID int, username string, ws *websocket.Conn) (*Connection, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	wasOnline := h.userOnlineLocked(userID)
	conn := &Connection{ID: connID, UserID: userID, Username: username, ws: ws}
	h.conns[connID] = conn
	return conn, !wasOnline
}

// Unregister drops a connection from the hub and every conversation it had
// open. Returns the user id and whether this was their last connection.
func (h *Hub) Unregister(connID string) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return 0, false
	}

	for key, members := range h.conversations {
		if _, ok := members[connID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.conversations, key)
			}
		}
	}
	delete(h.conns, connID)

	return conn.UserID, !h.userOnlineLocked(conn.UserID)
}

// Join subscribes a connection to a conversation's events.
func (h *Hub) Join(key, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	if h.conversations[key] == nil {
		h.conversations[key] = make(map[string]*Connection)
	}
	h.conversations[key][connID] = conn
}

// Leave unsubscribes a connection from a conversation.
func (h *Hub) Leave(key, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.conversations[key]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.conversations, key)
		}
	}
}

// Broadcast sends a payload to every connection subscribed to the
// conversation, except excludeConnID if non-empty.
func (h *Hub) Broadcast(key string, payload interface{}, excludeConnID string) {
	h.mu.RLock()
	members := make([]*Connection, 0, len(h.conversations[key]))
	for id, conn := range h.conversations[key] {
		if id == excludeConnID {
			continue
		}
		members = append(members, conn)
	}
	h.mu.RUnlock()

	// Write outside the hub lock; Send serializes per connection.
	for _, conn := range members {
		utils.LogError(conn.Send(payload), "broadcast")
	}
}

// BroadcastToAll sends a payload to every live connection.
func (h *Hub) BroadcastToAll(payload interface{}) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		utils.LogError(conn.Send(payload), "broadcast all")
	}
}

// SendToUser sends a payload to all of a user's connections.
func (h *Hub) SendToUser(userID int, payload interface{}) {
	h.mu.RLock()
	var conns []*Connection
	for _, conn := range h.conns {
		if conn.UserID == userID {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		utils.LogError(conn.Send(payload), "send to user")
	}
}

// IsUserConnected reports whether the user has any live connection.
func (h *Hub) IsUserConnected(userID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userOnlineLocked(userID)
}

// IsUserInConversation reports whether any of the user's connections has the
// conversation open.
func (h *Hub) IsUserInConversation(userID int, key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.conversations[key] {
		if conn.UserID == userID {
			return true
		}
	}
	return false
}

func (h *Hub) userOnlineLocked(userID int) bool {
	for _, conn := range h.conns {
		if conn.UserID == userID {
			return true
		}
	}
	return false
}

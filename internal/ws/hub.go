package ws

import (
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"chatapp/internal/domain"
)

// client is the hub's per-connection bookkeeping: the connection itself plus
// the set of chat rooms it has joined. Exclusively owned by the hub.
type client struct {
	conn   Conn
	rooms  map[string]struct{}
	closed bool
}

// Hub manages connection lifecycle: admission, room membership, and teardown.
// It composes the presence registry and the room tracker and is the only
// component that resolves connection ids back to user identities.
type Hub struct {
	log      *slog.Logger
	presence *Presence
	rooms    *Rooms

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:      log,
		presence: NewPresence(),
		rooms:    NewRooms(),
		clients:  make(map[string]*client),
	}
}

// Admit registers an authenticated connection. A connection without a
// resolved user identity is refused.
func (h *Hub) Admit(conn Conn) error {
	if conn.UserID() == "" {
		return domain.ErrAuthentication
	}

	h.mu.Lock()
	h.clients[conn.ID()] = &client{
		conn:  conn,
		rooms: make(map[string]struct{}),
	}
	h.mu.Unlock()

	if first := h.presence.Add(conn.UserID(), conn.ID()); first {
		h.broadcastOnline()
	}
	return nil
}

// Disconnect tears a connection down: every joined room is left, presence is
// deregistered, and local bookkeeping is dropped. Safe to call more than
// once per connection; only the first call has any effect.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	cl, ok := h.clients[connID]
	if !ok || cl.closed {
		h.mu.Unlock()
		return
	}
	cl.closed = true
	joined := lo.Keys(cl.rooms)
	delete(h.clients, connID)
	h.mu.Unlock()

	for _, chatID := range joined {
		h.rooms.Leave(chatID, connID)
	}
	if last := h.presence.Remove(cl.conn.UserID(), connID); last {
		h.broadcastOnline()
	}
	_ = cl.conn.Close()
}

// JoinRoom marks the connection as actively viewing chatID.
func (h *Hub) JoinRoom(connID, chatID string) {
	h.mu.Lock()
	cl, ok := h.clients[connID]
	if !ok || cl.closed {
		h.mu.Unlock()
		return
	}
	cl.rooms[chatID] = struct{}{}
	h.mu.Unlock()

	h.rooms.Join(chatID, connID)
}

// LeaveRoom removes the connection from chatID's viewer set. Other
// connections of the same user are unaffected.
func (h *Hub) LeaveRoom(connID, chatID string) {
	h.mu.Lock()
	if cl, ok := h.clients[connID]; ok {
		delete(cl.rooms, chatID)
	}
	h.mu.Unlock()

	h.rooms.Leave(chatID, connID)
}

// IsViewing reports whether at least one of userID's connections is
// currently viewing chatID. Membership is stored per connection, so this
// resolves connection ownership through the client table.
func (h *Hub) IsViewing(chatID, userID string) bool {
	for _, connID := range h.rooms.Viewers(chatID) {
		h.mu.RLock()
		cl := h.clients[connID]
		h.mu.RUnlock()
		if cl != nil && cl.conn.UserID() == userID {
			return true
		}
	}
	return false
}

// Online returns the current online-user set.
func (h *Hub) Online() []string {
	return h.presence.Online()
}

// UserConns returns every live connection owned by userID.
func (h *Hub) UserConns(userID string) []Conn {
	connIDs := h.presence.Conns(userID)

	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]Conn, 0, len(connIDs))
	for _, id := range connIDs {
		if cl, ok := h.clients[id]; ok {
			conns = append(conns, cl.conn)
		}
	}
	return conns
}

// RoomConns returns every connection currently viewing chatID, regardless of
// which user owns it.
func (h *Hub) RoomConns(chatID string) []Conn {
	viewerIDs := h.rooms.Viewers(chatID)

	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]Conn, 0, len(viewerIDs))
	for _, id := range viewerIDs {
		if cl, ok := h.clients[id]; ok {
			conns = append(conns, cl.conn)
		}
	}
	return conns
}

// EmitToUsers sends the event to all connections of the given users. Emit
// failures are logged and otherwise ignored.
func (h *Hub) EmitToUsers(userIDs []string, event any) {
	for _, uid := range userIDs {
		for _, conn := range h.UserConns(uid) {
			h.emit(conn, event)
		}
	}
}

// broadcastOnline pushes the updated online-user set to every connection.
func (h *Hub) broadcastOnline() {
	event := OnlineUsers(h.presence.Online())

	h.mu.RLock()
	conns := make([]Conn, 0, len(h.clients))
	for _, cl := range h.clients {
		conns = append(conns, cl.conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.emit(conn, event)
	}
}

func (h *Hub) emit(conn Conn, event any) {
	if err := conn.Send(event); err != nil {
		h.log.Warn("ws: emit failed", "conn", conn.ID(), "user", conn.UserID(), "err", err)
	}
}

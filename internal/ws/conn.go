package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is one live transport-level session from a client. The registries and
// the fan-out engine only ever see this capability, never the underlying
// socket library.
type Conn interface {
	ID() string
	UserID() string
	Send(v any) error
	Close() error
}

// socketConn wraps a gorilla connection. Writes are serialized with a mutex
// because gorilla connections do not support concurrent writers.
type socketConn struct {
	id     string
	userID string

	mu   sync.Mutex
	sock *websocket.Conn
}

func newSocketConn(userID string, sock *websocket.Conn) *socketConn {
	return &socketConn{
		id:     uuid.NewString(),
		userID: userID,
		sock:   sock,
	}
}

func (c *socketConn) ID() string     { return c.id }
func (c *socketConn) UserID() string { return c.userID }

func (c *socketConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(v)
}

func (c *socketConn) Close() error {
	return c.sock.Close()
}

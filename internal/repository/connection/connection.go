package connection

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

// Conn is a registered client connection. Writes are serialized through a
// per-connection mutex since gorilla allows a single concurrent writer.
type Conn struct {
	UserId string

	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(ws *websocket.Conn, userId string) *Conn {
	return &Conn{
		UserId: userId,
		ws:     ws,
	}
}

func (c *Conn) WS() *websocket.Conn {
	return c.ws
}

func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ws.WriteJSON(v)
}

// Close sends a close frame with the given code and closes the underlying
// connection. Errors are ignored since the peer may already be gone.
func (c *Conn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	c.ws.Close()
}

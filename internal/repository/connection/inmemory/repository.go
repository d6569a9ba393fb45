package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/connection"
)

// repo is the in-memory connection registry: a dual map between raw
// websocket connections and user ids, guarded by a single RWMutex.
type repo struct {
	connList map[*websocket.Conn]*connection.Conn
	idList   map[string]*connection.Conn
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]*connection.Conn),
		idList:   make(map[string]*connection.Conn),
	}
}

func (r *repo) Add(ws *websocket.Conn, userId string) (*connection.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[ws] != nil || r.idList[userId] != nil {
		return nil, connection.ErrAlreadyExists
	}

	conn := connection.NewConn(ws, userId)
	r.connList[ws] = conn
	r.idList[userId] = conn

	return conn, nil
}

func (r *repo) RemoveByWS(ws *websocket.Conn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connList[ws]
	if !ok {
		return "", connection.ErrNotFound
	}

	delete(r.connList, ws)
	delete(r.idList, conn.UserId)

	return conn.UserId, nil
}

func (r *repo) RemoveByUserId(userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[userId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn.WS())
	delete(r.idList, userId)

	return nil
}

func (r *repo) GetConn(userId string) (*connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[userId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) GetUserId(ws *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connList[ws]
	if !ok {
		return "", connection.ErrNotFound
	}

	return conn.UserId, nil
}

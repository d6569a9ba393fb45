package inmemory

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	repo := NewRepo()
	ws1 := &websocket.Conn{}
	ws2 := &websocket.Conn{}

	conn1, err := repo.Add(ws1, "user1")
	require.NoError(t, err)
	assert.Equal(t, "user1", conn1.UserId)

	// both keys are unique
	_, err = repo.Add(ws1, "user2")
	assert.ErrorIs(t, err, connection.ErrAlreadyExists)
	_, err = repo.Add(ws2, "user1")
	assert.ErrorIs(t, err, connection.ErrAlreadyExists)

	_, err = repo.Add(ws2, "user2")
	require.NoError(t, err)

	got, err := repo.GetConn("user1")
	require.NoError(t, err)
	assert.Same(t, conn1, got)

	userId, err := repo.GetUserId(ws2)
	require.NoError(t, err)
	assert.Equal(t, "user2", userId)

	// removal by either key clears both directions
	userId, err = repo.RemoveByWS(ws1)
	require.NoError(t, err)
	assert.Equal(t, "user1", userId)
	_, err = repo.GetConn("user1")
	assert.ErrorIs(t, err, connection.ErrNotFound)

	require.NoError(t, repo.RemoveByUserId("user2"))
	_, err = repo.GetUserId(ws2)
	assert.ErrorIs(t, err, connection.ErrNotFound)

	assert.ErrorIs(t, repo.RemoveByUserId("user2"), connection.ErrNotFound)
	_, err = repo.RemoveByWS(ws1)
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

package controller

import (
	"context"

	"github.com/watchparty/server/internal/repository/connection"
)

type contextKey int

const (
	userIdCtxKey contextKey = iota
	connCtxKey
)

func (c *controller) getUserIdFromCtx(ctx context.Context) string {
	userId, ok := ctx.Value(userIdCtxKey).(string)
	if !ok {
		return ""
	}

	return userId
}

func (c *controller) getConnFromCtx(ctx context.Context) *connection.Conn {
	conn, ok := ctx.Value(connCtxKey).(*connection.Conn)
	if !ok {
		return nil
	}

	return conn
}

package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ctxlogger"
)

// handleWS upgrades the request and serves the event loop for one client.
// The connection gets a fresh id that doubles as the peer id for
// signaling. Cleanup runs synchronously with the read loop exiting.
func (c *controller) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer ws.Close()

	userId := uuid.NewString()
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("user_id", userId))

	conn, err := c.roomService.ConnectUser(ctx, &room.ConnectUserParams{
		Conn:   ws,
		UserId: userId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to connect user", "error", err)
		return
	}

	defer func() {
		resp, err := c.roomService.DisconnectUser(ctx, &room.DisconnectUserParams{UserId: userId})
		if err != nil {
			c.logger.InfoContext(ctx, "failed to disconnect user", "error", err)
			return
		}

		c.broadcastUserLeft(ctx, resp.Left)
	}()

	ctx = context.WithValue(ctx, userIdCtxKey, userId)
	ctx = context.WithValue(ctx, connCtxKey, conn)

	if err := c.wsmux.ServeConn(ctx, ws); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

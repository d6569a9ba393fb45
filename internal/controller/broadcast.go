package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/connection"
	roomService "github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/validator"
	"github.com/watchparty/server/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type EmptyInput struct{}

// writeTo is best-effort: a vanished connection is a disconnect race, not
// an error. Nil-safe.
func (c *controller) writeTo(ctx context.Context, conn *connection.Conn, out *Output) {
	if conn == nil {
		return
	}

	if err := conn.WriteJSON(out); err != nil {
		c.logger.DebugContext(ctx, "failed to write to connection", "user_id", conn.UserId, "error", err)
	}
}

func (c *controller) broadcast(ctx context.Context, conns []*connection.Conn, out *Output) {
	for _, conn := range conns {
		c.writeTo(ctx, conn, out)
	}
}

// broadcastUserLeft announces a departure to the room the user left,
// including the admin handover when the admin was the one leaving.
// Nil-safe: a user in no room produces no events.
func (c *controller) broadcastUserLeft(ctx context.Context, left *roomService.LeftRoom) {
	if left == nil {
		return
	}

	c.broadcast(ctx, left.Conns, &Output{
		Type: "user_left",
		Payload: map[string]any{
			"username":  left.User.Username,
			"userCount": left.UserCount,
			"users":     left.Users,
		},
	})

	if left.NewAdminId != "" {
		c.broadcast(ctx, left.Conns, &Output{
			Type:    "admin_updated",
			Payload: map[string]any{"adminId": left.NewAdminId},
		})
	}
}

type validationError struct {
	errs []validator.ValidationError
}

func (e *validationError) Error() string {
	if len(e.errs) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

func (c *controller) validateInput(input any) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return &validationError{errs: errs}
	}

	return nil
}

// handleWSError turns handler errors into protocol behavior: requests the
// state machine refused get an explicit action_rejected back to the
// sender, stale references are dropped silently, everything else is
// logged.
func (c *controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) {
	action := wsrouter.GetMessageTypeFromCtx(ctx)

	var vErr *validationError
	switch {
	case errors.As(err, &vErr),
		errors.Is(err, roomService.ErrPermissionDenied),
		errors.Is(err, roomService.ErrInvalidIndex),
		errors.Is(err, roomService.ErrInvalidAction),
		errors.Is(err, roomService.ErrPlaylistLimitReached),
		errors.Is(err, roomService.ErrMembersLimitReached):
		c.logger.DebugContext(ctx, "action rejected", "error", err)
		c.writeTo(ctx, c.getConnFromCtx(ctx), &Output{
			Type: "action_rejected",
			Payload: map[string]any{
				"action": action,
				"reason": rejectionReason(err),
			},
		})
	case errors.Is(err, roomService.ErrRoomNotFound),
		errors.Is(err, roomService.ErrTargetNotFound),
		errors.Is(err, wsrouter.ErrUnknownMessageType):
		c.logger.DebugContext(ctx, "message dropped", "error", err)
	default:
		c.logger.InfoContext(ctx, "failed to handle message", "error", err)
	}
}

func rejectionReason(err error) string {
	var vErr *validationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}

	for _, sentinel := range []error{
		roomService.ErrPermissionDenied,
		roomService.ErrInvalidIndex,
		roomService.ErrInvalidAction,
		roomService.ErrPlaylistLimitReached,
		roomService.ErrMembersLimitReached,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return err.Error()
}

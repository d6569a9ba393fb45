package controller

import (
	"context"
	"fmt"
	"maps"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/wsrouter"
)

// handleSignal relays offer, answer and ice-candidate messages verbatim.
// The payload stays an opaque map so SDP and candidate shapes never leak
// into server types; only the target field is read for routing.
func (c *controller) handleSignal(ctx context.Context, _ *websocket.Conn, input map[string]any) error {
	targetId, ok := input["target"].(string)
	if !ok || targetId == "" {
		return room.ErrTargetNotFound
	}

	resp, err := c.roomService.RelaySignal(ctx, &room.RelaySignalParams{
		TargetId: targetId,
	})
	if err != nil {
		return fmt.Errorf("failed to relay signal: %w", err)
	}

	payload := maps.Clone(input)
	payload["callerId"] = c.getUserIdFromCtx(ctx)

	c.writeTo(ctx, resp.Target, &Output{
		Type:    wsrouter.GetMessageTypeFromCtx(ctx),
		Payload: payload,
	})

	return nil
}

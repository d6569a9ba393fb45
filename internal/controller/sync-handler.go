package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/service/room"
)

type SyncActionData struct {
	CurrentTime *float64 `json:"currentTime"`
	IsPlaying   *bool    `json:"isPlaying"`
}

type SyncActionInput struct {
	RoomId string         `json:"roomId" validate:"required"`
	Action string         `json:"action" validate:"required,oneof=play pause seek"`
	Data   SyncActionData `json:"data"`
}

func (c *controller) handleSyncAction(ctx context.Context, _ *websocket.Conn, input SyncActionInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.roomService.SyncAction(ctx, &room.SyncActionParams{
		RoomId:      input.RoomId,
		SenderId:    c.getUserIdFromCtx(ctx),
		Action:      input.Action,
		CurrentTime: input.Data.CurrentTime,
		IsPlaying:   input.Data.IsPlaying,
	})
	if err != nil {
		return fmt.Errorf("failed to apply sync action: %w", err)
	}

	payload := map[string]any{"currentTime": resp.Player.CurrentTime}
	if resp.Action == room.SyncActionSeek {
		payload["isPlaying"] = resp.Player.IsPlaying
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "sync_" + resp.Action,
		Payload: payload,
	})

	return nil
}

type AskForTimeInput struct {
	RoomId string `json:"roomId" validate:"required"`
}

func (c *controller) handleAskForTime(ctx context.Context, _ *websocket.Conn, input AskForTimeInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	userId := c.getUserIdFromCtx(ctx)

	resp, err := c.roomService.AskForTime(ctx, &room.AskForTimeParams{
		RoomId:   input.RoomId,
		SenderId: userId,
	})
	if err != nil {
		return fmt.Errorf("failed to ask for time: %w", err)
	}

	// a room of one has no peer to query; the requester keeps its
	// checkpoint, which cannot be out of sync with anyone
	if resp.Peer != nil {
		c.writeTo(ctx, resp.Peer, &Output{
			Type:    "request_sync",
			Payload: map[string]any{"requesterId": userId},
		})
	}

	return nil
}

type SyncResponseInput struct {
	RequesterId string  `json:"requesterId" validate:"required"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
}

func (c *controller) handleSyncResponse(ctx context.Context, _ *websocket.Conn, input SyncResponseInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.roomService.SyncResponse(ctx, &room.SyncResponseParams{
		RequesterId: input.RequesterId,
		CurrentTime: input.CurrentTime,
		IsPlaying:   input.IsPlaying,
	})
	if err != nil {
		return fmt.Errorf("failed to forward sync response: %w", err)
	}

	c.writeTo(ctx, resp.Requester, &Output{
		Type: "sync_seek",
		Payload: map[string]any{
			"currentTime": input.CurrentTime,
			"isPlaying":   input.IsPlaying,
		},
	})

	return nil
}

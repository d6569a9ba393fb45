package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/service/room"
)

type JoinRoomInput struct {
	RoomId   string `json:"roomId" validate:"required,max=64"`
	Username string `json:"username" validate:"required,max=32"`
}

func (c *controller) handleJoinRoom(ctx context.Context, _ *websocket.Conn, input JoinRoomInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	userId := c.getUserIdFromCtx(ctx)

	resp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId:   input.RoomId,
		UserId:   userId,
		Username: input.Username,
	})

	// the user may have been in another room before; that departure is
	// real even when the join itself failed, so announce it first
	c.broadcastUserLeft(ctx, resp.Left)

	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.writeTo(ctx, c.getConnFromCtx(ctx), &Output{
		Type:    "room_state",
		Payload: resp.State,
	})

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "user_joined",
		Payload: map[string]any{
			"username":  resp.JoinedUser.Username,
			"userCount": resp.UserCount,
			"users":     resp.Users,
		},
	})

	if resp.SyncPeer != nil {
		c.writeTo(ctx, resp.SyncPeer, &Output{
			Type:    "request_sync",
			Payload: map[string]any{"requesterId": userId},
		})
	}

	return nil
}

type KickUserInput struct {
	RoomId   string `json:"roomId" validate:"required"`
	TargetId string `json:"targetId" validate:"required"`
}

func (c *controller) handleKickUser(ctx context.Context, _ *websocket.Conn, input KickUserInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.roomService.KickUser(ctx, &room.KickUserParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		TargetId: input.TargetId,
	})
	if err != nil {
		return fmt.Errorf("failed to kick user: %w", err)
	}

	if resp.TargetConn != nil {
		c.writeTo(ctx, resp.TargetConn, &Output{
			Type:    "kicked",
			Payload: map[string]any{},
		})
		resp.TargetConn.Close(4001, "kicked")
	}

	c.broadcastUserLeft(ctx, resp.Left)

	return nil
}

type TogglePermissionsInput struct {
	RoomId string `json:"roomId" validate:"required"`
}

func (c *controller) handleTogglePermissions(ctx context.Context, _ *websocket.Conn, input TogglePermissionsInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.roomService.TogglePermissions(ctx, &room.TogglePermissionsParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to toggle permissions: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "permissions_updated",
		Payload: map[string]any{"permissions": resp.Permissions},
	})

	return nil
}

type AddToPlaylistInput struct {
	RoomId   string `json:"roomId" validate:"required"`
	VideoUrl string `json:"videoUrl" validate:"required,max=2048"`
}

func (c *controller) handleAddToPlaylist(ctx context.Context, _ *websocket.Conn, input AddToPlaylistInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.roomService.AddVideo(ctx, &room.AddVideoParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		VideoUrl: input.VideoUrl,
	})
	if err != nil {
		return fmt.Errorf("failed to add video: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "playlist_updated",
		Payload: map[string]any{
			"playlist":     resp.Playlist,
			"currentIndex": resp.CurrentIndex,
		},
	})

	return nil
}

type RemoveFromPlaylistInput struct {
	RoomId string `json:"roomId" validate:"required"`
	Index  int    `json:"index" validate:"gte=0"`
}

func (c *controller) handleRemoveFromPlaylist(ctx context.Context, _ *websocket.Conn, input RemoveFromPlaylistInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.roomService.RemoveVideo(ctx, &room.RemoveVideoParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		Index:    input.Index,
	})
	if err != nil {
		return fmt.Errorf("failed to remove video: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "playlist_updated",
		Payload: map[string]any{
			"playlist":     resp.Playlist,
			"currentIndex": resp.CurrentIndex,
		},
	})

	return nil
}

type ChangeVideoInput struct {
	RoomId string `json:"roomId" validate:"required"`
	Index  int    `json:"index" validate:"gte=0"`
}

func (c *controller) handleChangeVideo(ctx context.Context, _ *websocket.Conn, input ChangeVideoInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.roomService.ChangeVideo(ctx, &room.ChangeVideoParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		Index:    input.Index,
	})
	if err != nil {
		return fmt.Errorf("failed to change video: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "video_changed",
		Payload: map[string]any{
			"currentIndex": resp.CurrentIndex,
			"currentTime":  0,
			"isPlaying":    true,
		},
	})

	return nil
}

package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/service/room"
)

type SendMessageInput struct {
	RoomId   string `json:"roomId" validate:"required"`
	Username string `json:"username" validate:"required,max=32"`
	Message  string `json:"message" validate:"required,max=2000"`
}

func (c *controller) handleSendMessage(ctx context.Context, _ *websocket.Conn, input SendMessageInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.roomService.SendMessage(ctx, &room.SendMessageParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		Username: input.Username,
		Message:  input.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "chat_message",
		Payload: resp.Message,
	})

	return nil
}

type SendReactionInput struct {
	RoomId string `json:"roomId" validate:"required"`
	Emoji  string `json:"emoji" validate:"required,max=16"`
}

func (c *controller) handleSendReaction(ctx context.Context, _ *websocket.Conn, input SendReactionInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	userId := c.getUserIdFromCtx(ctx)

	resp, err := c.roomService.SendReaction(ctx, &room.SendReactionParams{
		RoomId:   input.RoomId,
		SenderId: userId,
	})
	if err != nil {
		return fmt.Errorf("failed to send reaction: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "reaction_received",
		Payload: map[string]any{
			"emoji":  input.Emoji,
			"userId": userId,
		},
	})

	return nil
}

type ToggleMuteInput struct {
	RoomId  string `json:"roomId" validate:"required"`
	IsMuted bool   `json:"isMuted"`
}

func (c *controller) handleToggleMute(ctx context.Context, _ *websocket.Conn, input ToggleMuteInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	userId := c.getUserIdFromCtx(ctx)

	resp, err := c.roomService.Presence(ctx, &room.PresenceParams{
		RoomId:   input.RoomId,
		SenderId: userId,
	})
	if err != nil {
		return fmt.Errorf("failed to broadcast mute status: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "user_muted",
		Payload: map[string]any{
			"userId":  userId,
			"isMuted": input.IsMuted,
		},
	})

	return nil
}

type SpeakingStatusInput struct {
	RoomId     string `json:"roomId" validate:"required"`
	IsSpeaking bool   `json:"isSpeaking"`
}

func (c *controller) handleSpeakingStatus(ctx context.Context, _ *websocket.Conn, input SpeakingStatusInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	userId := c.getUserIdFromCtx(ctx)

	resp, err := c.roomService.Presence(ctx, &room.PresenceParams{
		RoomId:   input.RoomId,
		SenderId: userId,
	})
	if err != nil {
		return fmt.Errorf("failed to broadcast speaking status: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "user_speaking",
		Payload: map[string]any{
			"userId":     userId,
			"isSpeaking": input.IsSpeaking,
		},
	})

	return nil
}

type ShareSubtitleInput struct {
	RoomId           string `json:"roomId" validate:"required"`
	SubtitleContent  string `json:"subtitleContent" validate:"required"`
	SubtitleFileName string `json:"subtitleFileName" validate:"max=256"`
	Username         string `json:"username" validate:"max=32"`
}

func (c *controller) handleShareSubtitle(ctx context.Context, _ *websocket.Conn, input ShareSubtitleInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.roomService.ShareSubtitle(ctx, &room.ShareSubtitleParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		Content:  input.SubtitleContent,
		FileName: input.SubtitleFileName,
	})
	if err != nil {
		return fmt.Errorf("failed to share subtitle: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "subtitle_shared",
		Payload: map[string]any{
			"subtitleContent":  input.SubtitleContent,
			"subtitleFileName": input.SubtitleFileName,
			"username":         input.Username,
		},
	})

	return nil
}

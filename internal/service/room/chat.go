package room

import (
	"context"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

type SendMessageParams struct {
	RoomId   string
	SenderId string
	Username string
	Message  string
}

type SendMessageResponse struct {
	Message Message
	// Conns includes the sender so its UI reflects the server-assigned id
	// and timestamp instead of a local echo.
	Conns []*connection.Conn
}

func (s *service) SendMessage(ctx context.Context, params *SendMessageParams) (SendMessageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, err := s.roomRepo.AddMessage(ctx, &room.AddMessageParams{
		RoomId:   params.RoomId,
		Username: params.Username,
		Message:  params.Message,
	})
	if err != nil {
		return SendMessageResponse{}, mapRoomErr(err)
	}

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return SendMessageResponse{}, mapRoomErr(err)
	}

	return SendMessageResponse{
		Message: Message{
			Id:        message.Id,
			Username:  message.Username,
			Message:   message.Message,
			Timestamp: message.Timestamp,
		},
		Conns: s.getConns(members, ""),
	}, nil
}

type SendReactionParams struct {
	RoomId   string
	SenderId string
}

type SendReactionResponse struct {
	Conns []*connection.Conn
}

// SendReaction is ephemeral: nothing is stored, the reaction is simply
// rebroadcast tagged with the sender id.
func (s *service) SendReaction(ctx context.Context, params *SendReactionParams) (SendReactionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return SendReactionResponse{}, mapRoomErr(err)
	}

	return SendReactionResponse{Conns: s.getConns(members, "")}, nil
}

type PresenceParams struct {
	RoomId   string
	SenderId string
}

type PresenceResponse struct {
	// Conns excludes the sender; presence signals only matter to others.
	Conns []*connection.Conn
}

// Presence resolves the broadcast set for mute/speaking signals. They are
// not persisted on the room.
func (s *service) Presence(ctx context.Context, params *PresenceParams) (PresenceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return PresenceResponse{}, mapRoomErr(err)
	}

	return PresenceResponse{Conns: s.getConns(members, params.SenderId)}, nil
}

type ShareSubtitleParams struct {
	RoomId   string
	SenderId string
	Content  string
	FileName string
}

type ShareSubtitleResponse struct {
	Conns []*connection.Conn
}

// ShareSubtitle overwrites the room's subtitle state; late joiners get it
// with the room snapshot.
func (s *service) ShareSubtitle(ctx context.Context, params *ShareSubtitleParams) (ShareSubtitleResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.roomRepo.SetSubtitle(ctx, &room.SetSubtitleParams{
		RoomId:   params.RoomId,
		Subtitle: room.Subtitle{Content: params.Content, FileName: params.FileName},
	}); err != nil {
		return ShareSubtitleResponse{}, mapRoomErr(err)
	}

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return ShareSubtitleResponse{}, mapRoomErr(err)
	}

	return ShareSubtitleResponse{Conns: s.getConns(members, params.SenderId)}, nil
}

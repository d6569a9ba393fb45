package room

import (
	"context"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

const (
	SyncActionPlay  = "play"
	SyncActionPause = "pause"
	SyncActionSeek  = "seek"
)

type SyncActionParams struct {
	RoomId   string
	SenderId string
	Action   string
	// CurrentTime is stored only when the client reported one.
	CurrentTime *float64
	// IsPlaying is honored for seek actions only.
	IsPlaying *bool
}

type SyncActionResponse struct {
	Action string
	// Player is the checkpoint after applying the action; broadcast
	// payloads are built from it.
	Player room.Player
	// Conns excludes the sender, which already acted locally.
	Conns []*connection.Conn
}

// SyncAction applies a play/pause/seek intent to the room checkpoint. The
// server never advances CurrentTime on its own: it stores the last value a
// client reported and lets late writers win.
func (s *service) SyncAction(ctx context.Context, params *SyncActionParams) (SyncActionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCanControl(ctx, params.RoomId, params.SenderId); err != nil {
		return SyncActionResponse{}, err
	}

	update := room.UpdatePlayerStateParams{
		RoomId:      params.RoomId,
		CurrentTime: params.CurrentTime,
	}

	switch params.Action {
	case SyncActionPlay:
		playing := true
		update.IsPlaying = &playing
	case SyncActionPause:
		playing := false
		update.IsPlaying = &playing
	case SyncActionSeek:
		update.IsPlaying = params.IsPlaying
	default:
		return SyncActionResponse{}, ErrInvalidAction
	}

	player, err := s.roomRepo.UpdatePlayerState(ctx, &update)
	if err != nil {
		return SyncActionResponse{}, mapRoomErr(err)
	}

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return SyncActionResponse{}, mapRoomErr(err)
	}

	return SyncActionResponse{
		Action: params.Action,
		Player: player,
		Conns:  s.getConns(members, params.SenderId),
	}, nil
}

type AskForTimeParams struct {
	RoomId   string
	SenderId string
}

type AskForTimeResponse struct {
	// Peer is the single member asked to report its position, nil when the
	// requester is alone in the room (nothing can be out of sync then).
	Peer *connection.Conn
}

func (s *service) AskForTime(ctx context.Context, params *AskForTimeParams) (AskForTimeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return AskForTimeResponse{}, mapRoomErr(err)
	}

	for _, member := range members {
		if member.Id == params.SenderId {
			continue
		}
		if conn, err := s.connRepo.GetConn(member.Id); err == nil {
			return AskForTimeResponse{Peer: conn}, nil
		}
	}

	return AskForTimeResponse{}, nil
}

type SyncResponseParams struct {
	RequesterId string
	CurrentTime float64
	IsPlaying   bool
}

type SyncResponseResponse struct {
	Requester *connection.Conn
}

// SyncResponse forwards a peer's live position to the member that asked
// for it. The room checkpoint is not touched: this is a targeted reply,
// not a room mutation.
func (s *service) SyncResponse(ctx context.Context, params *SyncResponseParams) (SyncResponseResponse, error) {
	conn, err := s.connRepo.GetConn(params.RequesterId)
	if err != nil {
		return SyncResponseResponse{}, ErrTargetNotFound
	}

	return SyncResponseResponse{Requester: conn}, nil
}

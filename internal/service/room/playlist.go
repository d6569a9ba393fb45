package room

import (
	"context"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

type AddVideoParams struct {
	RoomId   string
	SenderId string
	VideoUrl string
}

type AddVideoResponse struct {
	Playlist     []string
	CurrentIndex int
	Conns        []*connection.Conn
}

func (s *service) AddVideo(ctx context.Context, params *AddVideoParams) (AddVideoResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCanControl(ctx, params.RoomId, params.SenderId); err != nil {
		return AddVideoResponse{}, err
	}

	playlist, err := s.roomRepo.AddVideo(ctx, &room.AddVideoParams{
		RoomId:   params.RoomId,
		VideoUrl: params.VideoUrl,
	})
	if err != nil {
		return AddVideoResponse{}, mapRoomErr(err)
	}

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomId)
	if err != nil {
		return AddVideoResponse{}, mapRoomErr(err)
	}

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return AddVideoResponse{}, mapRoomErr(err)
	}

	return AddVideoResponse{
		Playlist:     playlist,
		CurrentIndex: player.CurrentIndex,
		Conns:        s.getConns(members, ""),
	}, nil
}

type RemoveVideoParams struct {
	RoomId   string
	SenderId string
	Index    int
}

type RemoveVideoResponse struct {
	Playlist     []string
	CurrentIndex int
	Conns        []*connection.Conn
}

func (s *service) RemoveVideo(ctx context.Context, params *RemoveVideoParams) (RemoveVideoResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCanControl(ctx, params.RoomId, params.SenderId); err != nil {
		return RemoveVideoResponse{}, err
	}

	playlist, err := s.roomRepo.RemoveVideo(ctx, &room.RemoveVideoParams{
		RoomId: params.RoomId,
		Index:  params.Index,
	})
	if err != nil {
		return RemoveVideoResponse{}, mapRoomErr(err)
	}

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomId)
	if err != nil {
		return RemoveVideoResponse{}, mapRoomErr(err)
	}

	// reclamp so the index stays valid while the playlist is non-empty
	currentIndex := player.CurrentIndex
	if len(playlist) > 0 && currentIndex >= len(playlist) {
		currentIndex = len(playlist) - 1
		if err := s.roomRepo.SetCurrentIndex(ctx, params.RoomId, currentIndex); err != nil {
			return RemoveVideoResponse{}, mapRoomErr(err)
		}
	}

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return RemoveVideoResponse{}, mapRoomErr(err)
	}

	return RemoveVideoResponse{
		Playlist:     playlist,
		CurrentIndex: currentIndex,
		Conns:        s.getConns(members, ""),
	}, nil
}

type ChangeVideoParams struct {
	RoomId   string
	SenderId string
	Index    int
}

type ChangeVideoResponse struct {
	CurrentIndex int
	// Conns includes the sender: all clients load the new source uniformly.
	Conns []*connection.Conn
}

func (s *service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ChangeVideoResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCanControl(ctx, params.RoomId, params.SenderId); err != nil {
		return ChangeVideoResponse{}, err
	}

	playlist, err := s.roomRepo.GetPlaylist(ctx, params.RoomId)
	if err != nil {
		return ChangeVideoResponse{}, mapRoomErr(err)
	}

	if params.Index < 0 || params.Index >= len(playlist) {
		return ChangeVideoResponse{}, ErrInvalidIndex
	}

	if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
		RoomId: params.RoomId,
		Player: room.Player{CurrentIndex: params.Index, IsPlaying: true, CurrentTime: 0},
	}); err != nil {
		return ChangeVideoResponse{}, mapRoomErr(err)
	}

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return ChangeVideoResponse{}, mapRoomErr(err)
	}

	return ChangeVideoResponse{
		CurrentIndex: params.Index,
		Conns:        s.getConns(members, ""),
	}, nil
}

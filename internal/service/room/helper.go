package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

func toUsers(members []room.Member) []User {
	users := make([]User, 0, len(members))
	for _, member := range members {
		users = append(users, User{Id: member.Id, Username: member.Username})
	}

	return users
}

func toMessages(messages []room.Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, message := range messages {
		out = append(out, Message{
			Id:        message.Id,
			Username:  message.Username,
			Message:   message.Message,
			Timestamp: message.Timestamp,
		})
	}

	return out
}

// getConns resolves the live connections of the given members, excluding
// excludeId when non-empty. Members whose connection is already gone are
// skipped: disconnect races are expected and not an error.
func (s *service) getConns(members []room.Member, excludeId string) []*connection.Conn {
	conns := make([]*connection.Conn, 0, len(members))
	for _, member := range members {
		if member.Id == excludeId {
			continue
		}

		conn, err := s.connRepo.GetConn(member.Id)
		if err != nil {
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}

// checkCanControl enforces restricted mode: playlist and playback-control
// mutations are admin-only while the room is restricted.
func (s *service) checkCanControl(ctx context.Context, roomId, senderId string) error {
	permissions, err := s.roomRepo.GetPermissions(ctx, roomId)
	if err != nil {
		return mapRoomErr(err)
	}

	if Permissions(permissions) != PermissionsRestricted {
		return nil
	}

	adminId, err := s.roomRepo.GetAdmin(ctx, roomId)
	if err != nil {
		return mapRoomErr(err)
	}

	if senderId != adminId {
		return ErrPermissionDenied
	}

	return nil
}

func (s *service) checkIsAdmin(ctx context.Context, roomId, senderId string) error {
	adminId, err := s.roomRepo.GetAdmin(ctx, roomId)
	if err != nil {
		return mapRoomErr(err)
	}

	if senderId != adminId {
		return ErrPermissionDenied
	}

	return nil
}

func (s *service) getRoomState(ctx context.Context, roomId string) (RoomState, error) {
	playlist, err := s.roomRepo.GetPlaylist(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRoomErr(err)
	}

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRoomErr(err)
	}

	members, err := s.roomRepo.GetMemberList(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRoomErr(err)
	}

	messages, err := s.roomRepo.GetMessages(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRoomErr(err)
	}

	adminId, err := s.roomRepo.GetAdmin(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRoomErr(err)
	}

	permissions, err := s.roomRepo.GetPermissions(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRoomErr(err)
	}

	subtitle, err := s.roomRepo.GetSubtitle(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRoomErr(err)
	}

	state := RoomState{
		Playlist:     playlist,
		CurrentIndex: player.CurrentIndex,
		IsPlaying:    player.IsPlaying,
		CurrentTime:  player.CurrentTime,
		Users:        toUsers(members),
		Messages:     toMessages(messages),
		AdminId:      adminId,
		Permissions:  Permissions(permissions),
	}
	if subtitle != nil {
		state.Subtitle = &Subtitle{Content: subtitle.Content, FileName: subtitle.FileName}
	}

	return state, nil
}

func mapRoomErr(err error) error {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return ErrRoomNotFound
	case errors.Is(err, room.ErrMemberNotFound):
		return ErrTargetNotFound
	case errors.Is(err, room.ErrVideoNotFound):
		return ErrInvalidIndex
	case errors.Is(err, room.ErrPlaylistLimitReached):
		return ErrPlaylistLimitReached
	case errors.Is(err, room.ErrMembersLimitReached):
		return ErrMembersLimitReached
	default:
		return fmt.Errorf("room repo: %w", err)
	}
}

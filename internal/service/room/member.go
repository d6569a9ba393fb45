package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

type ConnectUserParams struct {
	Conn   *websocket.Conn
	UserId string
}

func (s *service) ConnectUser(ctx context.Context, params *ConnectUserParams) (*connection.Conn, error) {
	conn, err := s.connRepo.Add(params.Conn, params.UserId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to register connection", "error", err)
		return nil, err
	}

	return conn, nil
}

// LeftRoom describes the aftermath of a member leaving a room, whatever
// the cause (disconnect, kick, or joining another room).
type LeftRoom struct {
	RoomId      string
	User        User
	Users       []User
	UserCount   int
	NewAdminId  string // empty when admin did not change
	Conns       []*connection.Conn
	RoomRemoved bool
}

// leaveLocked removes the user from whatever room they are in, reassigns
// the admin to the earliest-joined remaining member if needed, and removes
// the room once empty. Callers must hold s.mu. Returns nil when the user
// is in no room.
func (s *service) leaveLocked(ctx context.Context, userId string) (*LeftRoom, error) {
	roomId, err := s.roomRepo.GetMemberRoomId(ctx, userId)
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return nil, nil
		}
		return nil, mapRoomErr(err)
	}

	removed, err := s.roomRepo.RemoveMemberFromList(ctx, &room.RemoveMemberFromListParams{
		RoomId:   roomId,
		MemberId: userId,
	})
	if err != nil {
		return nil, mapRoomErr(err)
	}

	members, err := s.roomRepo.GetMemberList(ctx, roomId)
	if err != nil {
		return nil, mapRoomErr(err)
	}

	left := LeftRoom{
		RoomId:    roomId,
		User:      User{Id: removed.Id, Username: removed.Username},
		Users:     toUsers(members),
		UserCount: len(members),
	}

	if len(members) == 0 {
		if err := s.roomRepo.RemoveRoom(ctx, roomId); err != nil {
			return nil, mapRoomErr(err)
		}
		left.RoomRemoved = true

		return &left, nil
	}

	adminId, err := s.roomRepo.GetAdmin(ctx, roomId)
	if err != nil {
		return nil, mapRoomErr(err)
	}

	if adminId == userId {
		newAdminId := members[0].Id
		if err := s.roomRepo.SetAdmin(ctx, &room.SetAdminParams{RoomId: roomId, MemberId: newAdminId}); err != nil {
			return nil, mapRoomErr(err)
		}
		left.NewAdminId = newAdminId
	}

	left.Conns = s.getConns(members, "")

	return &left, nil
}

type JoinRoomParams struct {
	RoomId   string
	UserId   string
	Username string
}

type JoinRoomResponse struct {
	State      RoomState
	JoinedUser User
	Users      []User
	UserCount  int
	// Conns are the other members' connections (user_joined recipients).
	Conns []*connection.Conn
	// SyncPeer is the member asked to report its live playback position,
	// nil when the joiner is alone.
	SyncPeer *connection.Conn
	// Left is set when the user was in another room and had to leave it
	// first: a connection belongs to at most one room. It is populated even
	// when the join itself fails afterwards (the departure already
	// happened), so callers must announce it before inspecting the error.
	Left *LeftRoom
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	left, err := s.leaveLocked(ctx, params.UserId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to leave previous room: %w", err)
	}

	// from here on the departure from the previous room has happened, so
	// every failure must still hand Left back for the caller to announce
	if err := s.roomRepo.CreateRoom(ctx, params.RoomId); err != nil && !errors.Is(err, room.ErrRoomAlreadyExists) {
		return JoinRoomResponse{Left: left}, mapRoomErr(err)
	}

	if err := s.roomRepo.AddMemberToList(ctx, &room.AddMemberToListParams{
		RoomId: params.RoomId,
		Member: room.Member{Id: params.UserId, Username: params.Username},
	}); err != nil {
		return JoinRoomResponse{Left: left}, mapRoomErr(err)
	}

	adminId, err := s.roomRepo.GetAdmin(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{Left: left}, mapRoomErr(err)
	}
	if adminId == "" {
		if err := s.roomRepo.SetAdmin(ctx, &room.SetAdminParams{RoomId: params.RoomId, MemberId: params.UserId}); err != nil {
			return JoinRoomResponse{Left: left}, mapRoomErr(err)
		}
	}

	state, err := s.getRoomState(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{Left: left}, err
	}

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{Left: left}, mapRoomErr(err)
	}

	resp := JoinRoomResponse{
		State:      state,
		JoinedUser: User{Id: params.UserId, Username: params.Username},
		Users:      toUsers(members),
		UserCount:  len(members),
		Conns:      s.getConns(members, params.UserId),
		Left:       left,
	}

	// the snapshot carries a possibly stale checkpoint; only a live peer
	// knows the true position, so one existing member is asked to report it
	for _, member := range members {
		if member.Id == params.UserId {
			continue
		}
		if conn, err := s.connRepo.GetConn(member.Id); err == nil {
			resp.SyncPeer = conn
			break
		}
	}

	return resp, nil
}

type DisconnectUserParams struct {
	UserId string
}

type DisconnectUserResponse struct {
	Left *LeftRoom
}

// DisconnectUser handles transport-level connection loss. Safe to call for
// users that never joined a room.
func (s *service) DisconnectUser(ctx context.Context, params *DisconnectUserParams) (DisconnectUserResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connRepo.RemoveByUserId(params.UserId); err != nil && !errors.Is(err, connection.ErrNotFound) {
		s.logger.InfoContext(ctx, "failed to remove connection", "error", err)
	}

	left, err := s.leaveLocked(ctx, params.UserId)
	if err != nil {
		return DisconnectUserResponse{}, err
	}

	return DisconnectUserResponse{Left: left}, nil
}

type KickUserParams struct {
	RoomId   string
	SenderId string
	TargetId string
}

type KickUserResponse struct {
	// TargetConn may be nil when the target already disconnected.
	TargetConn *connection.Conn
	Left       *LeftRoom
}

func (s *service) KickUser(ctx context.Context, params *KickUserParams) (KickUserResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIsAdmin(ctx, params.RoomId, params.SenderId); err != nil {
		return KickUserResponse{}, err
	}

	targetRoomId, err := s.roomRepo.GetMemberRoomId(ctx, params.TargetId)
	if err != nil || targetRoomId != params.RoomId {
		return KickUserResponse{}, ErrTargetNotFound
	}

	targetConn, _ := s.connRepo.GetConn(params.TargetId)

	left, err := s.leaveLocked(ctx, params.TargetId)
	if err != nil {
		return KickUserResponse{}, err
	}

	return KickUserResponse{TargetConn: targetConn, Left: left}, nil
}

type TogglePermissionsParams struct {
	RoomId   string
	SenderId string
}

type TogglePermissionsResponse struct {
	Permissions Permissions
	Conns       []*connection.Conn
}

func (s *service) TogglePermissions(ctx context.Context, params *TogglePermissionsParams) (TogglePermissionsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIsAdmin(ctx, params.RoomId, params.SenderId); err != nil {
		return TogglePermissionsResponse{}, err
	}

	permissions, err := s.roomRepo.GetPermissions(ctx, params.RoomId)
	if err != nil {
		return TogglePermissionsResponse{}, mapRoomErr(err)
	}

	toggled := PermissionsRestricted
	if Permissions(permissions) == PermissionsRestricted {
		toggled = PermissionsOpen
	}

	if err := s.roomRepo.SetPermissions(ctx, &room.SetPermissionsParams{
		RoomId:      params.RoomId,
		Permissions: string(toggled),
	}); err != nil {
		return TogglePermissionsResponse{}, mapRoomErr(err)
	}

	members, err := s.roomRepo.GetMemberList(ctx, params.RoomId)
	if err != nil {
		return TogglePermissionsResponse{}, mapRoomErr(err)
	}

	return TogglePermissionsResponse{
		Permissions: toggled,
		Conns:       s.getConns(members, ""),
	}, nil
}

// Package inmemory holds all room state for the process lifetime. Rooms
// are created on first join and removed when the last member leaves;
// nothing survives a restart.
package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/watchparty/server/internal/repository/room"
)

type roomState struct {
	members     []room.Member
	adminId     string
	permissions string
	playlist    []string
	player      room.Player
	messages    []room.Message
	subtitle    *room.Subtitle
	lastMsgId   int64
}

type repo struct {
	rooms      map[string]*roomState
	memberRoom map[string]string

	membersLimit  int
	playlistLimit int
	messagesLimit int

	mu sync.RWMutex
}

func NewRepo(membersLimit, playlistLimit, messagesLimit int) *repo {
	return &repo{
		rooms:         make(map[string]*roomState),
		memberRoom:    make(map[string]string),
		membersLimit:  membersLimit,
		playlistLimit: playlistLimit,
		messagesLimit: messagesLimit,
	}
}

func (r *repo) getRoom(roomId string) (*roomState, error) {
	state, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	return state, nil
}

func (r *repo) CreateRoom(_ context.Context, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomId]; ok {
		return room.ErrRoomAlreadyExists
	}

	r.rooms[roomId] = &roomState{
		members:     []room.Member{},
		permissions: "open",
		playlist:    []string{},
		messages:    []room.Message{},
	}

	return nil
}

func (r *repo) RemoveRoom(_ context.Context, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(roomId)
	if err != nil {
		return err
	}

	for _, member := range state.members {
		delete(r.memberRoom, member.Id)
	}
	delete(r.rooms, roomId)

	return nil
}

func (r *repo) AddMemberToList(_ context.Context, params *room.AddMemberToListParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	if _, ok := r.memberRoom[params.Member.Id]; ok {
		return room.ErrMemberAlreadyExists
	}

	if len(state.members) >= r.membersLimit {
		return room.ErrMembersLimitReached
	}

	state.members = append(state.members, params.Member)
	r.memberRoom[params.Member.Id] = params.RoomId

	return nil
}

func (r *repo) RemoveMemberFromList(_ context.Context, params *room.RemoveMemberFromListParams) (room.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return room.Member{}, err
	}

	for index, member := range state.members {
		if member.Id == params.MemberId {
			state.members = slices.Delete(state.members, index, index+1)
			delete(r.memberRoom, params.MemberId)
			return member, nil
		}
	}

	return room.Member{}, room.ErrMemberNotFound
}

func (r *repo) GetMemberList(_ context.Context, roomId string) ([]room.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomId)
	if err != nil {
		return nil, err
	}

	return slices.Clone(state.members), nil
}

func (r *repo) GetMemberRoomId(_ context.Context, memberId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomId, ok := r.memberRoom[memberId]
	if !ok {
		return "", room.ErrMemberNotFound
	}

	return roomId, nil
}

func (r *repo) GetAdmin(_ context.Context, roomId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomId)
	if err != nil {
		return "", err
	}

	return state.adminId, nil
}

func (r *repo) SetAdmin(_ context.Context, params *room.SetAdminParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	state.adminId = params.MemberId

	return nil
}

func (r *repo) GetPermissions(_ context.Context, roomId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomId)
	if err != nil {
		return "", err
	}

	return state.permissions, nil
}

func (r *repo) SetPermissions(_ context.Context, params *room.SetPermissionsParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	state.permissions = params.Permissions

	return nil
}

func (r *repo) AddVideo(_ context.Context, params *room.AddVideoParams) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return nil, err
	}

	if len(state.playlist) >= r.playlistLimit {
		return nil, room.ErrPlaylistLimitReached
	}

	state.playlist = append(state.playlist, params.VideoUrl)

	return slices.Clone(state.playlist), nil
}

func (r *repo) RemoveVideo(_ context.Context, params *room.RemoveVideoParams) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return nil, err
	}

	if params.Index < 0 || params.Index >= len(state.playlist) {
		return nil, room.ErrVideoNotFound
	}

	state.playlist = slices.Delete(state.playlist, params.Index, params.Index+1)

	return slices.Clone(state.playlist), nil
}

func (r *repo) GetPlaylist(_ context.Context, roomId string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomId)
	if err != nil {
		return nil, err
	}

	return slices.Clone(state.playlist), nil
}

func (r *repo) GetPlayer(_ context.Context, roomId string) (room.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomId)
	if err != nil {
		return room.Player{}, err
	}

	return state.player, nil
}

func (r *repo) SetPlayer(_ context.Context, params *room.SetPlayerParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	state.player = params.Player

	return nil
}

func (r *repo) UpdatePlayerState(_ context.Context, params *room.UpdatePlayerStateParams) (room.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return room.Player{}, err
	}

	if params.IsPlaying != nil {
		state.player.IsPlaying = *params.IsPlaying
	}
	if params.CurrentTime != nil {
		state.player.CurrentTime = *params.CurrentTime
	}

	return state.player, nil
}

func (r *repo) SetCurrentIndex(_ context.Context, roomId string, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(roomId)
	if err != nil {
		return err
	}

	state.player.CurrentIndex = index

	return nil
}

func (r *repo) AddMessage(_ context.Context, params *room.AddMessageParams) (room.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return room.Message{}, err
	}

	id := time.Now().UnixMilli()
	if id <= state.lastMsgId {
		id = state.lastMsgId + 1
	}
	state.lastMsgId = id

	message := room.Message{
		Id:        id,
		Username:  params.Username,
		Message:   params.Message,
		Timestamp: time.Now().Format("15:04:05"),
	}

	state.messages = append(state.messages, message)
	if len(state.messages) > r.messagesLimit {
		state.messages = state.messages[len(state.messages)-r.messagesLimit:]
	}

	return message, nil
}

func (r *repo) GetMessages(_ context.Context, roomId string) ([]room.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomId)
	if err != nil {
		return nil, err
	}

	return slices.Clone(state.messages), nil
}

func (r *repo) SetSubtitle(_ context.Context, params *room.SetSubtitleParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	subtitle := params.Subtitle
	state.subtitle = &subtitle

	return nil
}

func (r *repo) GetSubtitle(_ context.Context, roomId string) (*room.Subtitle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, err := r.getRoom(roomId)
	if err != nil {
		return nil, err
	}

	if state.subtitle == nil {
		return nil, nil
	}

	subtitle := *state.subtitle
	return &subtitle, nil
}

package inmemory

import (
	"context"
	"testing"

	"github.com/watchparty/server/internal/repository/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(2, 5, 10)

	require.NoError(t, repo.CreateRoom(ctx, "room1"))
	assert.ErrorIs(t, repo.CreateRoom(ctx, "room1"), room.ErrRoomAlreadyExists)

	permissions, err := repo.GetPermissions(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, "open", permissions)

	// members
	require.NoError(t, repo.AddMemberToList(ctx, &room.AddMemberToListParams{
		RoomId: "room1",
		Member: room.Member{Id: "m1", Username: "alice"},
	}))
	assert.ErrorIs(t, repo.AddMemberToList(ctx, &room.AddMemberToListParams{
		RoomId: "room1",
		Member: room.Member{Id: "m1", Username: "alice"},
	}), room.ErrMemberAlreadyExists)

	require.NoError(t, repo.AddMemberToList(ctx, &room.AddMemberToListParams{
		RoomId: "room1",
		Member: room.Member{Id: "m2", Username: "bob"},
	}))
	assert.ErrorIs(t, repo.AddMemberToList(ctx, &room.AddMemberToListParams{
		RoomId: "room1",
		Member: room.Member{Id: "m3", Username: "carol"},
	}), room.ErrMembersLimitReached)

	roomId, err := repo.GetMemberRoomId(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "room1", roomId)

	members, err := repo.GetMemberList(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "m1", members[0].Id, "join order must be preserved")

	removed, err := repo.RemoveMemberFromList(ctx, &room.RemoveMemberFromListParams{RoomId: "room1", MemberId: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", removed.Username)

	_, err = repo.GetMemberRoomId(ctx, "m1")
	assert.ErrorIs(t, err, room.ErrMemberNotFound)

	_, err = repo.RemoveMemberFromList(ctx, &room.RemoveMemberFromListParams{RoomId: "room1", MemberId: "m1"})
	assert.ErrorIs(t, err, room.ErrMemberNotFound)

	// removing the room drops the member index too
	require.NoError(t, repo.RemoveRoom(ctx, "room1"))
	_, err = repo.GetMemberRoomId(ctx, "m2")
	assert.ErrorIs(t, err, room.ErrMemberNotFound)
	_, err = repo.GetMemberList(ctx, "room1")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestPlaylist(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(5, 2, 10)

	require.NoError(t, repo.CreateRoom(ctx, "room1"))

	playlist, err := repo.AddVideo(ctx, &room.AddVideoParams{RoomId: "room1", VideoUrl: "http://a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a"}, playlist)

	_, err = repo.AddVideo(ctx, &room.AddVideoParams{RoomId: "room1", VideoUrl: "http://b"})
	require.NoError(t, err)

	_, err = repo.AddVideo(ctx, &room.AddVideoParams{RoomId: "room1", VideoUrl: "http://c"})
	assert.ErrorIs(t, err, room.ErrPlaylistLimitReached)

	_, err = repo.RemoveVideo(ctx, &room.RemoveVideoParams{RoomId: "room1", Index: 2})
	assert.ErrorIs(t, err, room.ErrVideoNotFound)
	_, err = repo.RemoveVideo(ctx, &room.RemoveVideoParams{RoomId: "room1", Index: -1})
	assert.ErrorIs(t, err, room.ErrVideoNotFound)

	playlist, err = repo.RemoveVideo(ctx, &room.RemoveVideoParams{RoomId: "room1", Index: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://b"}, playlist)

	// the returned slice is a copy
	playlist[0] = "mutated"
	stored, err := repo.GetPlaylist(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://b"}, stored)
}

func TestPlayerState(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(5, 5, 10)

	require.NoError(t, repo.CreateRoom(ctx, "room1"))

	player, err := repo.GetPlayer(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, room.Player{}, player, "fresh rooms start paused at zero")

	require.NoError(t, repo.SetPlayer(ctx, &room.SetPlayerParams{
		RoomId: "room1",
		Player: room.Player{CurrentIndex: 1, IsPlaying: true, CurrentTime: 42},
	}))

	// nil fields leave the stored value alone
	playing := false
	player, err = repo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{RoomId: "room1", IsPlaying: &playing})
	require.NoError(t, err)
	assert.False(t, player.IsPlaying)
	assert.Equal(t, 42.0, player.CurrentTime)
	assert.Equal(t, 1, player.CurrentIndex)

	currentTime := 99.5
	player, err = repo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{RoomId: "room1", CurrentTime: &currentTime})
	require.NoError(t, err)
	assert.Equal(t, 99.5, player.CurrentTime)
	assert.False(t, player.IsPlaying)

	require.NoError(t, repo.SetCurrentIndex(ctx, "room1", 3))
	player, err = repo.GetPlayer(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, 3, player.CurrentIndex)
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(5, 5, 2)

	require.NoError(t, repo.CreateRoom(ctx, "room1"))

	msg1, err := repo.AddMessage(ctx, &room.AddMessageParams{RoomId: "room1", Username: "alice", Message: "one"})
	require.NoError(t, err)
	assert.NotZero(t, msg1.Id)
	assert.NotEmpty(t, msg1.Timestamp)

	msg2, err := repo.AddMessage(ctx, &room.AddMessageParams{RoomId: "room1", Username: "bob", Message: "two"})
	require.NoError(t, err)
	assert.Greater(t, msg2.Id, msg1.Id)

	_, err = repo.AddMessage(ctx, &room.AddMessageParams{RoomId: "room1", Username: "alice", Message: "three"})
	require.NoError(t, err)

	messages, err := repo.GetMessages(ctx, "room1")
	require.NoError(t, err)
	require.Len(t, messages, 2, "history must be capped to the newest messages")
	assert.Equal(t, "two", messages[0].Message)
	assert.Equal(t, "three", messages[1].Message)
}

func TestSubtitle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(5, 5, 10)

	require.NoError(t, repo.CreateRoom(ctx, "room1"))

	subtitle, err := repo.GetSubtitle(ctx, "room1")
	require.NoError(t, err)
	assert.Nil(t, subtitle, "no subtitle until one is shared")

	require.NoError(t, repo.SetSubtitle(ctx, &room.SetSubtitleParams{
		RoomId:   "room1",
		Subtitle: room.Subtitle{Content: "WEBVTT", FileName: "a.vtt"},
	}))
	require.NoError(t, repo.SetSubtitle(ctx, &room.SetSubtitleParams{
		RoomId:   "room1",
		Subtitle: room.Subtitle{Content: "WEBVTT v2", FileName: "b.vtt"},
	}))

	subtitle, err = repo.GetSubtitle(ctx, "room1")
	require.NoError(t, err)
	require.NotNil(t, subtitle)
	assert.Equal(t, "WEBVTT v2", subtitle.Content)
	assert.Equal(t, "b.vtt", subtitle.FileName)
}

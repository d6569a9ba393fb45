package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrRoomNotFound         = errors.New("room not found")
	ErrTargetNotFound       = errors.New("target not found")
	ErrInvalidIndex         = errors.New("invalid playlist index")
	ErrInvalidAction        = errors.New("invalid sync action")
	ErrPlaylistLimitReached = errors.New("playlist limit reached")
	ErrMembersLimitReached  = errors.New("members limit reached")
)

type iRoomRepo interface {
	CreateRoom(ctx context.Context, roomId string) error
	RemoveRoom(ctx context.Context, roomId string) error
	// members
	AddMemberToList(context.Context, *room.AddMemberToListParams) error
	RemoveMemberFromList(context.Context, *room.RemoveMemberFromListParams) (room.Member, error)
	GetMemberList(ctx context.Context, roomId string) ([]room.Member, error)
	GetMemberRoomId(ctx context.Context, memberId string) (string, error)
	GetAdmin(ctx context.Context, roomId string) (string, error)
	SetAdmin(context.Context, *room.SetAdminParams) error
	GetPermissions(ctx context.Context, roomId string) (string, error)
	SetPermissions(context.Context, *room.SetPermissionsParams) error
	// playlist
	AddVideo(context.Context, *room.AddVideoParams) ([]string, error)
	RemoveVideo(context.Context, *room.RemoveVideoParams) ([]string, error)
	GetPlaylist(ctx context.Context, roomId string) ([]string, error)
	// player
	GetPlayer(ctx context.Context, roomId string) (room.Player, error)
	SetPlayer(context.Context, *room.SetPlayerParams) error
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) (room.Player, error)
	SetCurrentIndex(ctx context.Context, roomId string, index int) error
	// chat
	AddMessage(context.Context, *room.AddMessageParams) (room.Message, error)
	GetMessages(ctx context.Context, roomId string) ([]room.Message, error)
	// subtitle
	SetSubtitle(context.Context, *room.SetSubtitleParams) error
	GetSubtitle(ctx context.Context, roomId string) (*room.Subtitle, error)
}

type iConnRepo interface {
	Add(ws *websocket.Conn, userId string) (*connection.Conn, error)
	RemoveByWS(ws *websocket.Conn) (string, error)
	RemoveByUserId(userId string) error
	GetConn(userId string) (*connection.Conn, error)
	GetUserId(ws *websocket.Conn) (string, error)
}

// service is the room state machine. Every operation that touches room
// state takes the service mutex, so each read-modify-write sequence is
// atomic with respect to concurrent handlers.
type service struct {
	roomRepo iRoomRepo
	connRepo iConnRepo
	logger   *slog.Logger

	mu sync.Mutex
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, logger *slog.Logger) *service {
	return &service{
		roomRepo: roomRepo,
		connRepo: connRepo,
		logger:   logger,
	}
}

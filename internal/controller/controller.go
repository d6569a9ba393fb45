package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/validator"
	"github.com/watchparty/server/pkg/wsrouter"
)

type iRoomService interface {
	ConnectUser(context.Context, *room.ConnectUserParams) (*connection.Conn, error)
	DisconnectUser(context.Context, *room.DisconnectUserParams) (room.DisconnectUserResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	KickUser(context.Context, *room.KickUserParams) (room.KickUserResponse, error)
	TogglePermissions(context.Context, *room.TogglePermissionsParams) (room.TogglePermissionsResponse, error)
	AddVideo(context.Context, *room.AddVideoParams) (room.AddVideoResponse, error)
	RemoveVideo(context.Context, *room.RemoveVideoParams) (room.RemoveVideoResponse, error)
	ChangeVideo(context.Context, *room.ChangeVideoParams) (room.ChangeVideoResponse, error)
	SyncAction(context.Context, *room.SyncActionParams) (room.SyncActionResponse, error)
	AskForTime(context.Context, *room.AskForTimeParams) (room.AskForTimeResponse, error)
	SyncResponse(context.Context, *room.SyncResponseParams) (room.SyncResponseResponse, error)
	SendMessage(context.Context, *room.SendMessageParams) (room.SendMessageResponse, error)
	SendReaction(context.Context, *room.SendReactionParams) (room.SendReactionResponse, error)
	Presence(context.Context, *room.PresenceParams) (room.PresenceResponse, error)
	ShareSubtitle(context.Context, *room.ShareSubtitleParams) (room.ShareSubtitleResponse, error)
	RelaySignal(context.Context, *room.RelaySignalParams) (room.RelaySignalResponse, error)
}

type iProxyHandler interface {
	ProxyVideo(w http.ResponseWriter, r *http.Request)
	SearchSubtitles(w http.ResponseWriter, r *http.Request)
	DownloadSubtitle(w http.ResponseWriter, r *http.Request)
}

type controller struct {
	roomService iRoomService
	proxy       iProxyHandler
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, proxy iProxyHandler, logger *slog.Logger) *controller {
	c := &controller{
		roomService: roomService,
		proxy:       proxy,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

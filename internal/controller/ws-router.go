package controller

import (
	"github.com/watchparty/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.OnError(c.handleWSError)

	// room
	wsrouter.Handle(mux, "join_room", c.handleJoinRoom)
	wsrouter.Handle(mux, "kick_user", c.handleKickUser)
	wsrouter.Handle(mux, "toggle_permissions", c.handleTogglePermissions)

	// playlist
	wsrouter.Handle(mux, "add_to_playlist", c.handleAddToPlaylist)
	wsrouter.Handle(mux, "remove_from_playlist", c.handleRemoveFromPlaylist)
	wsrouter.Handle(mux, "change_video", c.handleChangeVideo)

	// playback sync
	wsrouter.Handle(mux, "sync_action", c.handleSyncAction)
	wsrouter.Handle(mux, "ask_for_time", c.handleAskForTime)
	wsrouter.Handle(mux, "sync_response", c.handleSyncResponse)

	// chat and presence
	wsrouter.Handle(mux, "send_message", c.handleSendMessage)
	wsrouter.Handle(mux, "send_reaction", c.handleSendReaction)
	wsrouter.Handle(mux, "toggle_mute", c.handleToggleMute)
	wsrouter.Handle(mux, "speaking_status", c.handleSpeakingStatus)
	wsrouter.Handle(mux, "share_subtitle", c.handleShareSubtitle)

	// webrtc signaling relay
	wsrouter.Handle(mux, "offer", c.handleSignal)
	wsrouter.Handle(mux, "answer", c.handleSignal)
	wsrouter.Handle(mux, "ice-candidate", c.handleSignal)

	return mux
}

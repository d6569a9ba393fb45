package app_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/controller"
	"github.com/watchparty/server/internal/proxy"
	connInmemory "github.com/watchparty/server/internal/repository/connection/inmemory"
	roomInmemory "github.com/watchparty/server/internal/repository/room/inmemory"
	"github.com/watchparty/server/internal/service/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))

	roomRepo := roomInmemory.NewRepo(9, 25, 100)
	connRepo := connInmemory.NewRepo()
	roomService := room.NewService(roomRepo, connRepo, slog.Default())
	proxyHandler := proxy.NewHandler("ffmpeg", slog.Default())
	c := controller.NewController(roomService, proxyHandler, slog.Default())

	server := httptest.NewServer(c.GetMux())
	t.Cleanup(server.Close)

	return server
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	wsUrl := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    msgType,
		"payload": payload,
	}))
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	res, err := http.Get(server.URL + "/api/v1/healthz")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestJoinRoomFlow(t *testing.T) {
	server := newTestServer(t)

	// first client joins and gets the room snapshot
	conn1 := dialWS(t, server)
	sendMessage(t, conn1, "join_room", map[string]any{"roomId": "movie-night", "username": "alice"})

	msg := readMessage(t, conn1)
	require.Equal(t, "room_state", msg.Type)

	var state struct {
		Users       []map[string]any `json:"users"`
		AdminId     string           `json:"adminId"`
		Permissions string           `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	require.Len(t, state.Users, 1)
	assert.Equal(t, "open", state.Permissions)
	assert.NotEmpty(t, state.AdminId)

	// second client joins the same room
	conn2 := dialWS(t, server)
	sendMessage(t, conn2, "join_room", map[string]any{"roomId": "movie-night", "username": "bob"})

	msg = readMessage(t, conn2)
	require.Equal(t, "room_state", msg.Type)
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Len(t, state.Users, 2)

	// the first client learns about the newcomer, then is asked to report
	// its playback position
	msg = readMessage(t, conn1)
	require.Equal(t, "user_joined", msg.Type)

	var joined struct {
		Username  string `json:"username"`
		UserCount int    `json:"userCount"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &joined))
	assert.Equal(t, "bob", joined.Username)
	assert.Equal(t, 2, joined.UserCount)

	msg = readMessage(t, conn1)
	assert.Equal(t, "request_sync", msg.Type)
}

func TestSyncActionFlow(t *testing.T) {
	server := newTestServer(t)

	conn1 := dialWS(t, server)
	sendMessage(t, conn1, "join_room", map[string]any{"roomId": "movie-night", "username": "alice"})
	readMessage(t, conn1) // room_state

	conn2 := dialWS(t, server)
	sendMessage(t, conn2, "join_room", map[string]any{"roomId": "movie-night", "username": "bob"})
	readMessage(t, conn2) // room_state
	readMessage(t, conn1) // user_joined
	readMessage(t, conn1) // request_sync

	// alice starts playback; bob receives the sync event, alice does not
	sendMessage(t, conn1, "sync_action", map[string]any{
		"roomId": "movie-night",
		"action": "play",
		"data":   map[string]any{"currentTime": 12.5},
	})

	msg := readMessage(t, conn2)
	require.Equal(t, "sync_play", msg.Type)

	var sync struct {
		CurrentTime float64 `json:"currentTime"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &sync))
	assert.Equal(t, 12.5, sync.CurrentTime)
}

func TestChatFlow(t *testing.T) {
	server := newTestServer(t)

	conn1 := dialWS(t, server)
	sendMessage(t, conn1, "join_room", map[string]any{"roomId": "movie-night", "username": "alice"})
	readMessage(t, conn1) // room_state

	sendMessage(t, conn1, "send_message", map[string]any{
		"roomId":   "movie-night",
		"username": "alice",
		"message":  "hello room",
	})

	// chat echoes back to the sender with the server-assigned id
	msg := readMessage(t, conn1)
	require.Equal(t, "chat_message", msg.Type)

	var chat struct {
		Id       int64  `json:"id"`
		Username string `json:"username"`
		Message  string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &chat))
	assert.NotZero(t, chat.Id)
	assert.Equal(t, "alice", chat.Username)
	assert.Equal(t, "hello room", chat.Message)
}

func TestActionRejected(t *testing.T) {
	server := newTestServer(t)

	conn1 := dialWS(t, server)
	sendMessage(t, conn1, "join_room", map[string]any{"roomId": "movie-night", "username": "alice"})
	readMessage(t, conn1) // room_state

	conn2 := dialWS(t, server)
	sendMessage(t, conn2, "join_room", map[string]any{"roomId": "movie-night", "username": "bob"})
	readMessage(t, conn2) // room_state
	readMessage(t, conn1) // user_joined
	readMessage(t, conn1) // request_sync

	// bob is not the admin and cannot toggle permissions
	sendMessage(t, conn2, "toggle_permissions", map[string]any{"roomId": "movie-night"})

	msg := readMessage(t, conn2)
	require.Equal(t, "action_rejected", msg.Type)

	var rejected struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &rejected))
	assert.Equal(t, "toggle_permissions", rejected.Action)
	assert.NotEmpty(t, rejected.Reason)
}

func TestSignalRelay(t *testing.T) {
	server := newTestServer(t)

	conn1 := dialWS(t, server)
	sendMessage(t, conn1, "join_room", map[string]any{"roomId": "movie-night", "username": "alice"})

	msg := readMessage(t, conn1)
	require.Equal(t, "room_state", msg.Type)

	var state struct {
		Users []struct {
			Id string `json:"id"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	require.Len(t, state.Users, 1)
	aliceId := state.Users[0].Id

	conn2 := dialWS(t, server)
	sendMessage(t, conn2, "join_room", map[string]any{"roomId": "movie-night", "username": "bob"})
	readMessage(t, conn2) // room_state
	readMessage(t, conn1) // user_joined
	readMessage(t, conn1) // request_sync

	// bob sends alice an offer; it arrives verbatim with the caller id added
	sendMessage(t, conn2, "offer", map[string]any{
		"target": aliceId,
		"sdp":    map[string]any{"type": "offer", "sdp": "v=0"},
	})

	msg = readMessage(t, conn1)
	require.Equal(t, "offer", msg.Type)

	var offer struct {
		Target   string         `json:"target"`
		CallerId string         `json:"callerId"`
		Sdp      map[string]any `json:"sdp"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &offer))
	assert.Equal(t, aliceId, offer.Target)
	assert.NotEmpty(t, offer.CallerId)
	assert.NotEqual(t, aliceId, offer.CallerId)
	assert.Equal(t, "v=0", offer.Sdp["sdp"])
}

func TestSwitchIntoFullRoomAnnouncesDeparture(t *testing.T) {
	roomRepo := roomInmemory.NewRepo(2, 25, 100)
	connRepo := connInmemory.NewRepo()
	roomService := room.NewService(roomRepo, connRepo, slog.Default())
	proxyHandler := proxy.NewHandler("ffmpeg", slog.Default())
	c := controller.NewController(roomService, proxyHandler, slog.Default())

	server := httptest.NewServer(c.GetMux())
	t.Cleanup(server.Close)

	// a1 (admin) and a2 in room "a"
	connA1 := dialWS(t, server)
	sendMessage(t, connA1, "join_room", map[string]any{"roomId": "a", "username": "a1"})
	readMessage(t, connA1) // room_state

	connA2 := dialWS(t, server)
	sendMessage(t, connA2, "join_room", map[string]any{"roomId": "a", "username": "a2"})
	readMessage(t, connA2) // room_state
	readMessage(t, connA1) // user_joined
	readMessage(t, connA1) // request_sync

	// b1 and b2 fill room "b"
	connB1 := dialWS(t, server)
	sendMessage(t, connB1, "join_room", map[string]any{"roomId": "b", "username": "b1"})
	readMessage(t, connB1) // room_state

	connB2 := dialWS(t, server)
	sendMessage(t, connB2, "join_room", map[string]any{"roomId": "b", "username": "b2"})
	readMessage(t, connB2) // room_state
	readMessage(t, connB1) // user_joined
	readMessage(t, connB1) // request_sync

	// a1 tries to switch into the full room
	sendMessage(t, connA1, "join_room", map[string]any{"roomId": "b", "username": "a1"})

	// the join is rejected back to a1
	msg := readMessage(t, connA1)
	require.Equal(t, "action_rejected", msg.Type)

	var rejected struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &rejected))
	assert.Equal(t, "join_room", rejected.Action)

	// a2 still learns that a1 left and that it is the admin now
	msg = readMessage(t, connA2)
	require.Equal(t, "user_left", msg.Type)

	var left struct {
		Username  string `json:"username"`
		UserCount int    `json:"userCount"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &left))
	assert.Equal(t, "a1", left.Username)
	assert.Equal(t, 1, left.UserCount)

	msg = readMessage(t, connA2)
	require.Equal(t, "admin_updated", msg.Type)
}

func TestKickedClosesConnection(t *testing.T) {
	server := newTestServer(t)

	conn1 := dialWS(t, server)
	sendMessage(t, conn1, "join_room", map[string]any{"roomId": "movie-night", "username": "alice"})
	readMessage(t, conn1) // room_state

	conn2 := dialWS(t, server)
	sendMessage(t, conn2, "join_room", map[string]any{"roomId": "movie-night", "username": "bob"})

	msg := readMessage(t, conn2)
	require.Equal(t, "room_state", msg.Type)

	var state struct {
		Users []struct {
			Id       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	require.Len(t, state.Users, 2)

	var bobId string
	for _, user := range state.Users {
		if user.Username == "bob" {
			bobId = user.Id
		}
	}
	require.NotEmpty(t, bobId)

	readMessage(t, conn1) // user_joined
	readMessage(t, conn1) // request_sync

	sendMessage(t, conn1, "kick_user", map[string]any{"roomId": "movie-night", "targetId": bobId})

	// bob is told, then the server closes his connection
	msg = readMessage(t, conn2)
	assert.Equal(t, "kicked", msg.Type)

	conn2.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn2.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, 4001), "expected close code 4001, got %v", err)

	// alice sees bob leave
	msg = readMessage(t, conn1)
	assert.Equal(t, "user_left", msg.Type)
}

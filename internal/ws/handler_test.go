package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/lobby-backend/internal/engine"
	"github.com/DoyleJ11/lobby-backend/internal/hub"
	"github.com/DoyleJ11/lobby-backend/internal/lobby"
	"github.com/DoyleJ11/lobby-backend/internal/types"
	protocol "github.com/DoyleJ11/lobby-backend/pkg/types"
)

func newTestServer(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx, lobby.Config{})
	srv := httptest.NewServer(Handler(h, Options{DefaultTeamSize: 2}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, base, code string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, base+"/?code="+code, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func writeRaw(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(payload)))
}

func TestHandler_FirstConnectionCreatesLobbyAndSeats(t *testing.T) {
	base := newTestServer(t)
	conn := dial(t, base, "abc123")

	msg := readMsg(t, conn)
	assert.Equal(t, protocol.MsgStateSnapshot, msg.Type)
	assert.Equal(t, 1, msg.Version)
	require.NotNil(t, msg.State)
	assert.Equal(t, 2, msg.State.TeamSize)
	assert.NotEmpty(t, msg.ClientID)
	assert.Equal(t, msg.ClientID, msg.State.Blue[0].OccupantID)
}

func TestHandler_IntentsBroadcastToEveryone(t *testing.T) {
	base := newTestServer(t)
	c1 := dial(t, base, "ROOM01")
	first := readMsg(t, c1)

	c2 := dial(t, base, "ROOM01")
	joined := readMsg(t, c2)
	readMsg(t, c1) // c2's join
	assert.NotEqual(t, first.ClientID, joined.ClientID)
	assert.Equal(t, joined.ClientID, joined.State.Red[0].OccupantID)

	writeRaw(t, c1, `{"type":"setPlayerDisplayName","display_name":"  Ahri  "}`)

	for _, c := range []*websocket.Conn{c1, c2} {
		msg := readMsg(t, c)
		assert.Equal(t, 3, msg.Version)
		assert.Equal(t, "Ahri", msg.State.Blue[0].DisplayName)
	}
}

func TestHandler_MalformedMessagesDropped(t *testing.T) {
	base := newTestServer(t)
	conn := dial(t, base, "BAD001")
	readMsg(t, conn)

	writeRaw(t, conn, `{not json`)
	writeRaw(t, conn, `{"type":"castSpell"}`)
	writeRaw(t, conn, `{"type":"switchTeam","team":"green"}`)
	writeRaw(t, conn, `{"type":"toggleReady"}`)

	msg := readMsg(t, conn)
	assert.Equal(t, 2, msg.Version, "only the valid intent produced a snapshot")
	assert.True(t, msg.State.Blue[0].IsReady)
}

func TestHandler_StartSendsHandoff(t *testing.T) {
	base := newTestServer(t)
	conn := dial(t, base, "GO0001")
	readMsg(t, conn)

	writeRaw(t, conn, `{"type":"startGame"}`)

	msg := readMsg(t, conn)
	assert.Equal(t, protocol.MsgHandoff, msg.Type)
	require.NotNil(t, msg.Handoff)
	assert.Equal(t, engine.PhaseStarting, msg.State.Phase)
	assert.True(t, msg.Handoff.Red[0].IsBot)
	assert.True(t, msg.Handoff.Red[1].IsBot)
}

func TestHandler_MissingCode(t *testing.T) {
	base := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, base+"/", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestToEngineCommand(t *testing.T) {
	tests := []struct {
		name string
		in   types.ClientMessage
		want engine.Command
		ok   bool
	}{
		{"switch team", types.ClientMessage{Type: protocol.MsgSwitchTeam, Team: "red"},
			engine.Command{Type: engine.CmdSwitchTeam, ClientID: "c", Team: engine.TeamRed}, true},
		{"switch team bad", types.ClientMessage{Type: protocol.MsgSwitchTeam, Team: "RED"}, engine.Command{}, false},
		{"switch player", types.ClientMessage{Type: protocol.MsgSwitchPlayerTeam, PlayerID: "p", TargetTeam: "blue"},
			engine.Command{Type: engine.CmdSwitchPlayerTeam, ClientID: "c", PlayerID: "p", Team: engine.TeamBlue}, true},
		{"switch player no id", types.ClientMessage{Type: protocol.MsgSwitchPlayerTeam, TargetTeam: "blue"}, engine.Command{}, false},
		{"size", types.ClientMessage{Type: protocol.MsgSetTeamSize, Size: 4},
			engine.Command{Type: engine.CmdSetTeamSize, ClientID: "c", Size: 4}, true},
		{"ready", types.ClientMessage{Type: protocol.MsgToggleReady},
			engine.Command{Type: engine.CmdToggleReady, ClientID: "c"}, true},
		{"name", types.ClientMessage{Type: protocol.MsgSetPlayerDisplayName, DisplayName: "x"},
			engine.Command{Type: engine.CmdSetDisplayName, ClientID: "c", DisplayName: "x"}, true},
		{"start", types.ClientMessage{Type: protocol.MsgStartGame},
			engine.Command{Type: engine.CmdStartGame, ClientID: "c"}, true},
		{"unknown", types.ClientMessage{Type: "lockIn"}, engine.Command{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toEngineCommand("c", tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

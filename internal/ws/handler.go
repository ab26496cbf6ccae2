package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lobby-backend/internal/engine"
	"github.com/DoyleJ11/lobby-backend/internal/hub"
	"github.com/DoyleJ11/lobby-backend/internal/lobby"
	"github.com/DoyleJ11/lobby-backend/internal/types"
	protocol "github.com/DoyleJ11/lobby-backend/pkg/types"
)

const writeTimeout = 3 * time.Second

type Options struct {
	// DefaultTeamSize sizes lobbies created by a first connection.
	DefaultTeamSize int
	// OriginPatterns is passed to websocket.Accept; empty means same-origin.
	OriginPatterns []string
	Logger         *zap.Logger
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("code")))
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := log.With(zap.String("lobby", code), zap.String("client", clientID))
		out := make(chan lobby.Snapshot, 8)

		// The first connection to an unknown code creates the lobby. A lobby
		// that was disposed while we looked it up is replaced once.
		var lb *lobby.Lobby
		for attempt := 0; attempt < 2 && lb == nil; attempt++ {
			candidate := ensureLobby(h, code, opts.DefaultTeamSize)
			if candidate == nil {
				break
			}
			if candidate.Send(lobby.Join{ClientID: clientID, Outbox: out}) {
				lb = candidate
			}
		}
		if lb == nil {
			conn.Close(websocket.StatusTryAgainLater, "lobby unavailable")
			return
		}
		defer func() { lb.Send(lobby.Leave{ClientID: clientID}) }()
		log.Debug("client connected")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case snap, ok := <-out:
					if !ok {
						// Lobby is gone (started, disposed or dropped us).
						conn.Close(websocket.StatusNormalClosure, "lobby closed")
						return
					}
					payload, err := json.Marshal(toServerMessage(clientID, snap))
					if err != nil {
						log.Error("encode snapshot", zap.Error(err))
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					err = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
					if err != nil {
						log.Debug("write failed", zap.Error(err))
						return
					}
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("client disconnected")
				default:
					log.Debug("read failed", zap.Error(err))
				}
				// lobby.Leave in defer
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				log.Debug("dropping malformed message", zap.Error(err))
				continue
			}

			cmd, ok := toEngineCommand(clientID, cm)
			if !ok {
				log.Debug("dropping unknown message", zap.String("type", cm.Type))
				continue
			}

			if !lb.Send(lobby.FromClient{Cmd: cmd}) {
				return
			}
		}
	}
}

// ensureLobby returns nil once the hub has shut down.
func ensureLobby(h *hub.Hub, code string, teamSize int) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	select {
	case h.Inbox() <- hub.EnsureLobby{Code: code, State: engine.NewSession(teamSize, ""), Reply: reply}:
	case <-h.Done():
		return nil
	}
	select {
	case lb := <-reply:
		return lb
	case <-h.Done():
		return nil
	}
}

func toServerMessage(clientID string, snap lobby.Snapshot) types.ServerMessage {
	msg := types.ServerMessage{
		Type:     protocol.MsgStateSnapshot,
		Version:  snap.Version,
		ClientID: clientID,
		State:    &snap.State,
	}
	if snap.Handoff != nil {
		msg.Type = protocol.MsgHandoff
		msg.Handoff = snap.Handoff
	}
	return msg
}

func toEngineCommand(clientID string, m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case protocol.MsgSwitchTeam:
		team, ok := parseTeam(m.Team)
		if !ok {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdSwitchTeam, ClientID: clientID, Team: team}, true
	case protocol.MsgSwitchPlayerTeam:
		team, ok := parseTeam(m.TargetTeam)
		if !ok || m.PlayerID == "" {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdSwitchPlayerTeam, ClientID: clientID, PlayerID: m.PlayerID, Team: team}, true
	case protocol.MsgSetTeamSize:
		return engine.Command{Type: engine.CmdSetTeamSize, ClientID: clientID, Size: m.Size}, true
	case protocol.MsgToggleReady:
		return engine.Command{Type: engine.CmdToggleReady, ClientID: clientID}, true
	case protocol.MsgSetPlayerDisplayName:
		return engine.Command{Type: engine.CmdSetDisplayName, ClientID: clientID, DisplayName: m.DisplayName}, true
	case protocol.MsgStartGame:
		return engine.Command{Type: engine.CmdStartGame, ClientID: clientID}, true
	default:
		return engine.Command{}, false
	}
}

func parseTeam(team string) (engine.Team, bool) {
	switch team {
	case "blue":
		return engine.TeamBlue, true
	case "red":
		return engine.TeamRed, true
	default:
		return "", false
	}
}

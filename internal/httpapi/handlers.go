package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lobby-backend/internal/engine"
	"github.com/DoyleJ11/lobby-backend/internal/hub"
	"github.com/DoyleJ11/lobby-backend/internal/lobby"
)

const (
	codeLength   = 6
	codeAttempts = 8
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createLobbyRequest struct {
	TeamSize int    `json:"team_size"`
	Config   string `json:"config"`
}

type createLobbyResponse struct {
	Code string `json:"code"`
}

type lobbyView struct {
	Code       string       `json:"code"`
	Version    int          `json:"version"`
	NumClients int          `json:"num_clients"`
	State      engine.State `json:"state"`
}

type API struct {
	hub             *hub.Hub
	defaultTeamSize int
	log             *zap.Logger
}

func NewAPI(h *hub.Hub, defaultTeamSize int, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{hub: h, defaultTeamSize: defaultTeamSize, log: log}
}

// CreateLobby reserves a fresh code. The body is optional; an out-of-range
// team_size falls back to the default.
func (a *API) CreateLobby(w http.ResponseWriter, r *http.Request) {
	req := createLobbyRequest{TeamSize: a.defaultTeamSize}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TeamSize == 0 {
		req.TeamSize = a.defaultTeamSize
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			a.log.Error("generate lobby code", zap.Error(err))
			http.Error(w, "failed to generate code", http.StatusInternalServerError)
			return
		}

		// CreateLobby returns the existing lobby on collision, so compare
		// against a fresh lookup first.
		existing, ok := a.lookup(code)
		if !ok {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		if existing != nil {
			a.log.Debug("collision on code, regenerating", zap.String("lobby", code))
			continue
		}

		lb, ok := a.ask(func(reply chan *lobby.Lobby) hub.HubMsg {
			return hub.CreateLobby{Code: code, State: engine.NewSession(req.TeamSize, req.Config), Reply: reply}
		})
		if !ok {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		if lb == nil {
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, createLobbyResponse{Code: code})
		return
	}
	http.Error(w, "failed to generate code", http.StatusServiceUnavailable)
}

func (a *API) GetLobby(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	lb, ok := a.lookup(code)
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if lb == nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}

	reply := make(chan lobby.View, 1)
	if !lb.Send(lobby.GetState{Reply: reply}) {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}
	select {
	case v := <-reply:
		writeJSON(w, http.StatusOK, lobbyView{
			Code:       code,
			Version:    v.Version,
			NumClients: v.NumClients,
			State:      v.State,
		})
	case <-lb.Done():
		http.Error(w, "lobby not found", http.StatusNotFound)
	case <-r.Context().Done():
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// lookup reports false once the hub has shut down.
func (a *API) lookup(code string) (*lobby.Lobby, bool) {
	return a.ask(func(reply chan *lobby.Lobby) hub.HubMsg {
		return hub.GetLobby{Code: code, Reply: reply}
	})
}

func (a *API) ask(msg func(reply chan *lobby.Lobby) hub.HubMsg) (*lobby.Lobby, bool) {
	reply := make(chan *lobby.Lobby, 1)
	select {
	case a.hub.Inbox() <- msg(reply):
	case <-a.hub.Done():
		return nil, false
	}
	select {
	case lb := <-reply:
		return lb, true
	case <-a.hub.Done():
		return nil, false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

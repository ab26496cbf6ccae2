package types

import "github.com/DoyleJ11/lobby-backend/internal/engine"

type ClientMessage struct {
	Type        string `json:"type"`
	Team        string `json:"team,omitempty"`
	Size        int    `json:"size,omitempty"`
	PlayerID    string `json:"player_id,omitempty"`
	TargetTeam  string `json:"target_team,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type ServerMessage struct {
	Type     string          `json:"type"` // "StateSnapshot" | "Handoff"
	Version  int             `json:"version,omitempty"`
	ClientID string          `json:"client_id,omitempty"`
	State    *engine.State   `json:"state,omitempty"`
	Handoff  *engine.Handoff `json:"handoff,omitempty"`
}

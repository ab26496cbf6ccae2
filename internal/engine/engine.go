package engine

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var ErrWrongPhase = errors.New("lobby is not accepting changes")
var ErrInvalidTeam = errors.New("unknown team")
var ErrInvalidTeamSize = errors.New("team size out of range")
var ErrInvalidDisplayName = errors.New("invalid display name")
var ErrUnknownOccupant = errors.New("occupant not seated")
var ErrTeamFull = errors.New("team is full")
var ErrCannotStart = errors.New("no human players seated")
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	MinTeamSize       = 1
	MaxTeamSize       = 5
	MaxDisplayNameLen = 20
	DefaultTeamSize   = MaxTeamSize
)

type Team string

const (
	TeamBlue Team = "blue"
	TeamRed  Team = "red"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseStarting Phase = "starting"
)

// Slot is one seat on a team. A vacant slot has an empty OccupantID and is
// never ready.
type Slot struct {
	OccupantID  string `json:"occupant_id,omitempty"`
	DisplayName string `json:"display_name"`
	IsBot       bool   `json:"is_bot"`
	IsReady     bool   `json:"is_ready"`
	Archetype   string `json:"archetype,omitempty"`
}

func (s Slot) Occupied() bool { return s.OccupantID != "" }

// State is the replicated session state. BlueSize and RedSize count human
// occupants; CanStart is derived and recomputed after every roster change.
type State struct {
	Phase    Phase  `json:"lobby_phase"`
	TeamSize int    `json:"team_size"`
	BlueSize int    `json:"blue_team_size"`
	RedSize  int    `json:"red_team_size"`
	CanStart bool   `json:"can_start"`
	Blue     []Slot `json:"blue_team"`
	Red      []Slot `json:"red_team"`
	Config   string `json:"config,omitempty"`
}

type CommandType string

const (
	CmdJoin             CommandType = "Join"
	CmdLeave            CommandType = "Leave"
	CmdSwitchTeam       CommandType = "SwitchTeam"
	CmdSwitchPlayerTeam CommandType = "SwitchPlayerTeam"
	CmdSetTeamSize      CommandType = "SetTeamSize"
	CmdToggleReady      CommandType = "ToggleReady"
	CmdSetDisplayName   CommandType = "SetDisplayName"
	CmdStartGame        CommandType = "StartGame"
)

/*
	CmdJoin             -> EvtPlayerJoined
	CmdLeave            -> EvtPlayerLeft -> EvtRoomEmptied (last human gone)
	CmdSwitchTeam       -> EvtTeamSwitched
	CmdSwitchPlayerTeam -> EvtTeamSwitched (PlayerID is the one moved)
	CmdSetTeamSize      -> EvtTeamResized
	CmdToggleReady      -> EvtReadyToggled
	CmdSetDisplayName   -> EvtDisplayNameChanged
	CmdStartGame        -> EvtGameStarting
*/

// Command is one intent. ClientID is always the sender; PlayerID is only
// used by CmdSwitchPlayerTeam.
type Command struct {
	Type        CommandType
	ClientID    string
	PlayerID    string
	Team        Team
	Size        int
	DisplayName string
}

type EventType string

const (
	EvtPlayerJoined       EventType = "PlayerJoined"
	EvtPlayerLeft         EventType = "PlayerLeft"
	EvtRoomEmptied        EventType = "RoomEmptied"
	EvtTeamSwitched       EventType = "TeamSwitched"
	EvtTeamResized        EventType = "TeamResized"
	EvtReadyToggled       EventType = "ReadyToggled"
	EvtDisplayNameChanged EventType = "DisplayNameChanged"
	EvtGameStarting       EventType = "GameStarting"
)

type Event struct {
	Type       EventType
	Team       Team
	OccupantID string
	Size       int
}

// Apply validates cmd against s and returns the resulting events and state.
// s is never modified; on error the returned state is s itself.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if cmd.Type != CmdLeave && s.Phase != PhaseWaiting {
		return nil, s, ErrWrongPhase
	}

	newState := s.Clone()

	switch cmd.Type {
	case CmdJoin:
		if cmd.ClientID == "" {
			return nil, s, ErrUnknownOccupant
		}
		if _, _, ok := s.FindSlot(cmd.ClientID); ok {
			// Duplicate join; the seat is already held.
			return nil, s, nil
		}

		// Ties go to blue so the assignment is reproducible.
		team := TeamRed
		if s.TeamPlayerCount(TeamBlue) <= s.TeamPlayerCount(TeamRed) {
			team = TeamBlue
		}
		if !newState.Assign(cmd.ClientID, team) {
			return nil, s, ErrTeamFull
		}
		return []Event{{Type: EvtPlayerJoined, Team: team, OccupantID: cmd.ClientID}}, newState, nil

	case CmdLeave:
		team, _, ok := s.FindSlot(cmd.ClientID)
		if !ok {
			return nil, s, ErrUnknownOccupant
		}
		newState.Remove(cmd.ClientID)

		events := []Event{{Type: EvtPlayerLeft, Team: team, OccupantID: cmd.ClientID}}
		if newState.HumanCount() == 0 {
			events = append(events, Event{Type: EvtRoomEmptied})
		}
		return events, newState, nil

	case CmdSwitchTeam, CmdSwitchPlayerTeam:
		target := cmd.ClientID
		if cmd.Type == CmdSwitchPlayerTeam {
			target = cmd.PlayerID
		}
		if !validTeam(cmd.Team) {
			return nil, s, ErrInvalidTeam
		}

		from, idx, ok := s.FindSlot(target)
		if !ok {
			return nil, s, ErrUnknownOccupant
		}
		if from == cmd.Team {
			return nil, s, nil
		}
		if s.vacantIndex(cmd.Team) < 0 {
			return nil, s, ErrTeamFull
		}

		// Carry name and bot flag across; readiness resets on a move.
		prev := s.team(from)[idx]
		newState.Remove(target)
		newState.Assign(target, cmd.Team)
		if _, to, ok := newState.FindSlot(target); ok {
			slot := &newState.team(cmd.Team)[to]
			slot.DisplayName = prev.DisplayName
			slot.IsBot = prev.IsBot
			newState.recount()
		}
		return []Event{{Type: EvtTeamSwitched, Team: cmd.Team, OccupantID: target}}, newState, nil

	case CmdSetTeamSize:
		if cmd.Size < MinTeamSize || cmd.Size > MaxTeamSize {
			return nil, s, ErrInvalidTeamSize
		}
		newState.Resize(TeamBlue, cmd.Size)
		newState.Resize(TeamRed, cmd.Size)
		newState.TeamSize = cmd.Size
		return []Event{{Type: EvtTeamResized, Size: cmd.Size}}, newState, nil

	case CmdToggleReady:
		team, idx, ok := s.FindSlot(cmd.ClientID)
		if !ok {
			return nil, s, ErrUnknownOccupant
		}
		slot := &newState.team(team)[idx]
		slot.IsReady = !slot.IsReady
		return []Event{{Type: EvtReadyToggled, Team: team, OccupantID: cmd.ClientID}}, newState, nil

	case CmdSetDisplayName:
		name, ok := NormalizeDisplayName(cmd.DisplayName)
		if !ok {
			return nil, s, ErrInvalidDisplayName
		}
		team, idx, found := s.FindSlot(cmd.ClientID)
		if !found {
			return nil, s, ErrUnknownOccupant
		}
		newState.team(team)[idx].DisplayName = name
		return []Event{{Type: EvtDisplayNameChanged, Team: team, OccupantID: cmd.ClientID}}, newState, nil

	case CmdStartGame:
		if !s.CanStart {
			return nil, s, ErrCannotStart
		}
		newState.Phase = PhaseStarting
		return []Event{{Type: EvtGameStarting, Size: s.TeamSize}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// NormalizeDisplayName trims and NFC-normalizes name and reports whether the
// result is between 1 and MaxDisplayNameLen characters.
func NormalizeDisplayName(name string) (string, bool) {
	name = norm.NFC.String(strings.TrimSpace(name))
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxDisplayNameLen {
		return "", false
	}
	return name, true
}

func validTeam(t Team) bool {
	return t == TeamBlue || t == TeamRed
}

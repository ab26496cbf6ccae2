// Package types names the messages of the lobby websocket protocol.
package types

// Client -> Server
//
// switchTeam:           { team: "blue" | "red" }
// setTeamSize:          { size: 1..5 }
// startGame:            {}
// toggleReady:          {}
// switchPlayerTeam:     { player_id: string, target_team: "blue" | "red" }
// setPlayerDisplayName: { display_name: string }  // trimmed, 1..20 characters
//
// Anything malformed or unknown is dropped without a reply.
const (
	MsgSwitchTeam           = "switchTeam"
	MsgSetTeamSize          = "setTeamSize"
	MsgStartGame            = "startGame"
	MsgToggleReady          = "toggleReady"
	MsgSwitchPlayerTeam     = "switchPlayerTeam"
	MsgSetPlayerDisplayName = "setPlayerDisplayName"
)

// Server -> Client
//
// StateSnapshot: after connecting and after every accepted change.
// Handoff:       once, when the game starts; the lobby closes shortly after.
const (
	MsgStateSnapshot = "StateSnapshot"
	MsgHandoff       = "Handoff"
)

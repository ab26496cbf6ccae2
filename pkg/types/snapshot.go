package types

// StateSnapshot:
//   type: "StateSnapshot"
//   version: number
//   client_id: string              // the receiving connection's occupant id
//   state:
//     lobby_phase: "waiting" | "starting"
//     team_size: 1..5
//     blue_team_size: number       // human occupants
//     red_team_size: number
//     can_start: boolean
//     blue_team: Slot[]
//     red_team: Slot[]
//     config: string               // optional
//
// Handoff: StateSnapshot plus
//   handoff:
//     team_size: number
//     blue_team: Slot[]            // vacant seats filled with bots
//     red_team: Slot[]
//     selected_config: string
//
// Slot:
//   occupant_id: string            // omitted when vacant
//   display_name: string
//   is_bot: boolean
//   is_ready: boolean
//   archetype: string              // bots only

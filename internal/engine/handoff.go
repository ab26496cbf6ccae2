package engine

import "fmt"

// Handoff is the frozen roster handed to the game session on start.
type Handoff struct {
	TeamSize       int    `json:"team_size"`
	Blue           []Slot `json:"blue_team"`
	Red            []Slot `json:"red_team"`
	SelectedConfig string `json:"selected_config,omitempty"`
}

// BuildHandoff snapshots s and fills every vacant slot with a bot. Bot
// archetypes are assigned round-robin from archetypes, blue team first.
func BuildHandoff(s State, archetypes []string) Handoff {
	c := s.Clone()
	n := 0
	for _, team := range Teams {
		slots := c.team(team)
		for i := range slots {
			if slots[i].Occupied() {
				continue
			}
			n++
			slots[i] = Slot{
				OccupantID:  fmt.Sprintf("bot-%s-%d", team, i),
				DisplayName: fmt.Sprintf("Bot %d", n),
				IsBot:       true,
			}
			if len(archetypes) > 0 {
				slots[i].Archetype = archetypes[(n-1)%len(archetypes)]
			}
		}
	}

	return Handoff{
		TeamSize:       c.TeamSize,
		Blue:           c.Blue,
		Red:            c.Red,
		SelectedConfig: c.Config,
	}
}

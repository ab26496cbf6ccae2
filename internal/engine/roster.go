package engine

import "fmt"

// Teams is the order both teams are scanned in.
var Teams = []Team{TeamBlue, TeamRed}

// Assign seats occupantID in the first vacant slot of team. It reports false
// and changes nothing when the team is full or unknown, the id is empty, or
// the occupant already holds a slot.
func (s *State) Assign(occupantID string, team Team) bool {
	if occupantID == "" || !validTeam(team) {
		return false
	}
	if _, _, ok := s.FindSlot(occupantID); ok {
		return false
	}
	idx := s.vacantIndex(team)
	if idx < 0 {
		return false
	}

	s.team(team)[idx] = Slot{
		OccupantID:  occupantID,
		DisplayName: defaultDisplayName(occupantID),
	}
	s.recount()
	return true
}

// Remove clears the slot held by occupantID, if any.
func (s *State) Remove(occupantID string) {
	if occupantID == "" {
		return
	}
	for _, team := range Teams {
		slots := s.team(team)
		for i := range slots {
			if slots[i].OccupantID == occupantID {
				slots[i] = Slot{}
				s.recount()
				return
			}
		}
	}
}

// Resize sets team to exactly n slots. Occupied slots are kept in their
// relative order; when more than n are occupied the ones past n are dropped.
func (s *State) Resize(team Team, n int) {
	if n < MinTeamSize || n > MaxTeamSize || !validTeam(team) {
		return
	}

	slots := s.team(team)
	var resized []Slot
	if n >= len(slots) {
		resized = make([]Slot, n)
		copy(resized, slots)
	} else {
		resized = make([]Slot, 0, n)
		for _, slot := range slots {
			if slot.Occupied() && len(resized) < n {
				resized = append(resized, slot)
			}
		}
		for len(resized) < n {
			resized = append(resized, Slot{})
		}
	}

	if team == TeamBlue {
		s.Blue = resized
	} else {
		s.Red = resized
	}
	s.recount()
}

// FindSlot returns the team and index of the slot held by occupantID.
func (s State) FindSlot(occupantID string) (Team, int, bool) {
	if occupantID == "" {
		return "", -1, false
	}
	for _, team := range Teams {
		for i, slot := range s.team(team) {
			if slot.OccupantID == occupantID {
				return team, i, true
			}
		}
	}
	return "", -1, false
}

// TeamPlayerCount counts the human occupants of team.
func (s State) TeamPlayerCount(team Team) int {
	n := 0
	for _, slot := range s.team(team) {
		if slot.Occupied() && !slot.IsBot {
			n++
		}
	}
	return n
}

func (s State) HumanCount() int {
	return s.TeamPlayerCount(TeamBlue) + s.TeamPlayerCount(TeamRed)
}

// Clone returns a copy of s that shares no slot storage with it.
func (s State) Clone() State {
	c := s
	c.Blue = append([]Slot(nil), s.Blue...)
	c.Red = append([]Slot(nil), s.Red...)
	return c
}

func (s *State) recount() {
	s.BlueSize = s.TeamPlayerCount(TeamBlue)
	s.RedSize = s.TeamPlayerCount(TeamRed)
	s.CanStart = s.BlueSize+s.RedSize > 0
}

func (s State) team(t Team) []Slot {
	switch t {
	case TeamBlue:
		return s.Blue
	case TeamRed:
		return s.Red
	}
	return nil
}

func (s State) vacantIndex(t Team) int {
	for i, slot := range s.team(t) {
		if !slot.Occupied() {
			return i
		}
	}
	return -1
}

func defaultDisplayName(occupantID string) string {
	short := occupantID
	if len(short) > 4 {
		short = short[:4]
	}
	return fmt.Sprintf("Player %s", short)
}

package engine

// NewSession returns an empty waiting session with both teams sized to
// teamSize. Out-of-range sizes fall back to DefaultTeamSize.
func NewSession(teamSize int, config string) State {
	if teamSize < MinTeamSize || teamSize > MaxTeamSize {
		teamSize = DefaultTeamSize
	}
	s := State{
		Phase:    PhaseWaiting,
		TeamSize: teamSize,
		Blue:     make([]Slot, teamSize),
		Red:      make([]Slot, teamSize),
		Config:   config,
	}
	s.recount()
	return s
}

func NewEmptyState() State {
	return NewSession(DefaultTeamSize, "")
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

package game

// phaseOrder is the fixed forward-only cycle. Night sub-phases run in this
// sequence and then the day begins again.
var phaseOrder = []Phase{PhaseDay, PhaseDemons, PhaseDoctor, PhaseInspector}

func nextPhase(p Phase) Phase {
	for i, cur := range phaseOrder {
		if cur == p {
			return phaseOrder[(i+1)%len(phaseOrder)]
		}
	}
	return PhaseDay
}

// hasLivingActor reports whether anyone alive can act in the phase. A night
// sub-phase with no living actor is skipped outright.
func hasLivingActor(s *State, p Phase) bool {
	for _, pl := range s.Players {
		if !pl.IsAlive {
			continue
		}
		switch p {
		case PhaseDemons:
			if pl.Role.DemonAligned() {
				return true
			}
		case PhaseDoctor:
			if pl.Role == RoleDoctor {
				return true
			}
		case PhaseInspector:
			if pl.Role == RoleInspector {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// RequiredActors lists the living players whose submission ends the current
// phase early once every one of them has acted.
func (s *State) RequiredActors() []string {
	var ids []string
	for _, p := range s.Players {
		if !p.IsAlive {
			continue
		}
		switch s.Phase {
		case PhaseDay:
			ids = append(ids, p.ID)
		case PhaseDemons:
			if p.Role.DemonAligned() {
				ids = append(ids, p.ID)
			}
		case PhaseDoctor:
			if p.Role == RoleDoctor {
				ids = append(ids, p.ID)
			}
		case PhaseInspector:
			if p.Role == RoleInspector {
				ids = append(ids, p.ID)
			}
		}
	}
	return ids
}

func (s *State) submitted(playerID string) bool {
	if s.Phase == PhaseDay {
		_, ok := s.Votes[playerID]
		return ok
	}
	_, ok := s.NightActions[playerID]
	return ok
}

// QuorumMet reports whether every required actor still connected has
// submitted. Disconnected players are excluded so the clock never stalls on
// an absent player; an empty quorum falls back to the phase timer.
func (s *State) QuorumMet(connected func(playerID string) bool) bool {
	if s.GameState != StatePlaying {
		return false
	}
	required := 0
	for _, id := range s.RequiredActors() {
		if connected != nil && !connected(id) {
			continue
		}
		required++
		if !s.submitted(id) {
			return false
		}
	}
	return required > 0
}

package game

import "fmt"

// topTarget finds the strictly-most-voted target. tie is true when two or
// more targets share the highest count, in which case nobody is chosen.
func topTarget(counts map[string]int) (id string, votes int, tie bool) {
	for t, c := range counts {
		switch {
		case c > votes:
			id, votes, tie = t, c, false
		case c == votes && votes > 0:
			tie = true
		}
	}
	if tie {
		return "", votes, true
	}
	return id, votes, false
}

func recountVotes(s *State) {
	for _, p := range s.Players {
		p.Votes = 0
	}
	for voter, target := range s.Votes {
		v := s.Player(voter)
		t := s.Player(target)
		if v == nil || !v.IsAlive || t == nil || !t.IsAlive {
			continue
		}
		t.Votes++
	}
}

// resolveDay tallies the day's votes. The plurality leader is voted out; a
// tie for the lead eliminates nobody. Votes from or against players no
// longer alive at resolution are simply excluded. All counts are cleared
// after.
func resolveDay(s *State) []Event {
	recountVotes(s)
	counts := map[string]int{}
	for _, p := range s.Players {
		if p.Votes > 0 {
			counts[p.ID] = p.Votes
		}
	}

	var events []Event
	if id, _, tie := topTarget(counts); !tie && id != "" {
		p := s.Player(id)
		p.IsAlive = false
		p.KilledBy = KilledByVillagers
		events = append(events, Event{
			Type:       EvtPlayerEliminated,
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Cause:      KilledByVillagers,
		})
		events = append(events, systemChat(s, fmt.Sprintf("%s was voted out by the village.", p.Name)))
	} else if len(counts) > 0 {
		events = append(events, systemChat(s, "The village could not agree. Nobody was voted out."))
	}

	s.Votes = map[string]string{}
	for _, p := range s.Players {
		p.Votes = 0
	}

	return append(events, checkWin(s)...)
}

// resolveNight applies the night's submissions: the demons' majority kill
// unless the doctor saved that exact target, then every investigation. A
// tie among demon votes means no kill. Submissions from or against players
// dead at resolution are dropped.
func resolveNight(s *State) []Event {
	killCounts := map[string]int{}
	saveTarget := ""
	var investigations []PendingAction

	for _, a := range s.NightActions {
		actor := s.Player(a.ActorID)
		target := s.Player(a.TargetID)
		if actor == nil || !actor.IsAlive || target == nil || !target.IsAlive {
			continue
		}
		switch a.Kind {
		case ActionKill:
			killCounts[a.TargetID]++
		case ActionSave:
			saveTarget = a.TargetID
		case ActionInvestigate:
			investigations = append(investigations, a)
		}
	}

	var events []Event
	if id, _, tie := topTarget(killCounts); !tie && id != "" {
		if id == saveTarget {
			events = append(events, Event{Type: EvtPlayerSaved, TargetID: id})
			events = append(events, systemChat(s, "The demons struck, but the doctor was there. Everyone survived the night."))
		} else {
			p := s.Player(id)
			p.IsAlive = false
			p.KilledBy = KilledByDemons
			events = append(events, Event{
				Type:       EvtPlayerEliminated,
				PlayerID:   p.ID,
				PlayerName: p.Name,
				Cause:      KilledByDemons,
			})
			events = append(events, systemChat(s, fmt.Sprintf("%s was killed in the night.", p.Name)))
		}
	} else {
		events = append(events, systemChat(s, "The night passes quietly."))
	}

	for _, a := range investigations {
		target := s.Player(a.TargetID)
		result := InvestigationResult{
			InspectorID: a.ActorID,
			TargetID:    target.ID,
			TargetName:  target.Name,
			Result:      target.Role.Apparent(),
		}
		s.Investigations = append(s.Investigations, result)
		events = append(events, Event{
			Type:       EvtInvestigated,
			PlayerID:   a.ActorID,
			TargetID:   result.TargetID,
			TargetName: result.TargetName,
			Role:       result.Result,
		})
	}

	s.NightActions = map[string]PendingAction{}
	return append(events, checkWin(s)...)
}

// checkWin runs after every elimination. On a win the session ends in the
// same resolution step.
func checkWin(s *State) []Event {
	winner := s.Winner()
	if winner == "" {
		return nil
	}
	s.GameState = StateEnded
	s.WinningParty = winner

	text := "The villagers have won! All demons were cast out."
	if winner == AlignmentDemons {
		text = "The demons have won! The village has fallen."
	}
	chat := systemChat(s, text)
	return []Event{chat, {Type: EvtGameEnded, Winner: winner}}
}

package game

import "math/rand"

// AssignRoles deals roles over the current roster. Deterministic given rng:
// the role list is fixed by roster size and the rng only permutes who gets
// what. Every player ends up with exactly one role.
//
// Policy: demons = roster/4, minimum one; with two or more demons exactly
// one is upgraded to leader; a sole demon is the leader only when the rules
// say so. One doctor and one inspector on rosters of five or more; the rest
// are villagers.
func AssignRoles(rng *rand.Rand, s *State) error {
	n := len(s.Players)
	if n < s.Rules.MinPlayers {
		return ErrInsufficientPlayers
	}

	demons := n / 4
	if demons < 1 {
		demons = 1
	}

	roles := make([]Role, 0, n)
	if demons >= 2 {
		roles = append(roles, RoleDemonLeader)
		for i := 1; i < demons; i++ {
			roles = append(roles, RoleDemon)
		}
	} else if s.Rules.SoleDemonIsLeader {
		roles = append(roles, RoleDemonLeader)
	} else {
		roles = append(roles, RoleDemon)
	}
	if n >= 5 {
		roles = append(roles, RoleDoctor, RoleInspector)
	}
	for len(roles) < n {
		roles = append(roles, RoleVillager)
	}

	for i, idx := range rng.Perm(n) {
		s.Players[idx].Role = roles[i]
	}
	return nil
}

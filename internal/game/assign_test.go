package game

import (
	"fmt"
	"math/rand"
	"testing"
)

func testState(n int) *State {
	s := NewState("TEST01", DefaultRules())
	for i := 0; i < n; i++ {
		p := &Player{
			ID:      fmt.Sprintf("p%d", i),
			Name:    fmt.Sprintf("player%d", i),
			IsAlive: true,
		}
		if i == 0 {
			p.IsHost = true
			s.HostID = p.ID
			s.GameState = StateLobby
		}
		s.Players = append(s.Players, p)
	}
	return s
}

func countRoles(s *State) map[Role]int {
	counts := map[Role]int{}
	for _, p := range s.Players {
		counts[p.Role]++
	}
	return counts
}

func TestAssignRoles_Composition(t *testing.T) {
	cases := []struct {
		name        string
		roster      int
		wantDemons  int // demon + demonLeader
		wantLeaders int
		wantDoctor  int
		wantInspect int
	}{
		{name: "five players", roster: 5, wantDemons: 1, wantLeaders: 1, wantDoctor: 1, wantInspect: 1},
		{name: "eight players", roster: 8, wantDemons: 2, wantLeaders: 1, wantDoctor: 1, wantInspect: 1},
		{name: "twelve players", roster: 12, wantDemons: 3, wantLeaders: 1, wantDoctor: 1, wantInspect: 1},
		{name: "fifteen players", roster: 15, wantDemons: 3, wantLeaders: 1, wantDoctor: 1, wantInspect: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testState(tc.roster)
			if err := AssignRoles(rand.New(rand.NewSource(42)), s); err != nil {
				t.Fatalf("unexpected err: %v", err)
			}

			counts := countRoles(s)
			demons := counts[RoleDemon] + counts[RoleDemonLeader]
			if demons != tc.wantDemons {
				t.Fatalf("demon-aligned: got %d, want %d", demons, tc.wantDemons)
			}
			if counts[RoleDemonLeader] != tc.wantLeaders {
				t.Fatalf("leaders: got %d, want %d", counts[RoleDemonLeader], tc.wantLeaders)
			}
			if counts[RoleDoctor] != tc.wantDoctor {
				t.Fatalf("doctors: got %d, want %d", counts[RoleDoctor], tc.wantDoctor)
			}
			if counts[RoleInspector] != tc.wantInspect {
				t.Fatalf("inspectors: got %d, want %d", counts[RoleInspector], tc.wantInspect)
			}

			// Bijection: every player ends with exactly one role.
			for _, p := range s.Players {
				if p.Role == "" {
					t.Fatalf("player %s left without a role", p.ID)
				}
			}
			villagers := tc.roster - demons - tc.wantDoctor - tc.wantInspect
			if counts[RoleVillager] != villagers {
				t.Fatalf("villagers: got %d, want %d", counts[RoleVillager], villagers)
			}
		})
	}
}

func TestAssignRoles_SoleDemonConfig(t *testing.T) {
	s := testState(5)
	s.Rules.SoleDemonIsLeader = false
	if err := AssignRoles(rand.New(rand.NewSource(1)), s); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	counts := countRoles(s)
	if counts[RoleDemon] != 1 || counts[RoleDemonLeader] != 0 {
		t.Fatalf("sole demon should stay a plain demon, got %v", counts)
	}
}

func TestAssignRoles_DeterministicForSeed(t *testing.T) {
	a := testState(8)
	b := testState(8)
	if err := AssignRoles(rand.New(rand.NewSource(7)), a); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := AssignRoles(rand.New(rand.NewSource(7)), b); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for i := range a.Players {
		if a.Players[i].Role != b.Players[i].Role {
			t.Fatalf("same seed should deal identically: %s vs %s at %d",
				a.Players[i].Role, b.Players[i].Role, i)
		}
	}
}

func TestAssignRoles_InsufficientPlayers(t *testing.T) {
	s := testState(4)
	if err := AssignRoles(rand.New(rand.NewSource(1)), s); err != ErrInsufficientPlayers {
		t.Fatalf("want ErrInsufficientPlayers, got %v", err)
	}
}

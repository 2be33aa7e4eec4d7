package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func advance(t *testing.T, s *State) []Event {
	t.Helper()
	events, err := Apply(s, Command{Type: CmdAdvancePhase}, nil)
	require.NoError(t, err)
	return events
}

func hasEvent(events []Event, et EventType) bool {
	for _, e := range events {
		if e.Type == et {
			return true
		}
	}
	return false
}

func TestResolveDay_PluralityEliminates(t *testing.T) {
	// seven players so an elimination cannot end the game
	s := playingState(RoleDemonLeader, RoleDemon, RoleDoctor, RoleInspector,
		RoleVillager, RoleVillager, RoleVillager)

	// {p4: 2, p5: 1}
	s.Votes["p0"] = "p4"
	s.Votes["p1"] = "p4"
	s.Votes["p2"] = "p5"

	events := advance(t, s)

	p4 := s.Player("p4")
	assert.False(t, p4.IsAlive)
	assert.Equal(t, KilledByVillagers, p4.KilledBy)
	assert.True(t, hasEvent(events, EvtPlayerEliminated))
	assert.Equal(t, PhaseDemons, s.Phase)

	// counts cleared for the next day
	assert.Empty(t, s.Votes)
	for _, p := range s.Players {
		assert.Zero(t, p.Votes)
	}
}

func TestResolveDay_TieEliminatesNobody(t *testing.T) {
	s := playingState(RoleDemonLeader, RoleDemon, RoleDoctor, RoleInspector,
		RoleVillager, RoleVillager, RoleVillager)

	// {p4: 3, p5: 3, p6: 1}
	s.Votes["p0"] = "p4"
	s.Votes["p1"] = "p4"
	s.Votes["p2"] = "p4"
	s.Votes["p3"] = "p5"
	s.Votes["p4"] = "p5"
	s.Votes["p5"] = "p5"
	s.Votes["p6"] = "p6"

	events := advance(t, s)

	for _, p := range s.Players {
		assert.True(t, p.IsAlive, "tie must eliminate nobody")
	}
	assert.False(t, hasEvent(events, EvtPlayerEliminated))
	assert.Equal(t, PhaseDemons, s.Phase)
}

func TestResolveDay_VotesAgainstTheDeadExcluded(t *testing.T) {
	s := playingState(RoleDemonLeader, RoleDemon, RoleDoctor, RoleInspector,
		RoleVillager, RoleVillager, RoleVillager)

	s.Votes["p0"] = "p4"
	s.Votes["p1"] = "p4"
	s.Votes["p2"] = "p5"
	s.Player("p4").IsAlive = false // target dropped dead mid-phase

	advance(t, s)

	// with p4's votes excluded the tally is {p5: 1}, a strict majority
	assert.False(t, s.Player("p5").IsAlive)
}

func TestResolveNight_DoctorSaveCancelsKill(t *testing.T) {
	s := playingState(RoleDemonLeader, RoleDemon, RoleDoctor, RoleInspector,
		RoleVillager, RoleVillager, RoleVillager)
	s.Phase = PhaseInspector

	s.NightActions["p0"] = PendingAction{ActorID: "p0", TargetID: "p4", Kind: ActionKill}
	s.NightActions["p1"] = PendingAction{ActorID: "p1", TargetID: "p4", Kind: ActionKill}
	s.NightActions["p2"] = PendingAction{ActorID: "p2", TargetID: "p4", Kind: ActionSave}

	events := advance(t, s)

	assert.True(t, s.Player("p4").IsAlive, "saved target must survive")
	assert.True(t, hasEvent(events, EvtPlayerSaved))
	assert.Equal(t, PhaseDay, s.Phase)
	assert.Equal(t, 2, s.DayCount)
	assert.Empty(t, s.NightActions, "pending actions cleared at resolution")
}

func TestResolveNight_KillLandsWhenSaveMisses(t *testing.T) {
	s := playingState(RoleDemonLeader, RoleDemon, RoleDoctor, RoleInspector,
		RoleVillager, RoleVillager, RoleVillager)
	s.Phase = PhaseInspector

	s.NightActions["p0"] = PendingAction{ActorID: "p0", TargetID: "p4", Kind: ActionKill}
	s.NightActions["p1"] = PendingAction{ActorID: "p1", TargetID: "p4", Kind: ActionKill}
	s.NightActions["p2"] = PendingAction{ActorID: "p2", TargetID: "p5", Kind: ActionSave}

	advance(t, s)

	p4 := s.Player("p4")
	assert.False(t, p4.IsAlive)
	assert.Equal(t, KilledByDemons, p4.KilledBy)
}

func TestResolveNight_DemonTieKillsNobody(t *testing.T) {
	s := playingState(RoleDemonLeader, RoleDemon, RoleDoctor, RoleInspector,
		RoleVillager, RoleVillager, RoleVillager)
	s.Phase = PhaseInspector

	s.NightActions["p0"] = PendingAction{ActorID: "p0", TargetID: "p4", Kind: ActionKill}
	s.NightActions["p1"] = PendingAction{ActorID: "p1", TargetID: "p5", Kind: ActionKill}

	advance(t, s)

	for _, p := range s.Players {
		assert.True(t, p.IsAlive)
	}
}

func TestResolveNight_InvestigationMasksDemonLeader(t *testing.T) {
	cases := []struct {
		name   string
		target string
		want   Role
	}{
		{name: "demon leader appears as villager", target: "p0", want: RoleVillager},
		{name: "plain demon appears as demon", target: "p1", want: RoleDemon},
		{name: "doctor appears as doctor", target: "p2", want: RoleDoctor},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := playingState(RoleDemonLeader, RoleDemon, RoleDoctor, RoleInspector,
				RoleVillager, RoleVillager, RoleVillager)
			s.Phase = PhaseInspector
			s.NightActions["p3"] = PendingAction{ActorID: "p3", TargetID: tc.target, Kind: ActionInvestigate}

			events := advance(t, s)

			var inv *Event
			for i := range events {
				if events[i].Type == EvtInvestigated {
					inv = &events[i]
				}
			}
			require.NotNil(t, inv)
			assert.Equal(t, "p3", inv.PlayerID)
			assert.Equal(t, tc.want, inv.Role)

			require.Len(t, s.Investigations, 1)
			assert.Equal(t, tc.want, s.Investigations[0].Result)
		})
	}
}

func TestWinDetection_VillagersWinInSameResolutionStep(t *testing.T) {
	s := playingState(RoleDemonLeader, RoleDoctor, RoleInspector, RoleVillager, RoleVillager)

	// Everyone votes out the only demon.
	for _, voter := range []string{"p1", "p2", "p3", "p4"} {
		s.Votes[voter] = "p0"
	}

	events := advance(t, s)

	assert.Equal(t, StateEnded, s.GameState)
	assert.Equal(t, AlignmentVillagers, s.WinningParty)
	assert.True(t, hasEvent(events, EvtGameEnded))

	// The clock must stay halted afterwards.
	_, err := Apply(s, Command{Type: CmdAdvancePhase}, nil)
	assert.ErrorIs(t, err, ErrGameEnded)
}

func TestWinDetection_DemonsWin(t *testing.T) {
	s := playingState(RoleDemonLeader, RoleDemon, RoleVillager, RoleDoctor, RoleInspector)
	s.Player("p3").IsAlive = false
	s.Player("p4").IsAlive = false
	s.Phase = PhaseInspector

	s.NightActions["p0"] = PendingAction{ActorID: "p0", TargetID: "p2", Kind: ActionKill}
	s.NightActions["p1"] = PendingAction{ActorID: "p1", TargetID: "p2", Kind: ActionKill}

	events := advance(t, s)

	assert.Equal(t, StateEnded, s.GameState)
	assert.Equal(t, AlignmentDemons, s.WinningParty)
	assert.True(t, hasEvent(events, EvtGameEnded))
}

func TestPhaseCycle_FixedOrder(t *testing.T) {
	s := playingState(RoleDemonLeader, RoleDemon, RoleDoctor, RoleInspector,
		RoleVillager, RoleVillager, RoleVillager, RoleVillager)

	want := []Phase{
		PhaseDemons, PhaseDoctor, PhaseInspector, PhaseDay,
		PhaseDemons, PhaseDoctor, PhaseInspector, PhaseDay,
	}
	for i, phase := range want {
		advance(t, s)
		require.Equal(t, phase, s.Phase, "step %d", i)
	}
	assert.Equal(t, 3, s.DayCount)
}

func TestPhaseCycle_SkipsDeadRolePhases(t *testing.T) {
	s := playingState(RoleDemonLeader, RoleDemon, RoleDoctor, RoleInspector,
		RoleVillager, RoleVillager, RoleVillager)
	s.Player("p2").IsAlive = false // doctor

	advance(t, s)
	assert.Equal(t, PhaseDemons, s.Phase)
	advance(t, s)
	assert.Equal(t, PhaseInspector, s.Phase, "doctor phase skipped with no living doctor")

	s.Player("p3").IsAlive = false // inspector too
	advance(t, s)
	assert.Equal(t, PhaseDay, s.Phase)
	advance(t, s)
	assert.Equal(t, PhaseDemons, s.Phase)
	advance(t, s)
	assert.Equal(t, PhaseDay, s.Phase, "both night roles dead, straight back to day")
	assert.Equal(t, 3, s.DayCount)
}

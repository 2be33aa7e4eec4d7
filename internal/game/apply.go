package game

import (
	"fmt"
	"math/rand"
	"time"
)

type CommandType string

const (
	CmdStartGame    CommandType = "StartGame"
	CmdVote         CommandType = "Vote"
	CmdNightAction  CommandType = "NightAction"
	CmdChat         CommandType = "Chat"
	CmdEndPhase     CommandType = "EndPhase"
	CmdAdvancePhase CommandType = "AdvancePhase" // timer expiry or quorum
)

type Command struct {
	Type     CommandType
	PlayerID string
	TargetID string
	Action   ActionType
	Message  string
}

type EventType string

const (
	EvtGameStarted      EventType = "GameStarted"
	EvtRoleAssigned     EventType = "RoleAssigned"
	EvtVoteRecorded     EventType = "VoteRecorded"
	EvtActionRecorded   EventType = "ActionRecorded"
	EvtPhaseAdvanced    EventType = "PhaseAdvanced"
	EvtPlayerEliminated EventType = "PlayerEliminated"
	EvtPlayerSaved      EventType = "PlayerSaved"
	EvtInvestigated     EventType = "Investigated"
	EvtChatPosted       EventType = "ChatPosted"
	EvtGameEnded        EventType = "GameEnded"
)

type Event struct {
	Type       EventType
	PlayerID   string
	PlayerName string
	TargetID   string
	TargetName string
	Role       Role // RoleAssigned: true role; Investigated: apparent role
	Cause      KillCause
	Phase      Phase
	DayCount   int
	VoteCount  int
	Winner     Alignment
	Chat       ChatMessage
}

// Apply runs one command against the state, mutating it in place and
// returning the events the session layer turns into pushes. On error the
// state is unchanged.
func Apply(s *State, cmd Command, rng *rand.Rand) ([]Event, error) {
	switch cmd.Type {
	case CmdStartGame:
		return applyStartGame(s, cmd, rng)
	case CmdVote:
		return applyVote(s, cmd)
	case CmdNightAction:
		return applyNightAction(s, cmd)
	case CmdChat:
		return applyChat(s, cmd)
	case CmdEndPhase:
		if cmd.PlayerID != s.HostID {
			return nil, ErrNotHost
		}
		return applyAdvance(s)
	case CmdAdvancePhase:
		return applyAdvance(s)
	default:
		return nil, ErrUnsupportedCommand
	}
}

func applyStartGame(s *State, cmd Command, rng *rand.Rand) ([]Event, error) {
	if cmd.PlayerID != s.HostID {
		return nil, ErrNotHost
	}
	switch s.GameState {
	case StatePlaying:
		return nil, ErrGameAlreadyStarted
	case StateEnded:
		return nil, ErrGameEnded
	}
	if err := AssignRoles(rng, s); err != nil {
		return nil, err
	}

	s.GameState = StatePlaying
	s.Phase = PhaseDay
	s.DayCount = 1

	events := []Event{{Type: EvtGameStarted}}
	for _, p := range s.Players {
		events = append(events, Event{Type: EvtRoleAssigned, PlayerID: p.ID, PlayerName: p.Name, Role: p.Role})
	}
	events = append(events, systemChat(s, "Game started! Day phase begins."))
	events = append(events, Event{Type: EvtPhaseAdvanced, Phase: s.Phase, DayCount: s.DayCount})
	return events, nil
}

func applyVote(s *State, cmd Command) ([]Event, error) {
	if s.GameState != StatePlaying {
		return nil, ErrGameNotStarted
	}
	if s.Phase != PhaseDay {
		return nil, ErrInvalidPhase
	}
	voter := s.Player(cmd.PlayerID)
	if voter == nil {
		return nil, ErrUnknownPlayer
	}
	if !voter.IsAlive {
		return nil, ErrPlayerDead
	}
	target := s.Player(cmd.TargetID)
	if target == nil || !target.IsAlive {
		return nil, ErrUnknownTarget
	}

	// Last submission wins; one active vote per voter per day.
	s.Votes[voter.ID] = target.ID
	recountVotes(s)

	return []Event{{
		Type:       EvtVoteRecorded,
		PlayerID:   voter.ID,
		PlayerName: voter.Name,
		TargetID:   target.ID,
		TargetName: target.Name,
		VoteCount:  target.Votes,
	}}, nil
}

func applyNightAction(s *State, cmd Command) ([]Event, error) {
	if s.GameState != StatePlaying {
		return nil, ErrGameNotStarted
	}
	actor := s.Player(cmd.PlayerID)
	if actor == nil {
		return nil, ErrUnknownPlayer
	}
	if !actor.IsAlive {
		return nil, ErrPlayerDead
	}
	if !actionAllowed(s.Phase, actor.Role, cmd.Action) {
		return nil, ErrInvalidPhase
	}
	target := s.Player(cmd.TargetID)
	if target == nil || !target.IsAlive {
		return nil, ErrUnknownTarget
	}

	// Resubmission replaces the prior target.
	s.NightActions[actor.ID] = PendingAction{ActorID: actor.ID, TargetID: target.ID, Kind: cmd.Action}

	return []Event{{
		Type:     EvtActionRecorded,
		PlayerID: actor.ID,
		TargetID: target.ID,
	}}, nil
}

func actionAllowed(phase Phase, role Role, kind ActionType) bool {
	switch kind {
	case ActionKill:
		return phase == PhaseDemons && role.DemonAligned()
	case ActionSave:
		return phase == PhaseDoctor && role == RoleDoctor
	case ActionInvestigate:
		return phase == PhaseInspector && role == RoleInspector
	default:
		return false
	}
}

func applyChat(s *State, cmd Command) ([]Event, error) {
	p := s.Player(cmd.PlayerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	msg := ChatMessage{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Message:    cmd.Message,
		Timestamp:  time.Now(),
	}
	s.Chat = append(s.Chat, msg)
	return []Event{{Type: EvtChatPosted, Chat: msg}}, nil
}

func applyAdvance(s *State) ([]Event, error) {
	switch s.GameState {
	case StateEnded:
		return nil, ErrGameEnded
	case StatePlaying:
	default:
		return nil, ErrGameNotStarted
	}

	var events []Event
	if s.Phase == PhaseDay {
		events = append(events, resolveDay(s)...)
		if s.GameState == StateEnded {
			return events, nil
		}
	}

	next := s.Phase
	for {
		next = nextPhase(next)
		if next == PhaseDay || hasLivingActor(s, next) {
			break
		}
	}

	if next == PhaseDay {
		events = append(events, resolveNight(s)...)
		if s.GameState == StateEnded {
			return events, nil
		}
		s.DayCount++
		s.Phase = PhaseDay
		events = append(events, systemChat(s, fmt.Sprintf("Day %d begins.", s.DayCount)))
	} else {
		if s.Phase == PhaseDay {
			events = append(events, systemChat(s, "Night falls on the village."))
		}
		s.Phase = next
	}
	events = append(events, Event{Type: EvtPhaseAdvanced, Phase: s.Phase, DayCount: s.DayCount})
	return events, nil
}

func systemChat(s *State, text string) Event {
	msg := ChatMessage{
		PlayerName: "System",
		Message:    text,
		Timestamp:  time.Now(),
		IsSystem:   true,
	}
	s.Chat = append(s.Chat, msg)
	return Event{Type: EvtChatPosted, Chat: msg}
}

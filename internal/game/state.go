package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type GameState string

const (
	StatePreLobby GameState = "preLobby" // created, host not yet seated
	StateLobby    GameState = "lobby"
	StatePlaying  GameState = "playing"
	StateEnded    GameState = "ended"
)

type Phase string

const (
	PhaseDay       Phase = "day"
	PhaseDemons    Phase = "demons"
	PhaseDoctor    Phase = "doctor"
	PhaseInspector Phase = "inspector"
)

type ActionType string

const (
	ActionKill        ActionType = "kill"
	ActionSave        ActionType = "save"
	ActionInvestigate ActionType = "investigate"
)

type Player struct {
	ID       string
	Name     string
	Role     Role
	IsHost   bool
	IsAlive  bool
	Votes    int
	KilledBy KillCause
}

type ChatMessage struct {
	PlayerID   string
	PlayerName string
	Message    string
	Timestamp  time.Time
	IsSystem   bool
}

// PendingAction is one night submission, cleared when the phase resolves.
type PendingAction struct {
	ActorID  string
	TargetID string
	Kind     ActionType
}

// InvestigationResult is what the inspector learned; Result is the apparent
// role, never the true one.
type InvestigationResult struct {
	InspectorID string
	TargetID    string
	TargetName  string
	Result      Role
}

type Rules struct {
	MinPlayers        int
	MaxPlayers        int
	DayTimerSec       int
	DemonsTimerSec    int
	DoctorTimerSec    int
	InspectorTimerSec int
	AttachTimeoutSec  int // nobody connected within this window kills the session
	SoleDemonIsLeader bool
}

func DefaultRules() Rules {
	return Rules{
		MinPlayers:        5,
		MaxPlayers:        12,
		DayTimerSec:       120,
		DemonsTimerSec:    30,
		DoctorTimerSec:    20,
		InspectorTimerSec: 20,
		AttachTimeoutSec:  60,
		SoleDemonIsLeader: true,
	}
}

// State is the authoritative record of one session. It is owned by exactly
// one session actor; nothing here is safe for concurrent use.
type State struct {
	Code           string
	HostID         string
	GameState      GameState
	Phase          Phase
	DayCount       int
	Players        []*Player
	Votes          map[string]string // voterID -> targetID, day phase only
	NightActions   map[string]PendingAction
	Chat           []ChatMessage
	Investigations []InvestigationResult
	WinningParty   Alignment
	Rules          Rules
}

func NewState(code string, rules Rules) *State {
	return &State{
		Code:         code,
		GameState:    StatePreLobby,
		Phase:        PhaseDay,
		Votes:        map[string]string{},
		NightActions: map[string]PendingAction{},
		Rules:        rules,
	}
}

func (s *State) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPlayer seats a new player in the lobby. The first player becomes host.
func (s *State) AddPlayer(name string) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if s.GameState != StatePreLobby && s.GameState != StateLobby {
		return nil, ErrGameAlreadyStarted
	}
	if len(s.Players) >= s.Rules.MaxPlayers {
		return nil, ErrSessionFull
	}

	p := &Player{
		ID:      uuid.NewString(),
		Name:    name,
		IsAlive: true,
	}
	if len(s.Players) == 0 {
		p.IsHost = true
		s.HostID = p.ID
		s.GameState = StateLobby
	}
	s.Players = append(s.Players, p)
	return p, nil
}

// PhaseDuration is the configured length of the current phase in seconds.
func (s *State) PhaseDuration() int {
	switch s.Phase {
	case PhaseDemons:
		return s.Rules.DemonsTimerSec
	case PhaseDoctor:
		return s.Rules.DoctorTimerSec
	case PhaseInspector:
		return s.Rules.InspectorTimerSec
	default:
		return s.Rules.DayTimerSec
	}
}

// Clone copies the state deeply enough for a read-only snapshot: players are
// copied by value, slices and maps are fresh.
func (s *State) Clone() State {
	out := *s
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		out.Players[i] = &cp
	}
	out.Votes = make(map[string]string, len(s.Votes))
	for k, v := range s.Votes {
		out.Votes[k] = v
	}
	out.NightActions = make(map[string]PendingAction, len(s.NightActions))
	for k, v := range s.NightActions {
		out.NightActions[k] = v
	}
	out.Chat = append([]ChatMessage(nil), s.Chat...)
	out.Investigations = append([]InvestigationResult(nil), s.Investigations...)
	return out
}

func (s *State) livingByAlignment(a Alignment) int {
	n := 0
	for _, p := range s.Players {
		if p.IsAlive && p.Role.Alignment() == a {
			n++
		}
	}
	return n
}

// Winner reports which party has won, or "" while the game is undecided.
func (s *State) Winner() Alignment {
	if s.livingByAlignment(AlignmentDemons) == 0 {
		return AlignmentVillagers
	}
	if s.livingByAlignment(AlignmentVillagers) == 0 {
		return AlignmentDemons
	}
	return ""
}

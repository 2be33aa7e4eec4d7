// Package types holds the wire contract between the server and the browser
// client: one tagged client message, one tagged server message, and the
// payload views they carry. Nothing outside this package is serialized.
package types

import (
	"time"

	"github.com/XYWINGS/GuessTheMafia/internal/game"
)

// Inbound message types.
const (
	MsgGetSessions   = "get-sessions"
	MsgCreateSession = "create-session"
	MsgJoinSession   = "join-session"
	MsgStartGame     = "start-game"
	MsgVote          = "vote"
	MsgNightAction   = "night-action"
	MsgChatMessage   = "chat-message"
	MsgEndPhase      = "end-phase"
)

// Outbound message types.
const (
	MsgSessionsList        = "sessions-list"
	MsgSessionCreated      = "session-created"
	MsgSessionJoined       = "session-joined"
	MsgYourRole            = "your-role"
	MsgGameStateUpdate     = "game-state-update"
	MsgPhaseChange         = "phase-change"
	MsgVoteUpdate          = "vote-update"
	MsgInvestigationResult = "investigation-result"
	MsgError               = "error"
)

type ClientMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"sessionId,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	VoterID    string `json:"voterId,omitempty"`
	VoterName  string `json:"voterName,omitempty"`
	TargetID   string `json:"targetId,omitempty"`
	TargetName string `json:"targetName,omitempty"`
	ActionType string `json:"actionType,omitempty"`
	Message    string `json:"message,omitempty"`
}

type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	IsHost   bool   `json:"isHost"`
	IsAlive  bool   `json:"isAlive"`
	Votes    int    `json:"votes"`
	KilledBy string `json:"killedBy,omitempty"`
}

type GamePhaseView struct {
	Phase    string `json:"phase"`
	Duration int    `json:"duration"`
}

type ChatMessageView struct {
	PlayerID   string    `json:"playerId,omitempty"`
	PlayerName string    `json:"playerName"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	IsSystem   bool      `json:"isSystem,omitempty"`
}

type SessionSummary struct {
	SessionID   string `json:"sessionId"`
	PlayerCount int    `json:"playerCount"`
	HostName    string `json:"hostName"`
}

type InvestigationView struct {
	InspectorID string `json:"inspectorId"`
	TargetID    string `json:"targetId"`
	TargetName  string `json:"targetName"`
	Result      string `json:"result"`
}

type ServerMessage struct {
	Type          string             `json:"type"`
	SessionID     string             `json:"sessionId,omitempty"`
	Player        *PlayerView        `json:"player,omitempty"`
	Players       []PlayerView       `json:"players,omitempty"`
	GameState     string             `json:"gameState,omitempty"`
	GamePhase     *GamePhaseView     `json:"gamePhase,omitempty"`
	DayCount      int                `json:"dayCount,omitempty"`
	ChatMessages  []ChatMessageView  `json:"chatMessages,omitempty"`
	WinningParty  string             `json:"winningParty,omitempty"`
	Sessions      []SessionSummary   `json:"sessions,omitempty"`
	Chat          *ChatMessageView   `json:"chat,omitempty"`
	VoterID       string             `json:"voterId,omitempty"`
	VoterName     string             `json:"voterName,omitempty"`
	TargetID      string             `json:"targetId,omitempty"`
	TargetName    string             `json:"targetName,omitempty"`
	VoteCount     int                `json:"voteCount,omitempty"`
	Investigation *InvestigationView `json:"investigation,omitempty"`
	Message       string             `json:"message,omitempty"`
}

// NewPlayerView redacts the role unless the caller says it may be shown
// (game over, or the recipient's own record).
func NewPlayerView(p *game.Player, revealRole bool) PlayerView {
	v := PlayerView{
		ID:       p.ID,
		Name:     p.Name,
		IsHost:   p.IsHost,
		IsAlive:  p.IsAlive,
		Votes:    p.Votes,
		KilledBy: string(p.KilledBy),
	}
	if revealRole {
		v.Role = string(p.Role)
	}
	return v
}

func NewChatView(m game.ChatMessage) ChatMessageView {
	return ChatMessageView{
		PlayerID:   m.PlayerID,
		PlayerName: m.PlayerName,
		Message:    m.Message,
		Timestamp:  m.Timestamp,
		IsSystem:   m.IsSystem,
	}
}

// NewSnapshot builds the full game-state-update payload from a state copy.
// Roles are revealed only once the game has ended.
func NewSnapshot(s game.State) ServerMessage {
	reveal := s.GameState == game.StateEnded
	players := make([]PlayerView, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, NewPlayerView(p, reveal))
	}
	chat := make([]ChatMessageView, 0, len(s.Chat))
	for _, m := range s.Chat {
		chat = append(chat, NewChatView(m))
	}
	return ServerMessage{
		Type:         MsgGameStateUpdate,
		SessionID:    s.Code,
		Players:      players,
		GameState:    string(s.GameState),
		GamePhase:    &GamePhaseView{Phase: string(s.Phase), Duration: s.PhaseDuration()},
		DayCount:     s.DayCount,
		ChatMessages: chat,
		WinningParty: string(s.WinningParty),
	}
}

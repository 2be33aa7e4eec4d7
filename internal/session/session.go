// Package session runs one game session as an actor: a single goroutine
// owns the game state and everything else talks to it through the inbox.
// That goroutine is the only mutator, so vote recording, phase resolution
// and role assignment never race.
package session

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/XYWINGS/GuessTheMafia/internal/game"
	"github.com/XYWINGS/GuessTheMafia/internal/types"
)

type Msg interface{ isSessionMsg() }

// Attach registers a connection for an existing player (reconnect) or a
// spectating connection when PlayerID is empty. Done, when non-nil, is
// closed once the session stops serving this connection.
type Attach struct {
	ClientID string
	PlayerID string
	Outbox   chan types.ServerMessage
	Done     chan struct{}
	Reply    chan error
}

// AddPlayer seats a new player and registers their connection. Outbox may
// be nil for roster-only adds (the REST create path).
type AddPlayer struct {
	ClientID string
	Name     string
	Outbox   chan types.ServerMessage
	Done     chan struct{}
	Reply    chan AddPlayerReply
}

type AddPlayerReply struct {
	Player game.Player
	Err    error
}

type Leave struct{ ClientID string }

type FromClient struct {
	ClientID string
	PlayerID string
	Cmd      game.Command
}

// GetState reflects internal state without data races; used by the registry
// for session listings and by tests.
type GetState struct{ Reply chan View }

type Shutdown struct{}

type phaseTimeout struct{ gen int }

// attachCheck fires once after the attach deadline; a session nobody ever
// connected to reports itself empty instead of leaking.
type attachCheck struct{}

func (Attach) isSessionMsg()       {}
func (AddPlayer) isSessionMsg()    {}
func (Leave) isSessionMsg()        {}
func (FromClient) isSessionMsg()   {}
func (GetState) isSessionMsg()     {}
func (Shutdown) isSessionMsg()     {}
func (phaseTimeout) isSessionMsg() {}
func (attachCheck) isSessionMsg()  {}

type View struct {
	Version    int
	NumClients int
	State      game.State
}

type client struct {
	playerID string
	outbox   chan types.ServerMessage
	done     chan struct{}
}

type Session struct {
	Code string

	inbox    chan Msg
	state    *game.State
	rng      *rand.Rand
	log      *zap.Logger
	version  int
	timerGen int
	clients  map[string]*client
	onEmpty  func(code string)
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, code string, rules game.Rules, rng *rand.Rand, log *zap.Logger, onEmpty func(string)) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		Code:    code,
		inbox:   make(chan Msg, 64),
		state:   game.NewState(code, rules),
		rng:     rng,
		log:     log,
		clients: map[string]*client{},
		onEmpty: onEmpty,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.scheduleAttachCheck()
	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the actor has shut down and stopped servicing its
// inbox.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Send queues a message for the actor, reporting false once the session has
// shut down. Callers that need a reply must also give up on Done; Await
// does both.
func (s *Session) Send(m Msg) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	select {
	case s.inbox <- m:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Await receives a reply unless the session shuts down with the reply still
// outstanding. Replies are buffered, so a reply racing the shutdown is
// still collected.
func Await[T any](s *Session, reply <-chan T) (T, bool) {
	select {
	case v := <-reply:
		return v, true
	case <-s.ctx.Done():
		select {
		case v := <-reply:
			return v, true
		default:
			var zero T
			return zero, false
		}
	}
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Attach:
				msg.Reply <- s.handleAttach(msg)

			case AddPlayer:
				msg.Reply <- s.handleAddPlayer(msg)

			case Leave:
				s.handleLeave(msg.ClientID)
				if len(s.clients) == 0 {
					if s.onEmpty != nil {
						s.onEmpty(s.Code)
					}
					s.shutdown()
					return
				}

			case FromClient:
				s.handleCommand(msg)

			case phaseTimeout:
				if msg.gen == s.timerGen {
					s.advance()
				}

			case attachCheck:
				if len(s.clients) == 0 {
					if s.onEmpty != nil {
						s.onEmpty(s.Code)
					}
					s.shutdown()
					return
				}

			case GetState:
				msg.Reply <- View{
					Version:    s.version,
					NumClients: len(s.clients),
					State:      s.state.Clone(),
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) shutdown() {
	for id, c := range s.clients {
		s.dropClient(id, c)
	}
	s.cancel()
}

// dropClient removes a connection. The outbox is never closed from this
// side: the connection handler still sends on it, so closing here would
// panic that goroutine. The done channel tells it to stop instead.
func (s *Session) dropClient(id string, c *client) {
	delete(s.clients, id)
	if c.done != nil {
		close(c.done)
	}
}

func (s *Session) handleAttach(msg Attach) error {
	if msg.PlayerID != "" && s.state.Player(msg.PlayerID) == nil {
		return game.ErrUnknownPlayer
	}
	s.clients[msg.ClientID] = &client{playerID: msg.PlayerID, outbox: msg.Outbox, done: msg.Done}
	s.sendTo(msg.ClientID, types.NewSnapshot(s.state.Clone()))

	// A reconnecting player gets their role back, and the inspector their
	// investigation history.
	if p := s.state.Player(msg.PlayerID); p != nil && s.state.GameState == game.StatePlaying {
		s.sendTo(msg.ClientID, roleMessage(p))
		for _, inv := range s.state.Investigations {
			if inv.InspectorID == p.ID {
				s.sendTo(msg.ClientID, investigationMessage(inv))
			}
		}
	}
	return nil
}

func (s *Session) handleAddPlayer(msg AddPlayer) AddPlayerReply {
	p, err := s.state.AddPlayer(msg.Name)
	if err != nil {
		return AddPlayerReply{Err: err}
	}
	if msg.Outbox != nil {
		s.clients[msg.ClientID] = &client{playerID: p.ID, outbox: msg.Outbox, done: msg.Done}
	}
	s.log.Info("player joined",
		zap.String("player", p.Name),
		zap.Bool("host", p.IsHost))
	s.version++
	s.broadcast(types.NewSnapshot(s.state.Clone()))
	return AddPlayerReply{Player: *p}
}

func (s *Session) handleLeave(clientID string) {
	c, ok := s.clients[clientID]
	if !ok {
		return
	}
	delete(s.clients, clientID)
	if c.playerID != "" {
		s.log.Info("player disconnected", zap.String("playerId", c.playerID))
	}
	// The quorum shrank; the phase may now be complete without them.
	s.maybeAdvance()
}

func (s *Session) handleCommand(msg FromClient) {
	events, err := game.Apply(s.state, msg.Cmd, s.rng)
	if err != nil {
		s.sendTo(msg.ClientID, types.ServerMessage{Type: types.MsgError, Message: err.Error()})
		return
	}
	s.dispatch(events)
	s.version++
	s.broadcast(types.NewSnapshot(s.state.Clone()))

	switch msg.Cmd.Type {
	case game.CmdVote, game.CmdNightAction:
		s.maybeAdvance()
	}
}

// maybeAdvance ends the phase early once every required connected actor has
// submitted.
func (s *Session) maybeAdvance() {
	if s.state.QuorumMet(s.connected) {
		s.advance()
	}
}

func (s *Session) advance() {
	events, err := game.Apply(s.state, game.Command{Type: game.CmdAdvancePhase}, s.rng)
	if err != nil {
		return
	}
	s.dispatch(events)
	s.version++
	s.broadcast(types.NewSnapshot(s.state.Clone()))
}

// dispatch translates engine events into pushes and side effects. Broadcast
// of the full snapshot happens once afterwards, at the call site.
func (s *Session) dispatch(events []game.Event) {
	for _, e := range events {
		switch e.Type {
		case game.EvtGameStarted:
			s.log.Info("game started", zap.Int("players", len(s.state.Players)))

		case game.EvtRoleAssigned:
			if p := s.state.Player(e.PlayerID); p != nil {
				s.sendToPlayer(e.PlayerID, roleMessage(p))
			}

		case game.EvtVoteRecorded:
			s.broadcast(types.ServerMessage{
				Type:       types.MsgVoteUpdate,
				VoterID:    e.PlayerID,
				VoterName:  e.PlayerName,
				TargetID:   e.TargetID,
				TargetName: e.TargetName,
				VoteCount:  e.VoteCount,
			})

		case game.EvtChatPosted:
			chat := types.NewChatView(e.Chat)
			s.broadcast(types.ServerMessage{Type: types.MsgChatMessage, Chat: &chat})

		case game.EvtInvestigated:
			s.sendToPlayer(e.PlayerID, investigationMessage(game.InvestigationResult{
				InspectorID: e.PlayerID,
				TargetID:    e.TargetID,
				TargetName:  e.TargetName,
				Result:      e.Role,
			}))

		case game.EvtPlayerEliminated:
			s.log.Info("player eliminated",
				zap.String("player", e.PlayerName),
				zap.String("cause", string(e.Cause)))

		case game.EvtPhaseAdvanced:
			s.broadcast(types.ServerMessage{
				Type:      types.MsgPhaseChange,
				GamePhase: &types.GamePhaseView{Phase: string(e.Phase), Duration: s.state.PhaseDuration()},
				DayCount:  e.DayCount,
			})
			s.schedulePhaseTimer()
			s.log.Info("phase change",
				zap.String("phase", string(e.Phase)),
				zap.Int("day", e.DayCount))

		case game.EvtGameEnded:
			s.timerGen++ // halt the clock; any in-flight fire is stale
			s.log.Info("game over", zap.String("winner", string(e.Winner)))
		}
	}
}

func (s *Session) scheduleAttachCheck() {
	d := time.Duration(s.state.Rules.AttachTimeoutSec) * time.Second
	time.AfterFunc(d, func() {
		select {
		case s.inbox <- attachCheck{}:
		case <-s.ctx.Done():
		}
	})
}

// schedulePhaseTimer arms a single deadline for the current phase. The
// generation counter makes fires from a superseded phase no-ops.
func (s *Session) schedulePhaseTimer() {
	s.timerGen++
	gen := s.timerGen
	d := time.Duration(s.state.PhaseDuration()) * time.Second
	time.AfterFunc(d, func() {
		select {
		case s.inbox <- phaseTimeout{gen: gen}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) connected(playerID string) bool {
	for _, c := range s.clients {
		if c.playerID == playerID {
			return true
		}
	}
	return false
}

func (s *Session) sendTo(clientID string, msg types.ServerMessage) {
	c, ok := s.clients[clientID]
	if !ok {
		return
	}
	select {
	case c.outbox <- msg:
	default:
		// Client is slow/full - drop them.
		s.dropClient(clientID, c)
	}
}

func (s *Session) sendToPlayer(playerID string, msg types.ServerMessage) {
	for id, c := range s.clients {
		if c.playerID == playerID {
			s.sendTo(id, msg)
		}
	}
}

func (s *Session) broadcast(msg types.ServerMessage) {
	for id := range s.clients {
		s.sendTo(id, msg)
	}
}

func roleMessage(p *game.Player) types.ServerMessage {
	v := types.NewPlayerView(p, true)
	return types.ServerMessage{Type: types.MsgYourRole, Player: &v}
}

func investigationMessage(inv game.InvestigationResult) types.ServerMessage {
	return types.ServerMessage{
		Type: types.MsgInvestigationResult,
		Investigation: &types.InvestigationView{
			InspectorID: inv.InspectorID,
			TargetID:    inv.TargetID,
			TargetName:  inv.TargetName,
			Result:      string(inv.Result),
		},
	}
}

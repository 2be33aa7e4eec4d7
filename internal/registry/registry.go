// Package registry owns the code -> session map. Like the sessions it
// manages, it is an actor: one goroutine, a typed inbox, reply channels.
package registry

import (
	"context"
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/XYWINGS/GuessTheMafia/internal/game"
	"github.com/XYWINGS/GuessTheMafia/internal/session"
	"github.com/XYWINGS/GuessTheMafia/internal/types"
)

type Msg interface{ isRegistryMsg() }

type Create struct {
	Reply chan *session.Session
}

type Get struct {
	Code  string
	Reply chan *session.Session // nil when the code is unknown
}

// List replies with every session still accepting players.
type List struct {
	Reply chan []types.SessionSummary
}

type Remove struct{ Code string }

type ShutdownAll struct{}

func (Create) isRegistryMsg()      {}
func (Get) isRegistryMsg()         {}
func (List) isRegistryMsg()        {}
func (Remove) isRegistryMsg()      {}
func (ShutdownAll) isRegistryMsg() {}

type Registry struct {
	inbox    chan Msg
	sessions map[string]*session.Session
	rules    game.Rules
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, rules game.Rules, log *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:    make(chan Msg, 64),
		sessions: map[string]*session.Session{},
		rules:    rules,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go r.loop()
	return r
}

func (r *Registry) Inbox() chan<- Msg { return r.inbox }

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Create:
				msg.Reply <- r.create()

			case Get:
				msg.Reply <- r.sessions[msg.Code]

			case List:
				msg.Reply <- r.list()

			case Remove:
				if s := r.sessions[msg.Code]; s != nil {
					delete(r.sessions, msg.Code)
					r.log.Info("session removed", zap.String("session", msg.Code))
				}

			case ShutdownAll:
				for _, s := range r.sessions {
					s.Send(session.Shutdown{})
				}
				clear(r.sessions)
				r.cancel()
			}
		}
	}
}

func (r *Registry) create() *session.Session {
	var code string
	for {
		c, err := generateCode()
		if err != nil {
			r.log.Error("code generation failed", zap.Error(err))
			return nil
		}
		if _, taken := r.sessions[c]; !taken {
			code = c
			break
		}
	}

	rng := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	s := session.New(r.ctx, code, r.rules, rng, r.log.With(zap.String("session", code)), func(code string) {
		select {
		case r.inbox <- Remove{Code: code}:
		case <-r.ctx.Done():
		}
	})
	r.sessions[code] = s
	r.log.Info("session created", zap.String("session", code))
	return s
}

func (r *Registry) list() []types.SessionSummary {
	out := []types.SessionSummary{}
	for code, s := range r.sessions {
		reply := make(chan session.View, 1)
		if !s.Send(session.GetState{Reply: reply}) {
			continue // already shut down; Remove is on its way
		}
		v, ok := session.Await(s, reply)
		if !ok {
			continue
		}

		st := v.State
		if st.GameState != game.StatePreLobby && st.GameState != game.StateLobby {
			continue
		}
		if len(st.Players) == 0 {
			continue // host not seated yet, nothing to browse
		}
		host := ""
		for _, p := range st.Players {
			if p.IsHost {
				host = p.Name
			}
		}
		out = append(out, types.SessionSummary{
			SessionID:   code,
			PlayerCount: len(st.Players),
			HostName:    host,
		})
	}
	return out
}

func generateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

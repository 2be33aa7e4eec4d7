package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/XYWINGS/GuessTheMafia/internal/game"
	"github.com/XYWINGS/GuessTheMafia/internal/registry"
	"github.com/XYWINGS/GuessTheMafia/internal/session"
	"github.com/XYWINGS/GuessTheMafia/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 5 * time.Minute
)

// conn is the per-connection state the reader loop threads through: which
// session the connection is attached to, and as which player. The session
// closes done when it stops serving this connection (slow-client drop or
// session shutdown); only this side ever touches the outbox after that, so
// the channel is never closed and sends on it cannot panic.
type conn struct {
	clientID string
	playerID string
	session  *session.Session
	outbox   chan types.ServerMessage
	done     chan struct{}
	reg      *registry.Registry
	log      *zap.Logger
}

func Handler(reg *registry.Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close(websocket.StatusNormalClosure, "bye")

		c := &conn{
			clientID: uuid.NewString(),
			outbox:   make(chan types.ServerMessage, 16),
			done:     make(chan struct{}),
			reg:      reg,
			log:      log,
		}

		// Writer goroutine: everything the session pushes goes out here.
		// When the session drops us, close the socket so the reader loop
		// unwinds too.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case msg := <-c.outbox:
					payload, err := json.Marshal(msg)
					if err != nil {
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = ws.Write(ctx, websocket.MessageText, payload)
					cancel()
				case <-c.done:
					ws.Close(websocket.StatusGoingAway, "dropped")
					return
				case <-writeCtx.Done():
					return
				}
			}
		}()

		defer func() {
			if c.session != nil {
				c.session.Send(session.Leave{ClientID: c.clientID})
			}
		}()

		// Reattach straight from the upgrade request (REST-created players).
		if code := r.URL.Query().Get("session"); code != "" {
			c.attach(code, r.URL.Query().Get("player"))
		}

		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := ws.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				c.pushError("bad json")
				continue
			}
			c.handle(cm)
		}
	}
}

func (c *conn) handle(cm types.ClientMessage) {
	switch cm.Type {
	case types.MsgGetSessions:
		reply := make(chan []types.SessionSummary, 1)
		c.reg.Inbox() <- registry.List{Reply: reply}
		c.push(types.ServerMessage{Type: types.MsgSessionsList, Sessions: <-reply})

	case types.MsgCreateSession:
		c.createSession(cm.PlayerName)

	case types.MsgJoinSession:
		c.joinSession(cm.SessionID, cm.PlayerName, cm.PlayerID)

	case types.MsgStartGame:
		c.forward(game.Command{Type: game.CmdStartGame, PlayerID: c.playerID})

	case types.MsgVote:
		c.forward(game.Command{Type: game.CmdVote, PlayerID: c.playerID, TargetID: cm.TargetID})

	case types.MsgNightAction:
		c.forward(game.Command{
			Type:     game.CmdNightAction,
			PlayerID: c.playerID,
			TargetID: cm.TargetID,
			Action:   game.ActionType(cm.ActionType),
		})

	case types.MsgChatMessage:
		c.forward(game.Command{Type: game.CmdChat, PlayerID: c.playerID, Message: cm.Message})

	case types.MsgEndPhase:
		c.forward(game.Command{Type: game.CmdEndPhase, PlayerID: c.playerID})

	default:
		c.pushError("unknown message type")
	}
}

func (c *conn) createSession(name string) {
	if c.session != nil {
		c.pushError("already in a session")
		return
	}
	reply := make(chan *session.Session, 1)
	c.reg.Inbox() <- registry.Create{Reply: reply}
	s := <-reply
	if s == nil {
		c.pushError("could not create session")
		return
	}

	res, ok := c.seat(s, name)
	if !ok {
		return
	}
	if res.Err != nil {
		c.reg.Inbox() <- registry.Remove{Code: s.Code}
		c.pushError(res.Err.Error())
		return
	}

	c.session = s
	c.playerID = res.Player.ID
	view := types.NewPlayerView(&res.Player, false)
	c.push(types.ServerMessage{Type: types.MsgSessionCreated, SessionID: s.Code, Player: &view})
	c.log.Info("session created by client", zap.String("session", s.Code), zap.String("host", res.Player.Name))
}

func (c *conn) joinSession(code, name, playerID string) {
	if c.session != nil {
		c.pushError("already in a session")
		return
	}
	s := c.lookup(code)
	if s == nil {
		c.pushError("session not found")
		return
	}

	// A player id means this is a reconnect, not a new seat.
	if playerID != "" {
		if !c.reattach(s, playerID) {
			return
		}
		c.session = s
		c.playerID = playerID
		return
	}

	res, ok := c.seat(s, name)
	if !ok {
		return
	}
	if res.Err != nil {
		c.pushError(res.Err.Error())
		return
	}

	c.session = s
	c.playerID = res.Player.ID
	view := types.NewPlayerView(&res.Player, false)
	c.push(types.ServerMessage{Type: types.MsgSessionJoined, SessionID: s.Code, Player: &view})
}

func (c *conn) attach(code, playerID string) {
	s := c.lookup(code)
	if s == nil {
		c.pushError("session not found")
		return
	}
	if !c.reattach(s, playerID) {
		return
	}
	c.session = s
	c.playerID = playerID
}

// seat asks the session to add a new player. The second return is false
// when the session shut down before answering.
func (c *conn) seat(s *session.Session, name string) (session.AddPlayerReply, bool) {
	reply := make(chan session.AddPlayerReply, 1)
	if !s.Send(session.AddPlayer{ClientID: c.clientID, Name: name, Outbox: c.outbox, Done: c.done, Reply: reply}) {
		c.pushError("session closed")
		return session.AddPlayerReply{}, false
	}
	res, ok := session.Await(s, reply)
	if !ok {
		c.pushError("session closed")
		return session.AddPlayerReply{}, false
	}
	return res, true
}

func (c *conn) reattach(s *session.Session, playerID string) bool {
	reply := make(chan error, 1)
	if !s.Send(session.Attach{ClientID: c.clientID, PlayerID: playerID, Outbox: c.outbox, Done: c.done, Reply: reply}) {
		c.pushError("session closed")
		return false
	}
	err, ok := session.Await(s, reply)
	if !ok {
		c.pushError("session closed")
		return false
	}
	if err != nil {
		c.pushError(err.Error())
		return false
	}
	return true
}

func (c *conn) lookup(code string) *session.Session {
	reply := make(chan *session.Session, 1)
	c.reg.Inbox() <- registry.Get{Code: code, Reply: reply}
	return <-reply
}

func (c *conn) forward(cmd game.Command) {
	if c.session == nil {
		c.pushError("not in a session")
		return
	}
	if !c.session.Send(session.FromClient{ClientID: c.clientID, PlayerID: c.playerID, Cmd: cmd}) {
		c.pushError("session closed")
	}
}

// push hands a server-originated message to the writer. Non-blocking: if
// the writer has stopped draining (the session dropped us) the message no
// longer matters.
func (c *conn) push(msg types.ServerMessage) {
	select {
	case c.outbox <- msg:
	default:
	}
}

func (c *conn) pushError(msg string) {
	c.push(types.ServerMessage{Type: types.MsgError, Message: msg})
}

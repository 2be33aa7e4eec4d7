package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/XYWINGS/GuessTheMafia/internal/registry"
	"github.com/XYWINGS/GuessTheMafia/internal/session"
	"github.com/XYWINGS/GuessTheMafia/internal/types"
)

// CreateSession is the REST mirror of the create-session socket command:
// it seats the host without attaching a connection. The host attaches
// afterwards via /ws?session=CODE&player=ID; a session nobody connects to
// within the attach window removes itself.
func CreateSession(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PlayerName string `json:"playerName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		reply := make(chan *session.Session, 1)
		reg.Inbox() <- registry.Create{Reply: reply}
		s := <-reply
		if s == nil {
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		apReply := make(chan session.AddPlayerReply, 1)
		if !s.Send(session.AddPlayer{Name: body.PlayerName, Reply: apReply}) {
			http.Error(w, "session closed", http.StatusServiceUnavailable)
			return
		}
		res, ok := session.Await(s, apReply)
		if !ok {
			http.Error(w, "session closed", http.StatusServiceUnavailable)
			return
		}
		if res.Err != nil {
			reg.Inbox() <- registry.Remove{Code: s.Code}
			http.Error(w, res.Err.Error(), http.StatusBadRequest)
			return
		}

		player := types.NewPlayerView(&res.Player, false)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			SessionID string            `json:"sessionId"`
			Player    *types.PlayerView `json:"player"`
		}{SessionID: s.Code, Player: &player})
	}
}

// ListSessions mirrors the get-sessions socket command for browsing.
func ListSessions(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []types.SessionSummary, 1)
		reg.Inbox() <- registry.List{Reply: reply}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(<-reply)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

package game

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // MVP
}

type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

func (m *Match) sendLocked(conn *ClientConn, env Envelope) {
	if conn == nil {
		return
	}
	b, _ := json.Marshal(env)
	select {
	case conn.send <- b:
	default:
		// slow client: drop rather than stall the match
	}
}

// handleWS — WebSocket entry into a session:
// /ws?session=xxx&playerId=yyy&name=Alice&matchId=zzz (matchId optional)
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session")
	playerID := q.Get("playerId")
	name := q.Get("name")
	matchID := q.Get("matchId")

	if sessionID == "" || playerID == "" {
		http.Error(w, "missing session or playerId", http.StatusBadRequest)
		return
	}
	if name == "" {
		name = playerID
	}

	m, ok := s.matches.Get(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cc := &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}

	slot, err := m.Join(playerID, name, matchID, cc)
	if err != nil {
		_ = ws.WriteJSON(Envelope{
			Type:    "error",
			Payload: mustJSON(ErrorPayload{Code: joinErrorCode(err), Message: err.Error()}),
		})
		cc.Close()
		return
	}

	// writer loop
	go func() {
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-cc.send:
				if !ok {
					return
				}
				_ = ws.WriteMessage(websocket.TextMessage, msg)
			case <-ticker.C:
				_ = ws.WriteMessage(websocket.PingMessage, []byte{})
			}
		}
	}()

	// initial state
	m.SendStateTo(slot)

	// reader loop
	consented := false
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			m.SendErrorTo(slot, "bad_json", "invalid json")
			continue
		}

		switch env.Type {
		case "choice":
			var p ChoicePayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				m.SendErrorTo(slot, "bad_input", "invalid payload")
				continue
			}
			m.SubmitChoice(slot, p.Choice)

		case "rematch":
			m.RequestRematch(slot)

		case "leave":
			consented = true

		default:
			m.SendErrorTo(slot, "unknown_type", "unknown message type")
		}

		if consented {
			break
		}
	}

	m.Leave(slot, cc, consented)
	cc.Close()

	// last socket gone and nothing left to decide: drop the session
	if m.Finished() {
		s.matches.Remove(sessionID)
	}
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMatchIDConflict):
		return "match_id_conflict"
	case errors.Is(err, ErrMatchClosed):
		return "match_closed"
	case errors.Is(err, ErrMatchFull):
		return "match_full"
	}
	return "join_rejected"
}

package game

import "encoding/json"

// Envelope WS envelope: {"type":"...","payload":{...}}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ChoicePayload incoming
type ChoicePayload struct {
	Choice Move `json:"choice"`
}

// CountdownPayload outgoing, shared by the pre-round countdown and the
// decision window ("countdown" / "choice_timer" envelope types)
type CountdownPayload struct {
	Remaining int `json:"remaining"`
}

type PlayerLockedPayload struct {
	Player   string `json:"player"` // "p1" | "p2"
	PlayerID string `json:"playerId"`
}

// RoundRecord is appended to the match history exactly once per completed
// round and doubles as the round_result broadcast and the reporter's wire
// format. WinnerID is empty on a tie.
type RoundRecord struct {
	Round         int    `json:"round"`
	Player1Choice Move   `json:"player1Choice"`
	Player2Choice Move   `json:"player2Choice"`
	WinnerID      string `json:"winnerId"`
}

type MatchCompletePayload struct {
	WinnerID string `json:"winnerId"`
	Reason   string `json:"reason,omitempty"` // "forfeit" or empty
}

type PlayerState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Locked    bool   `json:"locked"`
	Score     int    `json:"score"`
	Choice    Move   `json:"choice,omitempty"` // own move; both only after reveal
}

type StatePayload struct {
	SessionID      string                 `json:"sessionId"`
	MatchID        string                 `json:"matchId"`
	You            string                 `json:"you,omitempty"` // "p1" | "p2"
	Phase          string                 `json:"phase"`
	Round          int                    `json:"round"`
	MaxScore       int                    `json:"maxScore"`
	CountdownTimer int                    `json:"countdownTimer"`
	ChoiceTimer    int                    `json:"choiceTimer"`
	Players        map[string]PlayerState `json:"players"` // keyed p1/p2
	History        []RoundRecord          `json:"history"`
	WinnerID       string                 `json:"winnerId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

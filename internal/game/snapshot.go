package game

// Wire-facing views of the match. The authoritative state lives on Match;
// clients only ever see StatePayload snapshots built here.

func (m *Match) buildStateLocked(viewer Slot) StatePayload {
	st := StatePayload{
		SessionID:      m.sessionID,
		MatchID:        m.matchID,
		You:            string(viewer),
		Phase:          m.phase,
		Round:          m.round,
		MaxScore:       m.cfg.MaxScore,
		CountdownTimer: m.countdownLeft,
		ChoiceTimer:    m.choiceLeft,
		Players:        map[string]PlayerState{},
		History:        append([]RoundRecord(nil), m.history...),
		WinnerID:       m.winnerID,
	}

	revealed := m.phase == PhaseReveal || m.phase == PhaseMatchEnd
	for slot, p := range map[Slot]*Player{P1: m.p1, P2: m.p2} {
		if p == nil {
			continue
		}
		ps := PlayerState{
			ID:        p.id,
			Name:      p.name,
			Connected: p.connected,
			Locked:    p.locked,
			Score:     p.score,
		}
		// a move stays private until reveal, except to its owner
		if revealed || slot == viewer {
			ps.Choice = p.choice
		}
		st.Players[string(slot)] = ps
	}
	return st
}

// Snapshot returns a read-only view with no viewer personalization.
func (m *Match) Snapshot() StatePayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.buildStateLocked("")
	st.You = ""
	return st
}

func (m *Match) SendStateTo(slot Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.playerLocked(slot)
	if p == nil || p.conn == nil {
		return
	}
	m.sendLocked(p.conn, Envelope{Type: "state", Payload: mustJSON(m.buildStateLocked(slot))})
}

func (m *Match) SendErrorTo(slot Slot, code, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.playerLocked(slot)
	if p == nil || p.conn == nil {
		return
	}
	m.sendLocked(p.conn, Envelope{Type: "error", Payload: mustJSON(ErrorPayload{Code: code, Message: message})})
}

func (m *Match) broadcastStateLocked() {
	// personalized per slot: each player sees their own pending move only
	if m.p1 != nil && m.p1.conn != nil {
		m.sendLocked(m.p1.conn, Envelope{Type: "state", Payload: mustJSON(m.buildStateLocked(P1))})
	}
	if m.p2 != nil && m.p2.conn != nil {
		m.sendLocked(m.p2.conn, Envelope{Type: "state", Payload: mustJSON(m.buildStateLocked(P2))})
	}
}

func (m *Match) broadcastLocked(env Envelope) {
	if m.p1 != nil && m.p1.conn != nil {
		m.sendLocked(m.p1.conn, env)
	}
	if m.p2 != nil && m.p2.conn != nil {
		m.sendLocked(m.p2.conn, env)
	}
}

package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type Slot string

const (
	P1 Slot = "p1"
	P2 Slot = "p2"
)

const (
	PhaseWaiting   = "waiting"
	PhaseCountdown = "countdown"
	PhaseChoosing  = "choosing"
	PhaseReveal    = "reveal"
	PhaseMatchEnd  = "match_end"
)

var (
	ErrMatchFull       = errors.New("match already has two players")
	ErrMatchIDConflict = errors.New("match id does not belong to this session")
	ErrMatchClosed     = errors.New("match has been disposed")
)

// Match is the authoritative controller for one two-player session.
// All mutation goes through its methods; timer callbacks re-acquire the
// mutex and validate a generation token so a cancelled timer that already
// fired is a no-op.
type Match struct {
	sessionID string
	mu        sync.Mutex

	cfg   Config
	sched Scheduler
	rnd   Random
	rep   Reporter
	log   *slog.Logger

	matchID string // external id, adopted from the first join that supplies one
	phase   string
	round   int
	closed  bool // no new identities after the second join

	countdownLeft int
	choiceLeft    int

	p1 *Player
	p2 *Player

	history  []RoundRecord
	winnerID string

	// phase timer (countdown tick, choice tick or inter-round delay);
	// at most one is pending at a time
	timer      TimerHandle
	timerToken int64

	disposed bool
}

type Player struct {
	id   string
	name string
	conn *ClientConn

	connected bool
	choice    Move
	locked    bool
	score     int

	grace      TimerHandle
	graceToken int64
}

func NewMatch(sessionID string, cfg Config, sched Scheduler, rnd Random, rep Reporter, log *slog.Logger) *Match {
	if rnd == nil {
		rnd = CryptoRandom{}
	}
	if rep == nil {
		rep = NopReporter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Match{
		sessionID: sessionID,
		cfg:       cfg.withDefaults(),
		sched:     sched,
		rnd:       rnd,
		rep:       rep,
		log:       log.With("session", sessionID),
		phase:     PhaseWaiting,
		round:     1,
	}
}

// Join registers a player or restores a disconnected one by identity.
// A non-empty established match id rejects any join declaring a different
// one; an empty one adopts the first id supplied.
func (m *Match) Join(playerID, name, matchID string, cc *ClientConn) (Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return "", ErrMatchClosed
	}
	if matchID != "" && m.matchID != "" && matchID != m.matchID {
		return "", ErrMatchIDConflict
	}

	// reconnect?
	if m.p1 != nil && m.p1.id == playerID {
		m.rejoinLocked(m.p1, cc)
		return P1, nil
	}
	if m.p2 != nil && m.p2.id == playerID {
		m.rejoinLocked(m.p2, cc)
		return P2, nil
	}

	if m.closed {
		return "", ErrMatchFull
	}
	if m.matchID == "" && matchID != "" {
		m.matchID = matchID
	}

	p := &Player{id: playerID, name: name, conn: cc, connected: true}
	var slot Slot
	switch {
	case m.p1 == nil:
		m.p1, slot = p, P1
	case m.p2 == nil:
		m.p2, slot = p, P2
	default:
		return "", ErrMatchFull
	}

	m.log.Info("player joined", "slot", slot, "player", playerID)

	if m.p1 != nil && m.p2 != nil {
		m.closed = true
		m.startCountdownLocked()
	}
	m.broadcastStateLocked()
	return slot, nil
}

func (m *Match) rejoinLocked(p *Player, cc *ClientConn) {
	p.conn = cc
	p.connected = true
	m.cancelGraceLocked(p)
	m.log.Info("player reconnected", "player", p.id)
	m.broadcastStateLocked()
}

// Leave marks the player disconnected. A consented leave during an active
// phase forfeits immediately; an involuntary one starts the grace window.
// Once the match has ended a leave is pure cleanup. cc identifies the socket
// that is going away: if the player already reconnected on a newer one, the
// stale leave is ignored.
func (m *Match) Leave(slot Slot, cc *ClientConn, consented bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return
	}
	p := m.playerLocked(slot)
	if p == nil {
		return
	}
	if cc != nil && p.conn != cc {
		return
	}
	p.connected = false
	p.conn = nil

	switch {
	case m.phase == PhaseMatchEnd:
		// nothing left to decide
	case m.phase == PhaseWaiting:
		m.removePlayerLocked(slot)
	case consented:
		m.forfeitLocked(slot)
		return
	default:
		m.beginGraceLocked(slot)
	}
	m.broadcastStateLocked()
}

// SubmitChoice locks in a move during the decision window. Anything else
// (wrong phase, already locked, unknown move) is silently ignored.
func (m *Match) SubmitChoice(slot Slot, mv Move) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || m.phase != PhaseChoosing {
		return
	}
	p := m.playerLocked(slot)
	if p == nil || p.locked || !ValidMove(mv) {
		return
	}

	p.choice = mv
	p.locked = true
	// the lock is public, the move is not
	m.broadcastLocked(Envelope{Type: "player_locked", Payload: mustJSON(PlayerLockedPayload{
		Player:   string(slot),
		PlayerID: p.id,
	})})
	m.broadcastStateLocked()

	if m.p1 != nil && m.p2 != nil && m.p1.locked && m.p2.locked {
		m.revealLocked()
	}
}

// RequestRematch resets the match and restarts the cycle. Effective only
// in match_end with both slots occupied.
func (m *Match) RequestRematch(slot Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || m.phase != PhaseMatchEnd || m.p1 == nil || m.p2 == nil {
		return
	}
	if m.playerLocked(slot) == nil {
		return
	}

	for _, p := range [...]*Player{m.p1, m.p2} {
		p.score = 0
		p.choice = ""
		p.locked = false
	}
	m.history = nil
	m.winnerID = ""
	m.round = 1

	m.log.Info("rematch requested", "slot", slot)
	m.startCountdownLocked()
	m.broadcastStateLocked()
}

// Dispose cancels all outstanding timers. No further mutation is possible.
func (m *Match) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return
	}
	m.disposed = true
	m.stopTimerLocked()
	for _, p := range [...]*Player{m.p1, m.p2} {
		if p != nil {
			m.cancelGraceLocked(p)
		}
	}
}

// Finished reports whether the session can be discarded: it was disposed,
// the match ended and nobody is listening anymore, or the lobby emptied out
// before a second player arrived. While any socket is still attached to an
// ended match the session stays alive so a rematch remains possible.
func (m *Match) Finished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return true
	}
	connected := (m.p1 != nil && m.p1.connected) || (m.p2 != nil && m.p2.connected)
	switch m.phase {
	case PhaseMatchEnd:
		return !connected
	case PhaseWaiting:
		return m.p1 == nil && m.p2 == nil
	}
	return false
}

// --- phase transitions (all called with m.mu held) ---

func (m *Match) startCountdownLocked() {
	m.phase = PhaseCountdown
	m.countdownLeft = m.cfg.CountdownTicks
	m.scheduleTickLocked(m.onCountdownTick)
}

func (m *Match) onCountdownTick(token int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || token != m.timerToken || m.phase != PhaseCountdown {
		return
	}
	m.countdownLeft--
	m.broadcastLocked(Envelope{Type: "countdown", Payload: mustJSON(CountdownPayload{Remaining: m.countdownLeft})})
	if m.countdownLeft <= 0 {
		m.startChoosingLocked()
		m.broadcastStateLocked()
		return
	}
	m.scheduleTickLocked(m.onCountdownTick)
	m.broadcastStateLocked()
}

func (m *Match) startChoosingLocked() {
	m.phase = PhaseChoosing
	m.choiceLeft = m.cfg.ChoiceTicks
	for _, p := range [...]*Player{m.p1, m.p2} {
		if p != nil {
			p.choice = ""
			p.locked = false
		}
	}
	m.scheduleTickLocked(m.onChoiceTick)
}

func (m *Match) onChoiceTick(token int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || token != m.timerToken || m.phase != PhaseChoosing {
		return
	}
	m.choiceLeft--
	m.broadcastLocked(Envelope{Type: "choice_timer", Payload: mustJSON(CountdownPayload{Remaining: m.choiceLeft})})
	if m.choiceLeft <= 0 {
		m.revealLocked()
		return
	}
	m.scheduleTickLocked(m.onChoiceTick)
	m.broadcastStateLocked()
}

// revealLocked closes the decision window and resolves the round. It is
// reached either from the decision-window timeout or from the last lock-in;
// stopTimerLocked plus the phase change make a second entry impossible.
func (m *Match) revealLocked() {
	if m.phase != PhaseChoosing {
		return
	}
	if m.p1 == nil || m.p2 == nil {
		// should not happen: disconnects forfeit or keep the slot
		m.log.Error("round resolution without two players, aborting", "round", m.round)
		return
	}
	m.stopTimerLocked()
	m.phase = PhaseReveal

	for _, p := range [...]*Player{m.p1, m.p2} {
		if p.choice == "" {
			p.choice = randomMove(m.rnd)
			p.locked = true
		}
	}

	rec := RoundRecord{
		Round:         m.round,
		Player1Choice: m.p1.choice,
		Player2Choice: m.p2.choice,
	}
	switch Resolve(m.p1.choice, m.p2.choice) {
	case OutcomeP1:
		rec.WinnerID = m.p1.id
		m.p1.score++
	case OutcomeP2:
		rec.WinnerID = m.p2.id
		m.p2.score++
	}
	m.history = append(m.history, rec)

	m.broadcastLocked(Envelope{Type: "round_result", Payload: mustJSON(rec)})
	m.log.Info("round resolved", "round", rec.Round, "winner", rec.WinnerID)

	if m.p1.score >= m.cfg.MaxScore {
		m.endMatchLocked(m.p1, m.p2, "")
		return
	}
	if m.p2.score >= m.cfg.MaxScore {
		m.endMatchLocked(m.p2, m.p1, "")
		return
	}

	m.timerToken++
	token := m.timerToken
	m.timer = m.sched.AfterFunc(time.Duration(m.cfg.InterRoundTicks)*m.cfg.TickInterval, func() {
		m.onInterRoundDelay(token)
	})
	m.broadcastStateLocked()
}

func (m *Match) onInterRoundDelay(token int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || token != m.timerToken || m.phase != PhaseReveal {
		return
	}
	m.round++
	m.startCountdownLocked()
	m.broadcastStateLocked()
}

func (m *Match) forfeitLocked(loserSlot Slot) {
	loser := m.playerLocked(loserSlot)
	winner := m.playerLocked(otherSlot(loserSlot))
	if loser != nil {
		m.cancelGraceLocked(loser)
	}
	m.removePlayerLocked(loserSlot)

	if winner == nil {
		m.stopTimerLocked()
		m.phase = PhaseMatchEnd
		return
	}
	m.log.Info("forfeit", "loser", loser.id, "winner", winner.id)
	m.endMatchLocked(winner, loser, "forfeit")
}

func (m *Match) endMatchLocked(winner, loser *Player, reason string) {
	m.stopTimerLocked()
	m.phase = PhaseMatchEnd
	m.winnerID = winner.id

	m.broadcastLocked(Envelope{Type: "match_complete", Payload: mustJSON(MatchCompletePayload{
		WinnerID: winner.id,
		Reason:   reason,
	})})
	m.broadcastStateLocked()

	report := MatchReport{
		MatchID:     m.matchID,
		WinnerID:    winner.id,
		LoserID:     loser.id,
		WinnerScore: winner.score,
		LoserScore:  loser.score,
		Rounds:      append([]RoundRecord(nil), m.history...),
		WagerAmount: m.cfg.WagerAmount,
		Reason:      reason,
	}
	if report.MatchID == "" {
		report.MatchID = m.sessionID
	}
	// fire-and-forget: delivery never blocks or re-enters the state machine
	go m.rep.Report(context.Background(), report)
}

// --- timers ---

func (m *Match) scheduleTickLocked(fn func(token int64)) {
	m.timerToken++
	token := m.timerToken
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.sched.AfterFunc(m.cfg.TickInterval, func() { fn(token) })
}

func (m *Match) stopTimerLocked() {
	m.timerToken++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// --- helpers ---

func (m *Match) playerLocked(slot Slot) *Player {
	if slot == P1 {
		return m.p1
	}
	return m.p2
}

func (m *Match) removePlayerLocked(slot Slot) {
	if slot == P1 {
		m.p1 = nil
	} else {
		m.p2 = nil
	}
}

func otherSlot(slot Slot) Slot {
	if slot == P1 {
		return P2
	}
	return P1
}

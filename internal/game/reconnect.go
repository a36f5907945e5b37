package game

import "time"

// Reconnection grace window: an involuntary disconnect during a live phase
// keeps the player's slot for GraceTicks. Rejoining with the same identity
// cancels the window and restores the connection with no other state change;
// expiry forfeits the match to the remaining player.

func (m *Match) beginGraceLocked(slot Slot) {
	p := m.playerLocked(slot)
	if p == nil {
		return
	}
	p.graceToken++
	token := p.graceToken
	if p.grace != nil {
		p.grace.Stop()
	}
	d := time.Duration(m.cfg.GraceTicks) * m.cfg.TickInterval
	p.grace = m.sched.AfterFunc(d, func() { m.onGraceExpired(slot, token) })
	m.log.Info("grace window started", "player", p.id, "ticks", m.cfg.GraceTicks)
}

func (m *Match) cancelGraceLocked(p *Player) {
	p.graceToken++
	if p.grace != nil {
		p.grace.Stop()
		p.grace = nil
	}
}

func (m *Match) onGraceExpired(slot Slot, token int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || m.phase == PhaseMatchEnd {
		return
	}
	p := m.playerLocked(slot)
	if p == nil || token != p.graceToken || p.connected {
		return
	}
	m.log.Info("grace window elapsed", "player", p.id)
	m.forfeitLocked(slot)
}

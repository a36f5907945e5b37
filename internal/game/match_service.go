package game

import (
	"log/slog"
	"sync"
)

// MatchService owns the in-memory registry of live sessions and the shared
// dependencies every match is built with. Sessions are independent: no state
// is shared between matches.
type MatchService struct {
	mu sync.Mutex
	in map[string]*Match

	cfg   Config
	sched Scheduler
	rnd   Random
	rep   Reporter
	log   *slog.Logger
}

func NewMatchService(cfg Config, sched Scheduler, rnd Random, rep Reporter, log *slog.Logger) *MatchService {
	if log == nil {
		log = slog.Default()
	}
	return &MatchService{
		in:    make(map[string]*Match),
		cfg:   cfg,
		sched: sched,
		rnd:   rnd,
		rep:   rep,
		log:   log,
	}
}

func (s *MatchService) Create(sessionID string) *Match {
	m := NewMatch(sessionID, s.cfg, s.sched, s.rnd, s.rep, s.log)

	s.mu.Lock()
	s.in[sessionID] = m
	s.mu.Unlock()
	return m
}

func (s *MatchService) Get(sessionID string) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.in[sessionID]
	return m, ok
}

// Remove disposes the session and drops it from the registry.
func (s *MatchService) Remove(sessionID string) {
	s.mu.Lock()
	m, ok := s.in[sessionID]
	delete(s.in, sessionID)
	s.mu.Unlock()

	if ok {
		m.Dispose()
	}
}

// Shutdown disposes every live session. Called on server stop.
func (s *MatchService) Shutdown() {
	s.mu.Lock()
	matches := make([]*Match, 0, len(s.in))
	for _, m := range s.in {
		matches = append(matches, m)
	}
	s.in = make(map[string]*Match)
	s.mu.Unlock()

	for _, m := range matches {
		m.Dispose()
	}
}

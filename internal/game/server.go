package game

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Config holds the per-match tunables. A tick is the abstract unit of all
// countdowns; TickInterval maps it to wall time.
type Config struct {
	MaxScore        int
	WagerAmount     float64
	CountdownTicks  int
	ChoiceTicks     int
	InterRoundTicks int
	GraceTicks      int
	TickInterval    time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxScore <= 0 {
		c.MaxScore = 4
	}
	if c.CountdownTicks <= 0 {
		c.CountdownTicks = 3
	}
	if c.ChoiceTicks <= 0 {
		c.ChoiceTicks = 10
	}
	if c.InterRoundTicks <= 0 {
		c.InterRoundTicks = 3
	}
	if c.GraceTicks <= 0 {
		c.GraceTicks = 30
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	return c
}

type Server struct {
	matches *MatchService
	log     *slog.Logger
}

func NewServer(matches *MatchService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{matches: matches, log: log}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/match", s.handleCreateMatch)
	mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID := uuid.NewString()
	s.matches.Create(sessionID)
	s.log.Info("session created", "session", sessionID)

	writeJSON(w, http.StatusOK, map[string]string{
		"sessionId": sessionID,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

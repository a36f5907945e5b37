package game

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MatchReport is the immutable payload delivered once per finished match.
type MatchReport struct {
	MatchID     string        `json:"matchId"`
	WinnerID    string        `json:"winnerId"`
	LoserID     string        `json:"loserId"`
	WinnerScore int           `json:"winnerScore"`
	LoserScore  int           `json:"loserScore"`
	Rounds      []RoundRecord `json:"rounds"`
	WagerAmount float64       `json:"wagerAmount"`
	Reason      string        `json:"reason,omitempty"`
}

// Reporter delivers the final result to an external record keeper.
// Implementations must never block match progress: failures are logged
// and dropped, never retried within the session's lifetime.
type Reporter interface {
	Report(ctx context.Context, r MatchReport)
}

type NopReporter struct{}

func (NopReporter) Report(context.Context, MatchReport) {}

// WebhookReporter POSTs the report to a configured endpoint with a
// shared-secret header.
type WebhookReporter struct {
	url    string
	secret string
	client *http.Client
	log    *slog.Logger
}

func NewWebhookReporter(url, secret string, timeout time.Duration, log *slog.Logger) *WebhookReporter {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookReporter{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (r *WebhookReporter) Report(ctx context.Context, rep MatchReport) {
	body, err := json.Marshal(rep)
	if err != nil {
		r.log.Warn("match report: marshal failed", "matchId", rep.MatchID, "err", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		r.log.Warn("match report: bad request", "matchId", rep.MatchID, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", r.secret)

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("match report: delivery failed", "matchId", rep.MatchID, "err", err)
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.log.Warn("match report: rejected", "matchId", rep.MatchID, "status", resp.StatusCode, "body", string(respBody))
		return
	}
	r.log.Info("match report delivered", "matchId", rep.MatchID, "winner", rep.WinnerID, "status", resp.StatusCode)
}

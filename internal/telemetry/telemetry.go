// Package telemetry pushes a per-tick summary to an external sink over
// HTTP. Failures are logged and swallowed: telemetry is observational,
// never load-bearing for the sync protocol itself.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cuemby/articlesync/internal/applog"
)

// TickReport summarizes the outcome of one sync tick.
type TickReport struct {
	TickID    string    `json:"tick_id"`
	StartedAt time.Time `json:"started_at"`
	Duration  float64   `json:"duration_seconds"`
	New       int       `json:"new"`
	Updated   int       `json:"updated"`
	Deleted   int       `json:"deleted"`
	Unchanged int       `json:"unchanged"`
	Failed    int       `json:"failed"`
	Error     string    `json:"error,omitempty"`
}

// Reporter posts TickReports to a sink URL.
type Reporter struct {
	sinkURL    string
	httpClient *http.Client
}

// New builds a Reporter. An empty sinkURL makes Report a no-op, which
// lets the daemon run with telemetry disabled.
func New(sinkURL string, timeout time.Duration) *Reporter {
	return &Reporter{
		sinkURL:    sinkURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Report posts one TickReport. Errors are logged, not returned — a
// telemetry sink outage must never fail or delay a sync tick.
func (r *Reporter) Report(ctx context.Context, report TickReport) {
	if r.sinkURL == "" {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		applog.WithComponent("telemetry").Warn().Err(err).Msg("failed to encode tick report")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.sinkURL, bytes.NewReader(payload))
	if err != nil {
		applog.WithComponent("telemetry").Warn().Err(err).Msg("failed to build telemetry request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		applog.WithComponent("telemetry").Warn().Err(err).Msg("failed to reach telemetry sink")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		applog.WithComponent("telemetry").Warn().
			Str("status", fmt.Sprintf("%d", resp.StatusCode)).
			Msg("telemetry sink rejected report")
	}
}

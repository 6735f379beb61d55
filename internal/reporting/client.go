// Package reporting posts accumulated intelligence to the external evaluation
// endpoint.
package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/scamtrap/scamtrap/internal/domain"
)

// DefaultTimeout bounds one reporting attempt.
const DefaultTimeout = 10 * time.Second

const maxBodyLen = 500

// Result describes the outcome of one reporting attempt. Report never returns
// a Go error; failures are folded into Success=false with a diagnostic Body.
type Result struct {
	Success    bool
	StatusCode int
	Body       string
}

// payload is the callback wire format. All five intelligence categories are
// always present.
type payload struct {
	SessionID              string              `json:"sessionId"`
	ScamDetected           bool                `json:"scamDetected"`
	TotalMessagesExchanged int                 `json:"totalMessagesExchanged"`
	ExtractedIntelligence  domain.Intelligence `json:"extractedIntelligence"`
	AgentNotes             string              `json:"agentNotes"`
}

// Client posts reports to a configured callback URL.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a reporting client. url may be empty, in which case every
// Report returns a failure result.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:     url,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// Report posts one session's findings. Any 2xx status counts as success.
// Timeouts, transport errors and unexpected errors are distinguished in the
// returned Body.
func (c *Client) Report(ctx context.Context, sessionID string, scamDetected bool, messageCount int, intel domain.Intelligence, notes string) Result {
	if c.url == "" {
		slog.Warn("No callback URL configured, skipping report", "session_id", sessionID)
		return Result{Body: "No callback URL configured"}
	}

	body, err := json.Marshal(payload{
		SessionID:              sessionID,
		ScamDetected:           scamDetected,
		TotalMessagesExchanged: messageCount,
		ExtractedIntelligence:  intel.Normalize(),
		AgentNotes:             notes,
	})
	if err != nil {
		return Result{Body: fmt.Sprintf("Unexpected error: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{Body: fmt.Sprintf("Unexpected error: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Info("Reporting session", "session_id", sessionID, "url", c.url, "message_count", messageCount)

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		var urlErr *url.Error
		switch {
		case errors.As(err, &netErr) && netErr.Timeout(), errors.Is(err, context.DeadlineExceeded):
			msg := fmt.Sprintf("Request timed out after %d seconds", int(c.timeout.Seconds()))
			slog.Error("Report timed out", "session_id", sessionID, "timeout", c.timeout)
			return Result{Body: msg}
		case errors.As(err, &urlErr):
			slog.Error("Report transport error", "session_id", sessionID, "error", err)
			return Result{Body: fmt.Sprintf("Request error: %v", err)}
		default:
			slog.Error("Report failed unexpectedly", "session_id", sessionID, "error", err)
			return Result{Body: fmt.Sprintf("Unexpected error: %v", err)}
		}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLen))
	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	slog.Info("Report delivered", "session_id", sessionID, "status", resp.StatusCode, "success", success)

	return Result{
		Success:    success,
		StatusCode: resp.StatusCode,
		Body:       string(raw),
	}
}

// Package pipeline sequences the per-message honeypot stages: classification,
// persona reply, intelligence extraction and conditional reporting.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/scamtrap/scamtrap/internal/agent"
	"github.com/scamtrap/scamtrap/internal/domain"
	"github.com/scamtrap/scamtrap/internal/reporting"
	"github.com/scamtrap/scamtrap/internal/store"
)

// reportThreshold is the message count above which a session is reported even
// without extracted intelligence.
const reportThreshold = 5

const (
	previewLen = 100
	notesLen   = 50
)

// Detector classifies a message for scam intent.
type Detector interface {
	Detect(ctx context.Context, text string) (bool, string)
}

// Responder generates the persona reply.
type Responder interface {
	Reply(ctx context.Context, history []domain.Message, current string) (string, string)
}

// Extractor pulls categorized intelligence out of the conversation.
type Extractor interface {
	Extract(ctx context.Context, history []domain.Message, current string) (domain.Intelligence, string)
}

// Reporter delivers findings to the external evaluation endpoint.
type Reporter interface {
	Report(ctx context.Context, sessionID string, scamDetected bool, messageCount int, intel domain.Intelligence, notes string) reporting.Result
}

// Pipeline orchestrates one inbound message end to end. Stage failures never
// abort the run; each external call degrades to a fallback value inside its
// own implementation.
type Pipeline struct {
	sessions  *store.SessionStore
	audit     *store.AuditStore
	detector  Detector
	responder Responder
	extractor Extractor
	reporter  Reporter
}

// New wires the pipeline with its stores and stage implementations.
func New(sessions *store.SessionStore, audit *store.AuditStore, detector Detector, responder Responder, extractor Extractor, reporter Reporter) *Pipeline {
	return &Pipeline{
		sessions:  sessions,
		audit:     audit,
		detector:  detector,
		responder: responder,
		extractor: extractor,
		reporter:  reporter,
	}
}

// Handle runs the full pipeline for one inbound chat message.
func (p *Pipeline) Handle(ctx context.Context, req domain.ChatRequest) domain.ChatResponse {
	channel := req.Channel()
	p.sessions.GetOrCreate(req.SessionID, channel)
	p.audit.GetOrCreate(req.SessionID, channel)
	p.audit.LogMessageReceived(req.SessionID, req.Message.Sender, req.Message.Text)

	// Classification runs only for the first message of a session; follow-ups
	// in an established scam conversation are assumed scam.
	isScam := true
	reasoning := "Follow-up message in existing scam conversation"
	if len(req.ConversationHistory) == 0 {
		start := time.Now()
		isScam, reasoning = p.detector.Detect(ctx, req.Message.Text)
		slog.Info("Scam detection complete",
			"session_id", req.SessionID,
			"is_scam", isScam,
			"duration_ms", time.Since(start).Milliseconds())
	}

	confidence := 0.1
	if isScam {
		confidence = 0.95
	}
	p.audit.LogScamDetection(req.SessionID, isScam, confidence, reasoning)

	if !isScam {
		return domain.ChatResponse{Status: "ignored", Reply: "Message received."}
	}

	scam := true
	preview := head(req.Message.Text, previewLen)
	if _, err := p.sessions.Update(req.SessionID, store.SessionUpdate{
		ScamDetected:        &scam,
		ConversationPreview: &preview,
	}); err != nil {
		p.audit.LogError(req.SessionID, "Session update failed", err)
	}

	start := time.Now()
	reply, agentReasoning := p.responder.Reply(ctx, req.ConversationHistory, req.Message.Text)
	p.audit.LogAgentResponse(req.SessionID, reply, agent.Persona, agentReasoning,
		int(time.Since(start).Milliseconds()))

	start = time.Now()
	intel, intelReasoning := p.extractor.Extract(ctx, req.ConversationHistory, req.Message.Text)
	p.audit.LogIntelExtraction(req.SessionID, intel, intelReasoning,
		int(time.Since(start).Milliseconds()))

	// history + current inbound + the agent's reply
	totalMessages := len(req.ConversationHistory) + 2

	// A failed report leaves the session active even though the decision to
	// report was made.
	status := domain.StatusActive
	if intel.HasFindings() || totalMessages > reportThreshold {
		result := p.reporter.Report(ctx, req.SessionID, true, totalMessages, intel,
			"Engaged with scammer, extracted available intelligence.")
		p.audit.LogReportSent(req.SessionID, result.Success, result.StatusCode, result.Body)
		if result.Success {
			status = domain.StatusReported
		}
	}

	notes := "Replied: " + head(reply, notesLen) + "..."
	if _, err := p.sessions.Update(req.SessionID, store.SessionUpdate{
		MessageCount: &totalMessages,
		Intelligence: intel,
		Status:       &status,
		AgentNotes:   &notes,
	}); err != nil {
		p.audit.LogError(req.SessionID, "Session update failed", err)
	}

	return domain.ChatResponse{Status: "success", Reply: reply}
}

// head returns the first n characters of s without an ellipsis. Cuts happen on
// rune boundaries so multi-byte text never ends up as invalid UTF-8.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scamtrap/scamtrap/internal/domain"
)

const maxGlobalLogs = 500

// AuditStore holds admin-facing session details and the global action log.
// Logging calls for an unknown session id are silent no-ops, with the single
// exception of LogError which always records globally.
type AuditStore struct {
	mu         sync.Mutex
	sessions   map[string]*domain.SessionDetail
	globalLogs []domain.ActionLog
}

// NewAuditStore creates an empty store.
func NewAuditStore() *AuditStore {
	return &AuditStore{
		sessions: make(map[string]*domain.SessionDetail),
	}
}

// GetOrCreate returns the detail record for id, creating it on first sight.
// Creation logs a session_start action.
func (s *AuditStore) GetOrCreate(id, channel string) *domain.SessionDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.sessions[id]
	if !ok {
		detail = domain.NewSessionDetail(id, channel)
		s.sessions[id] = detail
		log := domain.NewActionLog(
			id,
			domain.ActionSessionStart,
			"New Session Started",
			fmt.Sprintf("Honeypot session initiated from %s", detail.Channel),
		)
		log.Reasoning = "New conversation detected, initializing session tracking"
		s.recordLocked(log)
	}
	return detail.Clone()
}

// LogMessageReceived appends an inbound message to the transcript.
func (s *AuditStore) LogMessageReceived(id, sender, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.sessions[id]
	if !ok {
		return
	}
	detail.AddMessage(sender, text)

	log := domain.NewActionLog(
		id,
		domain.ActionMessageReceived,
		fmt.Sprintf("Message from %s", strings.ToUpper(sender)),
		domain.Truncate(text, 100),
	)
	log.InputData = map[string]string{"sender": sender, "text": text}
	s.recordLocked(log)
}

// LogScamDetection records a classification result on the session detail.
func (s *AuditStore) LogScamDetection(id string, isScam bool, confidence float64, reasoning string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.sessions[id]
	if !ok {
		return
	}
	detail.ScamDetected = isScam
	detail.ScamConfidence = confidence
	detail.ScamReasoning = reasoning

	verdict := "NEGATIVE"
	details := "No scam detected"
	if isScam {
		verdict = "POSITIVE"
		details = "Scam intent detected"
	}
	if reasoning != "" {
		details = reasoning
	}

	log := domain.NewActionLog(
		id,
		domain.ActionScamDetection,
		fmt.Sprintf("Scam Detection: %s", verdict),
		details,
	)
	log.Reasoning = reasoning
	log.OutputData = map[string]any{"isScam": isScam, "confidence": confidence}
	s.recordLocked(log)
}

// LogAgentResponse records a generated persona reply and appends it to the
// transcript as an agent message.
func (s *AuditStore) LogAgentResponse(id, reply, persona, reasoning string, durationMs int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.sessions[id]
	if !ok {
		return
	}
	detail.LastAgentReply = reply
	detail.AddMessage("agent", reply)

	if reasoning == "" {
		reasoning = fmt.Sprintf("Generated response as %s to engage scammer", persona)
	}
	log := domain.NewActionLog(
		id,
		domain.ActionAgentResponse,
		fmt.Sprintf("Agent Response (%s)", persona),
		domain.Truncate(reply, 100),
	)
	log.Reasoning = reasoning
	log.OutputData = map[string]string{"reply": reply, "persona": persona}
	log.DurationMs = durationMs
	s.recordLocked(log)
}

// LogIntelExtraction merges extracted intelligence into the admin copy and
// records the count of genuinely new items. The merge is the same function
// the session store uses, so both views always agree on ordering and counts.
func (s *AuditStore) LogIntelExtraction(id string, intelligence domain.Intelligence, reasoning string, durationMs int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.sessions[id]
	if !ok {
		return
	}

	newCounts := domain.MergeIntelligence(detail.Intelligence, intelligence)
	totalNew := 0
	for _, n := range newCounts {
		totalNew += n
	}

	if reasoning == "" {
		reasoning = "Analyzed conversation for UPIs, phone numbers, links, etc."
	}
	log := domain.NewActionLog(
		id,
		domain.ActionIntelExtraction,
		"Intelligence Extracted",
		fmt.Sprintf("Found %d new intelligence items", totalNew),
	)
	log.Reasoning = reasoning
	log.OutputData = intelligence.Clone()
	log.DurationMs = durationMs
	s.recordLocked(log)
}

// LogReportSent records a callback attempt. The session flips to "reported"
// only when the callback succeeded; a failed attempt leaves it active.
func (s *AuditStore) LogReportSent(id string, success bool, responseCode int, responseBody string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.sessions[id]
	if !ok {
		return
	}
	detail.ReportAttempts++
	if success {
		detail.Status = domain.StatusReported
	}

	outcome := "Failed"
	verb := "failed"
	if success {
		outcome = "Sent"
		verb = "succeeded"
	}
	log := domain.NewActionLog(
		id,
		domain.ActionReportSent,
		fmt.Sprintf("Report %s", outcome),
		fmt.Sprintf("Evaluation callback %s (HTTP %d)", verb, responseCode),
	)
	log.Reasoning = "Sending extracted intelligence to evaluation endpoint"
	log.OutputData = map[string]any{
		"responseCode": responseCode,
		"responseBody": domain.Truncate(responseBody, 200),
	}
	log.Success = success
	s.recordLocked(log)
}

// LogError records a failure. Unlike the other logging calls it always records
// globally, even when the session id is unknown.
func (s *AuditStore) LogError(id, title string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := domain.NewActionLog(id, domain.ActionError, title, err.Error())
	log.Success = false
	s.recordLocked(log)
}

// recordLocked prepends to the capped global log and, when the session exists,
// appends to its own log. Caller holds the store mutex.
func (s *AuditStore) recordLocked(log domain.ActionLog) {
	s.globalLogs = append([]domain.ActionLog{log}, s.globalLogs...)
	if len(s.globalLogs) > maxGlobalLogs {
		s.globalLogs = s.globalLogs[:maxGlobalLogs]
	}

	if detail, ok := s.sessions[log.SessionID]; ok {
		detail.AddActionLog(log)
	}
}

// AuditStats is the aggregate view served at /api/admin/stats.
type AuditStats struct {
	TotalSessions     int `json:"totalSessions"`
	ActiveSessions    int `json:"activeSessions"`
	ScamsDetected     int `json:"scamsDetected"`
	SessionsReported  int `json:"sessionsReported"`
	TotalMessages     int `json:"totalMessages"`
	TotalIntelligence int `json:"totalIntelligence"`
	TotalLogs         int `json:"totalLogs"`
}

// Stats aggregates admin counters across all sessions.
func (s *AuditStore) Stats() AuditStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := AuditStats{
		TotalSessions: len(s.sessions),
		TotalLogs:     len(s.globalLogs),
	}
	for _, detail := range s.sessions {
		if detail.Status == domain.StatusActive {
			stats.ActiveSessions++
		}
		if detail.ScamDetected {
			stats.ScamsDetected++
		}
		if detail.Status == domain.StatusReported {
			stats.SessionsReported++
		}
		stats.TotalMessages += len(detail.Messages)
		stats.TotalIntelligence += detail.Intelligence.Total()
	}
	return stats
}

// GlobalLogs returns up to limit entries from the global log, newest first.
func (s *AuditStore) GlobalLogs(limit int) []domain.ActionLogView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.globalLogs) {
		limit = len(s.globalLogs)
	}
	now := time.Now()
	views := make([]domain.ActionLogView, 0, limit)
	for _, log := range s.globalLogs[:limit] {
		views = append(views, log.View(now))
	}
	return views
}

// SessionSummaries returns all sessions, most recently updated first.
func (s *AuditStore) SessionSummaries() []domain.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	details := make([]*domain.SessionDetail, 0, len(s.sessions))
	for _, detail := range s.sessions {
		details = append(details, detail)
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].UpdatedAt.After(details[j].UpdatedAt)
	})

	summaries := make([]domain.SessionSummary, 0, len(details))
	for _, detail := range details {
		summaries = append(summaries, detail.Summary())
	}
	return summaries
}

// SessionDetail returns the full detail for a session, or nil when unknown.
func (s *AuditStore) SessionDetail(id string) *domain.SessionDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.sessions[id]
	if !ok {
		return nil
	}
	return detail.Clone()
}

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionType identifies which pipeline step produced an ActionLog entry.
type ActionType string

const (
	ActionSessionStart    ActionType = "session_start"
	ActionMessageReceived ActionType = "message_received"
	ActionScamDetection   ActionType = "scam_detection"
	ActionAgentResponse   ActionType = "agent_response"
	ActionIntelExtraction ActionType = "intel_extraction"
	ActionReportSent      ActionType = "report_sent"
	ActionError           ActionType = "error"
)

// ActionLog records one pipeline step for the admin view. Entries are created
// once and never mutated.
type ActionLog struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"sessionId"`
	ActionType ActionType `json:"actionType"`
	Title      string     `json:"title"`
	Details    string     `json:"details"`
	Reasoning  string     `json:"reasoning,omitempty"`
	InputData  any        `json:"inputData,omitempty"`
	OutputData any        `json:"outputData,omitempty"`
	DurationMs int        `json:"durationMs"`
	Success    bool       `json:"success"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewActionLog creates an entry with a short random id and the current time.
func NewActionLog(sessionID string, actionType ActionType, title, details string) ActionLog {
	return ActionLog{
		ID:         uuid.NewString()[:12],
		SessionID:  sessionID,
		ActionType: actionType,
		Title:      title,
		Details:    details,
		Success:    true,
		Timestamp:  time.Now(),
	}
}

// ActionLogView is an ActionLog with a human-readable relative age attached.
type ActionLogView struct {
	ActionLog
	TimeAgo string `json:"timeAgo"`
}

// View renders the entry for the admin log feed.
func (l ActionLog) View(now time.Time) ActionLogView {
	return ActionLogView{ActionLog: l, TimeAgo: logAge(now, l.Timestamp)}
}

func logAge(now, t time.Time) string {
	delta := now.Sub(t)
	switch {
	case delta < 5*time.Second:
		return "Just now"
	case delta < time.Minute:
		return fmt.Sprintf("%ds ago", int(delta.Seconds()))
	case delta < time.Hour:
		return fmt.Sprintf("%dm ago", int(delta.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(delta.Hours()))
	}
}

// ConversationMessage is one transcript entry in the admin session view.
type ConversationMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionDetail is the admin-facing state of one honeypot conversation. It
// tracks the full transcript and per-session action log alongside a separate
// copy of the session's intelligence.
type SessionDetail struct {
	SessionID      string                `json:"sessionId"`
	Channel        string                `json:"channel"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	Status         string                `json:"status"`
	ScamDetected   bool                  `json:"scamDetected"`
	ScamConfidence float64               `json:"scamConfidence"`
	ScamReasoning  string                `json:"scamReasoning"`
	Messages       []ConversationMessage `json:"messages"`
	ActionLogs     []ActionLog           `json:"actionLogs"`
	Intelligence   Intelligence          `json:"intelligence"`
	AgentPersona   string                `json:"agentPersona"`
	ReportAttempts int                   `json:"reportAttempts"`
	LastAgentReply string                `json:"lastAgentReply"`
}

// NewSessionDetail creates a detail record with defaults applied.
func NewSessionDetail(sessionID, channel string) *SessionDetail {
	now := time.Now()
	if channel == "" {
		channel = "Unknown"
	}
	return &SessionDetail{
		SessionID:    sessionID,
		Channel:      channel,
		CreatedAt:    now,
		UpdatedAt:    now,
		Status:       StatusActive,
		Intelligence: NewIntelligence(),
		AgentPersona: "Grandma Betty",
	}
}

// AddMessage appends a transcript entry and refreshes UpdatedAt.
func (d *SessionDetail) AddMessage(sender, text string) {
	d.Messages = append(d.Messages, ConversationMessage{
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	})
	d.UpdatedAt = time.Now()
}

// AddActionLog appends a log entry and refreshes UpdatedAt.
func (d *SessionDetail) AddActionLog(log ActionLog) {
	d.ActionLogs = append(d.ActionLogs, log)
	d.UpdatedAt = time.Now()
}

// Clone returns a deep copy safe to hand out past the store lock.
func (d *SessionDetail) Clone() *SessionDetail {
	out := *d
	out.Messages = append([]ConversationMessage(nil), d.Messages...)
	out.ActionLogs = append([]ActionLog(nil), d.ActionLogs...)
	out.Intelligence = d.Intelligence.Clone()
	return &out
}

// SessionSummary is the compact admin listing of a session.
type SessionSummary struct {
	SessionID    string    `json:"sessionId"`
	Channel      string    `json:"channel"`
	Status       string    `json:"status"`
	ScamDetected bool      `json:"scamDetected"`
	MessageCount int       `json:"messageCount"`
	ActionCount  int       `json:"actionCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastMessage  string    `json:"lastMessage"`
}

// Summary condenses the detail for list views.
func (d *SessionDetail) Summary() SessionSummary {
	last := ""
	if len(d.Messages) > 0 {
		last = Truncate(d.Messages[len(d.Messages)-1].Text, 50)
	}
	return SessionSummary{
		SessionID:    d.SessionID,
		Channel:      d.Channel,
		Status:       d.Status,
		ScamDetected: d.ScamDetected,
		MessageCount: len(d.Messages),
		ActionCount:  len(d.ActionLogs),
		UpdatedAt:    d.UpdatedAt,
		LastMessage:  last,
	}
}

// Truncate shortens s to max characters, appending "..." when cut. Cuts happen
// on rune boundaries so multi-byte text never ends up as invalid UTF-8.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

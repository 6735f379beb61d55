package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session status values. A session never leaves StatusReported once it is set.
const (
	StatusActive   = "active"
	StatusReported = "reported"
)

// Session is the dashboard-facing state of one honeypot conversation.
type Session struct {
	SessionID           string       `json:"sessionId"`
	Channel             string       `json:"channel"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
	MessageCount        int          `json:"messageCount"`
	ScamDetected        bool         `json:"scamDetected"`
	Status              string       `json:"status"`
	Intelligence        Intelligence `json:"intelligence"`
	AgentNotes          string       `json:"agentNotes"`
	ConversationPreview string       `json:"conversationPreview"`
}

// NewSession creates a session with defaults applied.
func NewSession(sessionID, channel string) *Session {
	now := time.Now()
	if channel == "" {
		channel = "Unknown"
	}
	return &Session{
		SessionID:    sessionID,
		Channel:      channel,
		CreatedAt:    now,
		UpdatedAt:    now,
		Status:       StatusActive,
		Intelligence: NewIntelligence(),
	}
}

// Clone returns a deep copy safe to hand out past the store lock.
func (s *Session) Clone() *Session {
	out := *s
	out.Intelligence = s.Intelligence.Clone()
	return &out
}

// ActivityEvent is one immutable entry in the dashboard activity feed.
type ActivityEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // engaged, scam, intel, reported
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Channel     string    `json:"channel"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewActivityEvent creates an activity event with a short random id.
func NewActivityEvent(eventType, title, description, channel string) ActivityEvent {
	return ActivityEvent{
		ID:          uuid.NewString()[:8],
		Type:        eventType,
		Title:       title,
		Description: description,
		Channel:     channel,
		Timestamp:   time.Now(),
	}
}

// ActivityView is an ActivityEvent with a human-readable relative age attached.
type ActivityView struct {
	ActivityEvent
	Time string `json:"time"`
}

// View renders the event for the dashboard feed.
func (e ActivityEvent) View(now time.Time) ActivityView {
	return ActivityView{ActivityEvent: e, Time: relativeAge(now, e.Timestamp)}
}

func relativeAge(now, t time.Time) string {
	delta := now.Sub(t)
	switch {
	case delta < time.Minute:
		return "Just now"
	case delta < time.Hour:
		return fmt.Sprintf("%d min ago", int(delta.Minutes()))
	case delta < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(delta.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(delta.Hours()/24))
	}
}

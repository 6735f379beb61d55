// Package store provides the in-memory session and audit stores. All state is
// process-lifetime only; nothing survives a restart.
package store

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/scamtrap/scamtrap/internal/domain"
)

// ErrSessionNotFound is returned by Update for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

const maxActivities = 100

// ActivitySink receives every activity event the store emits. Implemented by
// the websocket feed hub.
type ActivitySink interface {
	Publish(event domain.ActivityEvent)
}

// SessionUpdate is a partial update; nil fields are left untouched.
type SessionUpdate struct {
	ScamDetected        *bool
	MessageCount        *int
	Intelligence        domain.Intelligence
	Status              *string
	AgentNotes          *string
	ConversationPreview *string
}

// SessionStore holds dashboard-facing session state. One mutex guards the
// whole store; every public method is a single critical section, so a
// multi-field update is never partially visible.
type SessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*domain.Session
	activities []domain.ActivityEvent
	totalScams int
	totalIntel int
	sink       ActivitySink
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
	}
}

// SetActivitySink attaches a sink that receives every emitted activity event.
// Must be called before the store starts serving requests.
func (s *SessionStore) SetActivitySink(sink ActivitySink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// GetOrCreate returns the session for id, creating it on first sight. Creation
// emits one "engaged" activity; subsequent calls return the existing session
// unmodified.
func (s *SessionStore) GetOrCreate(id, channel string) *domain.Session {
	s.mu.Lock()

	var events []domain.ActivityEvent
	session, ok := s.sessions[id]
	if !ok {
		session = domain.NewSession(id, channel)
		s.sessions[id] = session
		events = append(events, s.addActivityLocked(
			"engaged",
			"New Session Started",
			"Honeypot engaged with potential scammer",
			session.Channel,
		))
	}
	clone := session.Clone()
	sink := s.sink
	s.mu.Unlock()

	publishEvents(sink, events)
	return clone
}

// Update applies a partial update to the session. Side effects (counters,
// activity events) happen atomically with the field changes:
//
//   - the first ScamDetected=true increments the scam counter and emits one
//     "scam" activity; the flag never flips back
//   - Intelligence is merged union-only; the intel counter grows by the number
//     of genuinely new items and one "intel" activity is emitted per category
//     that gained items
//   - Status transitioning to "reported" emits one "reported" activity; a
//     reported session never reverts to active
func (s *SessionStore) Update(id string, update SessionUpdate) (*domain.Session, error) {
	s.mu.Lock()

	session, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	session.UpdatedAt = time.Now()

	var events []domain.ActivityEvent
	if update.ScamDetected != nil && *update.ScamDetected && !session.ScamDetected {
		session.ScamDetected = true
		s.totalScams++
		events = append(events, s.addActivityLocked(
			"scam",
			"Scam Detected",
			"Fraudulent intent confirmed in session",
			session.Channel,
		))
	}

	if update.MessageCount != nil {
		session.MessageCount = *update.MessageCount
	}

	if update.Intelligence != nil {
		newCounts := domain.MergeIntelligence(session.Intelligence, update.Intelligence)
		for _, key := range domain.IntelligenceCategories {
			added := newCounts[key]
			if added == 0 {
				continue
			}
			s.totalIntel += added
			events = append(events, s.addActivityLocked(
				"intel",
				"Intelligence Extracted",
				fmt.Sprintf("Captured %d new %s from conversation", added, key),
				session.Channel,
			))
		}
	}

	if update.Status != nil && session.Status != domain.StatusReported {
		session.Status = *update.Status
		if session.Status == domain.StatusReported {
			events = append(events, s.addActivityLocked(
				"reported",
				"Session Reported",
				"Intelligence sent to evaluation endpoint",
				session.Channel,
			))
		}
	}

	if update.AgentNotes != nil {
		session.AgentNotes = *update.AgentNotes
	}

	if update.ConversationPreview != nil {
		session.ConversationPreview = *update.ConversationPreview
	}

	clone := session.Clone()
	sink := s.sink
	s.mu.Unlock()

	publishEvents(sink, events)
	return clone, nil
}

// addActivityLocked prepends an activity and truncates the feed, returning the
// event for delivery after the lock is released. Caller holds the store mutex.
func (s *SessionStore) addActivityLocked(eventType, title, description, channel string) domain.ActivityEvent {
	event := domain.NewActivityEvent(eventType, title, description, channel)
	s.activities = append([]domain.ActivityEvent{event}, s.activities...)
	if len(s.activities) > maxActivities {
		s.activities = s.activities[:maxActivities]
	}
	return event
}

// publishEvents delivers events to the sink. Sink writes can block on slow
// websocket subscribers, so this must never run under the store mutex.
func publishEvents(sink ActivitySink, events []domain.ActivityEvent) {
	if sink == nil {
		return
	}
	for _, event := range events {
		sink.Publish(event)
	}
}

// DashboardStats is the aggregate view served at /api/dashboard/stats.
type DashboardStats struct {
	TotalSessions  int     `json:"totalSessions"`
	ActiveSessions int     `json:"activeSessions"`
	ScamsDetected  int     `json:"scamsDetected"`
	AvgEngagement  float64 `json:"avgEngagement"`
	IntelExtracted int     `json:"intelExtracted"`
	ThreatLevel    int     `json:"threatLevel"`
}

// Stats aggregates session counts for the dashboard.
func (s *SessionStore) Stats() DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.sessions)
	active := 0
	messages := 0
	for _, session := range s.sessions {
		if session.Status == domain.StatusActive {
			active++
		}
		messages += session.MessageCount
	}

	avg := 0.0
	if total > 0 {
		avg = math.Round(float64(messages)/float64(total)*10) / 10
	}

	threat := s.totalScams*10 + active*5
	if threat > 100 {
		threat = 100
	}

	return DashboardStats{
		TotalSessions:  total,
		ActiveSessions: active,
		ScamsDetected:  s.totalScams,
		AvgEngagement:  avg,
		IntelExtracted: s.totalIntel,
		ThreatLevel:    threat,
	}
}

// RecentActivities returns up to limit activity events, newest first.
func (s *SessionStore) RecentActivities(limit int) []domain.ActivityView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.activities) {
		limit = len(s.activities)
	}
	now := time.Now()
	views := make([]domain.ActivityView, 0, limit)
	for _, event := range s.activities[:limit] {
		views = append(views, event.View(now))
	}
	return views
}

// RecentSessions returns up to limit sessions, most recently updated first.
func (s *SessionStore) RecentSessions(limit int) []*domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]*domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	if limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}

	out := make([]*domain.Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session.Clone())
	}
	return out
}

// IntelligenceSummary returns per-category item totals across all sessions.
func (s *SessionStore) IntelligenceSummary() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := make(map[string]int, len(domain.IntelligenceCategories))
	for _, key := range domain.IntelligenceCategories {
		summary[key] = 0
	}
	for _, session := range s.sessions {
		for _, key := range domain.IntelligenceCategories {
			summary[key] += len(session.Intelligence[key])
		}
	}
	return summary
}

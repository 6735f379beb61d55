package store

import (
	"errors"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/scamtrap/scamtrap/internal/domain"
)

func boolPtr(b bool) *bool    { return &b }
func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestGetOrCreate_Idempotent(t *testing.T) {
	s := NewSessionStore()

	first := s.GetOrCreate("sess-1", "WhatsApp")
	second := s.GetOrCreate("sess-1", "SMS")

	if second.Channel != "WhatsApp" {
		t.Errorf("Channel should be set once at creation, got %q", second.Channel)
	}
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Error("Second call should return the existing session unmodified")
	}

	activities := s.RecentActivities(0)
	if len(activities) != 1 || activities[0].Type != "engaged" {
		t.Errorf("Expected exactly one engaged activity, got %v", activities)
	}
}

func TestUpdate_UnknownSession(t *testing.T) {
	s := NewSessionStore()
	if _, err := s.Update("nope", SessionUpdate{MessageCount: intPtr(1)}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestUpdate_ScamDetectedMonotonic(t *testing.T) {
	s := NewSessionStore()
	s.GetOrCreate("sess-1", "SMS")

	session, err := s.Update("sess-1", SessionUpdate{ScamDetected: boolPtr(true)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !session.ScamDetected {
		t.Fatal("Expected scamDetected to be set")
	}
	if s.Stats().ScamsDetected != 1 {
		t.Errorf("Expected scam counter 1, got %d", s.Stats().ScamsDetected)
	}

	// Repeated and false updates must not change the flag or the counter.
	s.Update("sess-1", SessionUpdate{ScamDetected: boolPtr(true)})
	session, _ = s.Update("sess-1", SessionUpdate{ScamDetected: boolPtr(false)})
	if !session.ScamDetected {
		t.Error("scamDetected must never flip back to false")
	}
	if s.Stats().ScamsDetected != 1 {
		t.Errorf("Scam counter should still be 1, got %d", s.Stats().ScamsDetected)
	}
}

func TestUpdate_StatusNeverRevertsFromReported(t *testing.T) {
	s := NewSessionStore()
	s.GetOrCreate("sess-1", "SMS")

	s.Update("sess-1", SessionUpdate{Status: strPtr(domain.StatusReported)})
	session, _ := s.Update("sess-1", SessionUpdate{Status: strPtr(domain.StatusActive)})

	if session.Status != domain.StatusReported {
		t.Errorf("Status reverted to %q after being reported", session.Status)
	}

	reported := 0
	for _, a := range s.RecentActivities(0) {
		if a.Type == "reported" {
			reported++
		}
	}
	if reported != 1 {
		t.Errorf("Expected exactly one reported activity, got %d", reported)
	}
}

func TestUpdate_IntelligenceMergeCountsAndActivities(t *testing.T) {
	s := NewSessionStore()
	s.GetOrCreate("sess-1", "SMS")

	s.Update("sess-1", SessionUpdate{
		Intelligence: domain.Intelligence{"upiIds": {"a@upi", "b@upi"}},
	})
	session, _ := s.Update("sess-1", SessionUpdate{
		Intelligence: domain.Intelligence{"upiIds": {"b@upi", "c@upi"}},
	})

	want := []string{"a@upi", "b@upi", "c@upi"}
	if !reflect.DeepEqual(session.Intelligence["upiIds"], want) {
		t.Errorf("Expected %v, got %v", want, session.Intelligence["upiIds"])
	}
	if got := s.Stats().IntelExtracted; got != 3 {
		t.Errorf("Expected intel counter 3, got %d", got)
	}

	intelEvents := 0
	for _, a := range s.RecentActivities(0) {
		if a.Type == "intel" {
			intelEvents++
		}
	}
	if intelEvents != 2 {
		t.Errorf("Expected one intel activity per merge that found new items, got %d", intelEvents)
	}
}

func TestActivities_CappedNewestFirst(t *testing.T) {
	s := NewSessionStore()
	for i := 0; i < 150; i++ {
		s.GetOrCreate("sess-"+strconv.Itoa(i), "SMS")
	}

	activities := s.RecentActivities(0)
	if len(activities) != 100 {
		t.Fatalf("Expected activity feed capped at 100, got %d", len(activities))
	}
	for i := 1; i < len(activities); i++ {
		if activities[i].Timestamp.After(activities[i-1].Timestamp) {
			t.Fatal("Activity feed is not ordered newest-first")
		}
	}
}

func TestRecentSessions_SortedByUpdatedAt(t *testing.T) {
	s := NewSessionStore()
	s.GetOrCreate("old", "SMS")
	s.GetOrCreate("new", "SMS")
	s.Update("old", SessionUpdate{MessageCount: intPtr(4)})

	sessions := s.RecentSessions(1)
	if len(sessions) != 1 || sessions[0].SessionID != "old" {
		t.Errorf("Expected most recently updated session first, got %v", sessions)
	}
}

func TestIntelligenceSummary(t *testing.T) {
	s := NewSessionStore()
	s.GetOrCreate("a", "SMS")
	s.GetOrCreate("b", "SMS")
	s.Update("a", SessionUpdate{Intelligence: domain.Intelligence{"phoneNumbers": {"9876543210"}}})
	s.Update("b", SessionUpdate{Intelligence: domain.Intelligence{"phoneNumbers": {"9123456780"}}})

	summary := s.IntelligenceSummary()
	if summary["phoneNumbers"] != 2 {
		t.Errorf("Expected 2 phone numbers across sessions, got %d", summary["phoneNumbers"])
	}
	if summary["bankAccounts"] != 0 {
		t.Errorf("Expected empty category present with 0, got %d", summary["bankAccounts"])
	}
}

// blockingSink stalls inside Publish until released, signalling when delivery
// has started.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Publish(domain.ActivityEvent) {
	close(s.entered)
	<-s.release
}

func TestSessionStore_SinkDeliveryDoesNotHoldLock(t *testing.T) {
	s := NewSessionStore()
	sink := &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
	s.SetActivitySink(sink)

	done := make(chan struct{})
	go func() {
		s.GetOrCreate("sess-1", "SMS")
		close(done)
	}()

	<-sink.entered

	// With delivery in flight, other store calls must still go through.
	statsDone := make(chan struct{})
	go func() {
		s.Stats()
		s.RecentActivities(0)
		close(statsDone)
	}()
	select {
	case <-statsDone:
	case <-time.After(time.Second):
		t.Fatal("Store blocked behind a slow activity subscriber")
	}

	close(sink.release)
	<-done
}

func TestSessionStore_ConcurrentAccess(t *testing.T) {
	s := NewSessionStore()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := "sess-" + strconv.Itoa(n%3)
			s.GetOrCreate(id, "SMS")
			s.Update(id, SessionUpdate{
				ScamDetected: boolPtr(true),
				Intelligence: domain.Intelligence{"suspiciousKeywords": {"urgent"}},
			})
			s.Stats()
			s.RecentSessions(5)
		}(i)
	}
	wg.Wait()

	if got := s.Stats().TotalSessions; got != 3 {
		t.Errorf("Expected 3 sessions, got %d", got)
	}
}

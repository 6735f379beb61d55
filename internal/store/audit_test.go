package store

import (
	"errors"
	"reflect"
	"strconv"
	"testing"

	"github.com/scamtrap/scamtrap/internal/domain"
)

func TestAuditGetOrCreate_LogsSessionStart(t *testing.T) {
	s := NewAuditStore()

	s.GetOrCreate("sess-1", "Email")
	s.GetOrCreate("sess-1", "SMS")

	logs := s.GlobalLogs(0)
	if len(logs) != 1 {
		t.Fatalf("Expected one session_start log, got %d", len(logs))
	}
	if logs[0].ActionType != domain.ActionSessionStart {
		t.Errorf("Expected session_start, got %s", logs[0].ActionType)
	}

	detail := s.SessionDetail("sess-1")
	if detail.Channel != "Email" {
		t.Errorf("Channel should be set once at creation, got %q", detail.Channel)
	}
}

func TestLogMessageReceived_AppendsTranscript(t *testing.T) {
	s := NewAuditStore()
	s.GetOrCreate("sess-1", "SMS")

	s.LogMessageReceived("sess-1", "scammer", "send me your upi")

	detail := s.SessionDetail("sess-1")
	if len(detail.Messages) != 1 || detail.Messages[0].Sender != "scammer" {
		t.Errorf("Expected one scammer message in transcript, got %v", detail.Messages)
	}
	if len(detail.ActionLogs) != 2 {
		t.Errorf("Expected session_start + message_received in session log, got %d", len(detail.ActionLogs))
	}
}

func TestLogging_UnknownSessionIsNoOp(t *testing.T) {
	s := NewAuditStore()

	s.LogMessageReceived("ghost", "scammer", "hello")
	s.LogScamDetection("ghost", true, 0.95, "reasoning")
	s.LogAgentResponse("ghost", "reply", "Grandma Betty", "", 10)
	s.LogIntelExtraction("ghost", domain.NewIntelligence(), "", 10)
	s.LogReportSent("ghost", true, 200, "ok")

	if logs := s.GlobalLogs(0); len(logs) != 0 {
		t.Errorf("Expected no logs for unknown session, got %d", len(logs))
	}
}

func TestLogError_AlwaysRecordsGlobally(t *testing.T) {
	s := NewAuditStore()

	s.LogError("ghost", "Stage failed", errors.New("boom"))

	logs := s.GlobalLogs(0)
	if len(logs) != 1 {
		t.Fatalf("Expected one error log for unknown session, got %d", len(logs))
	}
	if logs[0].ActionType != domain.ActionError || logs[0].Success {
		t.Errorf("Expected failed error entry, got %+v", logs[0])
	}
}

func TestLogReportSent_StatusFlipsOnlyOnSuccess(t *testing.T) {
	s := NewAuditStore()
	s.GetOrCreate("sess-1", "SMS")

	s.LogReportSent("sess-1", false, 0, "Request timed out after 10 seconds")

	detail := s.SessionDetail("sess-1")
	if detail.Status != domain.StatusActive {
		t.Errorf("Failed report must leave session active, got %q", detail.Status)
	}
	if detail.ReportAttempts != 1 {
		t.Errorf("Expected 1 report attempt, got %d", detail.ReportAttempts)
	}

	s.LogReportSent("sess-1", true, 200, "ok")

	detail = s.SessionDetail("sess-1")
	if detail.Status != domain.StatusReported {
		t.Errorf("Successful report should mark session reported, got %q", detail.Status)
	}
	if detail.ReportAttempts != 2 {
		t.Errorf("Expected 2 report attempts, got %d", detail.ReportAttempts)
	}
}

func TestLogIntelExtraction_UsesSharedMerge(t *testing.T) {
	s := NewAuditStore()
	s.GetOrCreate("sess-1", "SMS")

	s.LogIntelExtraction("sess-1", domain.Intelligence{"upiIds": {"a@upi", "b@upi"}}, "", 5)
	s.LogIntelExtraction("sess-1", domain.Intelligence{"upiIds": {"b@upi", "c@upi"}}, "", 5)

	detail := s.SessionDetail("sess-1")
	want := []string{"a@upi", "b@upi", "c@upi"}
	if !reflect.DeepEqual(detail.Intelligence["upiIds"], want) {
		t.Errorf("Expected %v, got %v", want, detail.Intelligence["upiIds"])
	}

	logs := s.GlobalLogs(0)
	if logs[0].Details != "Found 1 new intelligence items" {
		t.Errorf("Second merge should report 1 new item, got %q", logs[0].Details)
	}
}

func TestGlobalLogs_CappedNewestFirst(t *testing.T) {
	s := NewAuditStore()
	for i := 0; i < 600; i++ {
		s.LogError("sess", "entry "+strconv.Itoa(i), errors.New("x"))
	}

	logs := s.GlobalLogs(0)
	if len(logs) != 500 {
		t.Fatalf("Expected global log capped at 500, got %d", len(logs))
	}
	if logs[0].Title != "entry 599" {
		t.Errorf("Expected newest entry first, got %q", logs[0].Title)
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].Timestamp.After(logs[i-1].Timestamp) {
			t.Fatal("Global log is not ordered newest-first")
		}
	}
}

func TestAuditStats(t *testing.T) {
	s := NewAuditStore()
	s.GetOrCreate("a", "SMS")
	s.GetOrCreate("b", "SMS")
	s.LogMessageReceived("a", "scammer", "hi")
	s.LogScamDetection("a", true, 0.95, "scam")
	s.LogReportSent("a", true, 200, "ok")

	stats := s.Stats()
	if stats.TotalSessions != 2 {
		t.Errorf("Expected 2 sessions, got %d", stats.TotalSessions)
	}
	if stats.ActiveSessions != 1 {
		t.Errorf("Expected 1 active session, got %d", stats.ActiveSessions)
	}
	if stats.SessionsReported != 1 {
		t.Errorf("Expected 1 reported session, got %d", stats.SessionsReported)
	}
	if stats.ScamsDetected != 1 {
		t.Errorf("Expected 1 scam detected, got %d", stats.ScamsDetected)
	}
	if stats.TotalMessages != 1 {
		t.Errorf("Expected 1 message, got %d", stats.TotalMessages)
	}
}

func TestSessionSummaries_SortedByUpdatedAt(t *testing.T) {
	s := NewAuditStore()
	s.GetOrCreate("old", "SMS")
	s.GetOrCreate("new", "SMS")
	s.LogMessageReceived("old", "scammer", "a very long message that should be truncated in the summary view somewhere")

	summaries := s.SessionSummaries()
	if summaries[0].SessionID != "old" {
		t.Errorf("Expected most recently updated session first, got %q", summaries[0].SessionID)
	}
	if len(summaries[0].LastMessage) > 53 {
		t.Errorf("Expected last message truncated to 50 chars plus ellipsis, got %q", summaries[0].LastMessage)
	}
}

func TestSessionDetail_UnknownReturnsNil(t *testing.T) {
	s := NewAuditStore()
	if detail := s.SessionDetail("nope"); detail != nil {
		t.Errorf("Expected nil for unknown session, got %v", detail)
	}
}

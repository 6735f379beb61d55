package reporting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scamtrap/scamtrap/internal/domain"
)

func TestReport_Success(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	intel := domain.Intelligence{"upiIds": {"a@upi"}}
	result := c.Report(context.Background(), "sess-1", true, 6, intel, "notes")

	if !result.Success {
		t.Fatalf("Expected success, got %+v", result)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", result.StatusCode)
	}
	if result.Body != `{"ok":true}` {
		t.Errorf("Unexpected body %q", result.Body)
	}

	// All five categories must be present in the payload even when empty.
	extracted, ok := received["extractedIntelligence"].(map[string]any)
	if !ok {
		t.Fatalf("Missing extractedIntelligence in payload: %v", received)
	}
	for _, key := range domain.IntelligenceCategories {
		if _, ok := extracted[key]; !ok {
			t.Errorf("Expected category %q in payload", key)
		}
	}
	if received["totalMessagesExchanged"] != float64(6) {
		t.Errorf("Expected totalMessagesExchanged 6, got %v", received["totalMessagesExchanged"])
	}
}

func TestReport_Non2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	result := c.Report(context.Background(), "sess-1", true, 2, domain.NewIntelligence(), "")

	if result.Success {
		t.Error("Expected failure for HTTP 500")
	}
	if result.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", result.StatusCode)
	}
}

func TestReport_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	result := c.Report(context.Background(), "sess-1", true, 2, domain.NewIntelligence(), "")

	if result.Success {
		t.Error("Expected failure on timeout")
	}
	if !strings.Contains(result.Body, "timed out") {
		t.Errorf("Expected timeout diagnostic, got %q", result.Body)
	}
}

func TestReport_TransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	result := c.Report(context.Background(), "sess-1", true, 2, domain.NewIntelligence(), "")

	if result.Success {
		t.Error("Expected failure on connection refused")
	}
	if !strings.Contains(result.Body, "Request error") {
		t.Errorf("Expected transport diagnostic, got %q", result.Body)
	}
}

func TestReport_NoURLConfigured(t *testing.T) {
	c := NewClient("", time.Second)
	result := c.Report(context.Background(), "sess-1", true, 2, domain.NewIntelligence(), "")

	if result.Success {
		t.Error("Expected failure when no URL configured")
	}
	if result.Body != "No callback URL configured" {
		t.Errorf("Unexpected body %q", result.Body)
	}
}

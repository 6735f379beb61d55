package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/scamtrap/scamtrap/internal/domain"
)

// fakeBackend serves a canned chat-completion response.
func fakeBackend(t *testing.T, body string) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestReply_NilClientFallback(t *testing.T) {
	e := New(nil, "")

	reply, reasoning := e.Reply(context.Background(), nil, "send your otp")
	if reply != fallbackReply {
		t.Errorf("Expected canned fallback reply, got %q", reply)
	}
	if reasoning != "Fallback response (no API key)" {
		t.Errorf("Unexpected reasoning %q", reasoning)
	}
}

func TestReply_LLMResponse(t *testing.T) {
	e := New(fakeBackend(t, `{"choices":[{"message":{"content":"Oh my, which app is that, dear?"}}]}`), "test-model")

	history := []domain.Message{
		{Sender: "scammer", Text: "install the app"},
		{Sender: "user", Text: "what app?"},
	}
	reply, reasoning := e.Reply(context.Background(), history, "the banking app, hurry")
	if reply != "Oh my, which app is that, dear?" {
		t.Errorf("Unexpected reply %q", reply)
	}
	if !strings.Contains(reasoning, "Persona: "+Persona) || !strings.Contains(reasoning, "Turn: 2") {
		t.Errorf("Unexpected reasoning %q", reasoning)
	}
}

func TestReply_EmptyChoicesFallsBack(t *testing.T) {
	e := New(fakeBackend(t, `{"choices":[]}`), "test-model")

	reply, reasoning := e.Reply(context.Background(), nil, "send your otp")
	if reply != confusedReply {
		t.Errorf("Expected confused fallback reply, got %q", reply)
	}
	if reasoning != "Error in agent generation: model returned no choices" {
		t.Errorf("Unexpected reasoning %q", reasoning)
	}
}

// Package agent generates stalling persona replies to keep scammers engaged.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/scamtrap/scamtrap/internal/domain"
)

// Persona is the fixed fictional character used for all replies.
const Persona = "Grandma Betty"

const personaPrompt = `You are an elderly person named 'Grandma Betty'.
You are non-tech savvy, polite, slightly confused, and worried about your accounts.
Your goal is to waste the scammer's time by asking clarifying questions, acting confused,
and pretending to comply but failing at technical steps.
Do NOT reveal you are an AI.
Keep responses short and conversational.`

const (
	fallbackReply = "Oh no, really? What should I do?"
	confusedReply = "I am confused. Can you explain again?"
)

// Engine turns conversation history into a persona reply. A nil client returns
// a canned reply so the pipeline keeps working without an API key.
type Engine struct {
	client *openai.Client
	model  string
}

// New creates an engine. client may be nil.
func New(client *openai.Client, model string) *Engine {
	return &Engine{client: client, model: model}
}

// Reply generates the next persona message and a reasoning string describing
// the stalling strategy. Generation errors are absorbed into a default
// confused reply with the error text as reasoning.
func (e *Engine) Reply(ctx context.Context, history []domain.Message, current string) (string, string) {
	if e.client == nil {
		return fallbackReply, "Fallback response (no API key)"
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: personaPrompt,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleAssistant
		if msg.Sender == "scammer" {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: current,
	})

	turn := len(history)/2 + 1
	strategy := stallingStrategy(turn)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		slog.Error("Agent reply generation failed", "error", err)
		return confusedReply, fmt.Sprintf("Error in agent generation: %v", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("Agent reply generation returned no choices")
		return confusedReply, "Error in agent generation: model returned no choices"
	}

	reply := resp.Choices[0].Message.Content
	reasoning := fmt.Sprintf("Strategy: %s | Persona: %s | Turn: %d | Response length: %d chars",
		strategy, Persona, turn, len(reply))
	return reply, reasoning
}

func stallingStrategy(turn int) string {
	switch {
	case turn <= 2:
		return "Initial engagement: Acting confused and asking for clarification"
	case turn <= 5:
		return "Building rapport: Pretending to try but having technical difficulties"
	default:
		return "Prolonged engagement: Stalling with more questions to waste scammer's time"
	}
}

// Package detector classifies inbound messages for scam intent.
package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a scam detection expert. Analyze the following message and determine if it is a scam (phishing, fraud, urgency tactics, financial request, impersonation).

Reply with JSON format:
{
    "is_scam": true/false,
    "confidence": 0.0-1.0,
    "reason": "Detailed explanation of why this is/isn't a scam",
    "indicators": ["list", "of", "red", "flags"]
}`

// fallbackKeywords drive classification when no LLM client is configured.
var fallbackKeywords = []string{"bank", "verify", "blocked", "urgent", "upi", "account"}

type verdict struct {
	IsScam     bool     `json:"is_scam"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
	Indicators []string `json:"indicators"`
}

// Detector classifies message text. A nil client falls back to keyword
// matching, which keeps the service usable without an API key.
type Detector struct {
	client *openai.Client
	model  string
}

// New creates a detector. client may be nil.
func New(client *openai.Client, model string) *Detector {
	return &Detector{client: client, model: model}
}

// Detect returns whether text looks like a scam, plus a reasoning string.
// Classification errors are absorbed: the error text becomes the reasoning and
// the message is treated as not-scam.
func (d *Detector) Detect(ctx context.Context, text string) (bool, string) {
	if d.client == nil {
		return keywordDetect(text)
	}

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		slog.Error("Scam detection call failed", "error", err)
		return false, fmt.Sprintf("Error in scam detection: %v", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("Scam detection returned no choices")
		return false, "Error in scam detection: model returned no choices"
	}

	content := stripFences(resp.Choices[0].Message.Content)

	var v verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		slog.Error("Scam detection returned unparseable JSON", "error", err, "response", content)
		return false, fmt.Sprintf("Error in scam detection: %v", err)
	}

	reasoning := v.Reason
	if reasoning == "" {
		reasoning = "No reason provided"
	}
	if len(v.Indicators) > 0 {
		reasoning += " | Indicators: " + strings.Join(v.Indicators, ", ")
	}
	reasoning += fmt.Sprintf(" | Confidence: %.0f%%", v.Confidence*100)

	return v.IsScam, reasoning
}

func keywordDetect(text string) (bool, string) {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range fallbackKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	if len(found) > 0 {
		return true, "Keyword match detected: " + strings.Join(found, ", ")
	}
	return false, "No scam keywords detected"
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Package extractor pulls structured intelligence out of conversation text.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/scamtrap/scamtrap/internal/domain"
)

const systemPrompt = `Analyze the following conversation and extract intelligence about the scammer.
Return JSON format:
{
    "bankAccounts": ["list of account numbers"],
    "upiIds": ["list of UPI IDs like name@upi"],
    "phishingLinks": ["list of URLs"],
    "phoneNumbers": ["list of phone numbers"],
    "suspiciousKeywords": ["list of keywords like 'urgent', 'verify', 'blocked'"],
    "analysis": "Brief summary of what was found and scam tactics identified"
}
Only include items actually found in the text. Return empty lists if not found.`

var (
	upiPattern   = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z]+`)
	phonePattern = regexp.MustCompile(`\b[6-9]\d{9}\b`)
	urlPattern   = regexp.MustCompile(`https?://\S+`)

	fallbackKeywords = []string{"urgent", "verify", "blocked", "suspend", "immediately", "kyc"}
)

// Extractor finds intelligence in conversations. A nil client falls back to
// regex extraction.
type Extractor struct {
	client *openai.Client
	model  string
}

// New creates an extractor. client may be nil.
func New(client *openai.Client, model string) *Extractor {
	return &Extractor{client: client, model: model}
}

// Extract returns categorized intelligence from the conversation plus a
// reasoning string. All five categories are always present in the result.
// Extraction errors are absorbed into an empty result with the error text as
// reasoning.
func (x *Extractor) Extract(ctx context.Context, history []domain.Message, current string) (domain.Intelligence, string) {
	if x.client == nil {
		return regexExtract(history, current)
	}

	var sb strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Sender, msg.Text)
	}
	fmt.Fprintf(&sb, "scammer: %s\n", current)

	resp, err := x.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: x.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		slog.Error("Intelligence extraction call failed", "error", err)
		return domain.NewIntelligence(), fmt.Sprintf("Error in extraction: %v", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("Intelligence extraction returned no choices")
		return domain.NewIntelligence(), "Error in extraction: model returned no choices"
	}

	var raw struct {
		BankAccounts       []string `json:"bankAccounts"`
		UPIIDs             []string `json:"upiIds"`
		PhishingLinks      []string `json:"phishingLinks"`
		PhoneNumbers       []string `json:"phoneNumbers"`
		SuspiciousKeywords []string `json:"suspiciousKeywords"`
		Analysis           string   `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &raw); err != nil {
		slog.Error("Intelligence extraction returned unparseable JSON", "error", err)
		return domain.NewIntelligence(), fmt.Sprintf("Error in extraction: %v", err)
	}

	intel := domain.Intelligence{
		"bankAccounts":       raw.BankAccounts,
		"upiIds":             raw.UPIIDs,
		"phishingLinks":      raw.PhishingLinks,
		"phoneNumbers":       raw.PhoneNumbers,
		"suspiciousKeywords": raw.SuspiciousKeywords,
	}.Normalize()

	reasoning := fmt.Sprintf("LLM extraction: Found %d intelligence items", intel.Total())
	if raw.Analysis != "" {
		reasoning += " | Analysis: " + raw.Analysis
	}
	return intel, reasoning
}

func regexExtract(history []domain.Message, current string) (domain.Intelligence, string) {
	var sb strings.Builder
	sb.WriteString(current)
	for _, msg := range history {
		sb.WriteString(" ")
		sb.WriteString(msg.Text)
	}
	text := sb.String()
	lower := strings.ToLower(text)

	keywords := []string{}
	for _, kw := range fallbackKeywords {
		if strings.Contains(lower, kw) {
			keywords = append(keywords, kw)
		}
	}

	intel := domain.Intelligence{
		"upiIds":             upiPattern.FindAllString(text, -1),
		"phishingLinks":      urlPattern.FindAllString(text, -1),
		"phoneNumbers":       phonePattern.FindAllString(text, -1),
		"suspiciousKeywords": keywords,
	}.Normalize()

	reasoning := fmt.Sprintf(
		"Regex extraction (fallback): Found %d items - %d UPIs, %d phones, %d links, %d keywords",
		intel.Total(), len(intel["upiIds"]), len(intel["phoneNumbers"]),
		len(intel["phishingLinks"]), len(intel["suspiciousKeywords"]),
	)
	return intel, reasoning
}

// Package domain defines the core data types for the honeypot service.
package domain

// Message is a single message in a honeypot conversation.
type Message struct {
	Sender    string `json:"sender"` // "scammer", "user" or "agent"
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Metadata carries optional channel information supplied by the webhook caller.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// ChatRequest is the inbound webhook payload.
type ChatRequest struct {
	SessionID           string    `json:"sessionId"`
	Message             Message   `json:"message"`
	ConversationHistory []Message `json:"conversationHistory"`
	Metadata            *Metadata `json:"metadata,omitempty"`
}

// Channel resolves the conversation channel, defaulting to "Unknown".
func (r *ChatRequest) Channel() string {
	if r.Metadata != nil && r.Metadata.Channel != "" {
		return r.Metadata.Channel
	}
	return "Unknown"
}

// ChatResponse is returned to the webhook caller.
type ChatResponse struct {
	Status string `json:"status"` // "ignored" or "success"
	Reply  string `json:"reply"`
}

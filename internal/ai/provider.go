package ai

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned when the selected provider has no credential.
var ErrMissingAPIKey = errors.New("AI API key not configured")

// Provider is the interface that all AI backends must implement.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string // "openai" or "gemini"
	Configured() bool
}

// ChatRequest is a provider-agnostic request.
type ChatRequest struct {
	Messages         []Message
	Temperature      float64
	MaxTokens        int
	TopP             float64
	PresencePenalty  float64
	FrequencyPenalty float64
}

// ChatResponse is a provider-agnostic response.
type ChatResponse struct {
	Content    string
	TokensUsed int
	Model      string // e.g. "gpt-4o-mini" or "gemini-2.5-flash"
	Provider   string
}

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

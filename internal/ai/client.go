package ai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/thinkscotty/reelforge/internal/config"
)

// DefaultModel is the OpenAI model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// Fixed sampling parameters for pack generation.
const (
	Temperature      = 0.8
	MaxTokens        = 1200
	TopP             = 1.0
	PresencePenalty  = 0.2
	FrequencyPenalty = 0.2
)

// Client is the main AI entry point. It routes requests to the configured
// provider with the fixed sampling parameters.
type Client struct {
	provider Provider
}

// NewClient builds a client for the provider named in cfg.
// "gemini" selects Gemini; anything else is OpenAI-compatible.
func NewClient(cfg config.AIConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini":
		return NewClientWithProvider(NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, timeout))
	default:
		return NewClientWithProvider(NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, timeout))
	}
}

// NewClientWithProvider wraps an existing provider.
func NewClientWithProvider(p Provider) *Client {
	return &Client{provider: p}
}

// Configured reports whether the active provider has a credential.
func (c *Client) Configured() bool {
	return c.provider.Configured()
}

// ProviderName returns the active provider's name.
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// Generate sends one chat request (system + user message) and returns the
// provider response. The first choice's content is returned unmodified in
// ChatResponse.Content. An empty system uses DefaultSystemPrompt.
func (c *Client) Generate(ctx context.Context, prompt, system string) (*ChatResponse, error) {
	if system == "" {
		system = DefaultSystemPrompt
	}

	resp, err := c.provider.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature:      Temperature,
		MaxTokens:        MaxTokens,
		TopP:             TopP,
		PresencePenalty:  PresencePenalty,
		FrequencyPenalty: FrequencyPenalty,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Generation response received", "provider", resp.Provider, "model", resp.Model, "tokens", resp.TokensUsed, "chars", len(resp.Content))
	return resp, nil
}

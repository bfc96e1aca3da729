package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// OpenAI-compatible request/response types (unexported).

type openaiChatRequest struct {
	Model            string          `json:"model"`
	Messages         []openaiMessage `json:"messages"`
	Temperature      float64         `json:"temperature"`
	MaxTokens        int             `json:"max_tokens,omitempty"`
	TopP             float64         `json:"top_p,omitempty"`
	PresencePenalty  float64         `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64         `json:"frequency_penalty,omitempty"`
	Stream           bool            `json:"stream"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   *openaiUsage   `json:"usage,omitempty"`
	Model   string         `json:"model"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAIProvider implements Provider for OpenAI's chat completions API and
// any server that speaks the same format (Ollama, Chutes, OpenRouter).
type OpenAIProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewOpenAIProvider creates an OpenAI-compatible provider. baseURL is the API
// root (for example https://api.openai.com/v1).
func NewOpenAIProvider(baseURL, apiKey, model string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Configured() bool { return o.apiKey != "" }

func (o *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !o.Configured() {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
	}

	msgs := make([]openaiMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openaiMessage{Role: m.Role, Content: m.Content}
	}

	body := openaiChatRequest{
		Model:            o.model,
		Messages:         msgs,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		TopP:             req.TopP,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
		Stream:           false,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	start := time.Now()
	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed (model=%s, elapsed=%s): %w", o.model, time.Since(start), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errMsg := extractAPIError(respBody)
		if errMsg == "" {
			errMsg = string(respBody)
		}
		slog.Error("OpenAI API error", "status", resp.StatusCode, "model", o.model, "error", errMsg)
		return nil, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, errMsg)
	}

	var chatResp openaiChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("parse openai response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai response had no choices")
	}

	tokensUsed := 0
	if chatResp.Usage != nil {
		tokensUsed = chatResp.Usage.TotalTokens
	}

	model := chatResp.Model
	if model == "" {
		model = o.model
	}

	slog.Debug("OpenAI request completed", "model", model, "elapsed", time.Since(start), "tokens", tokensUsed)

	return &ChatResponse{
		Content:    chatResp.Choices[0].Message.Content,
		TokensUsed: tokensUsed,
		Model:      model,
		Provider:   "openai",
	}, nil
}

// extractAPIError pulls a human-readable message out of an error body.
// Servers return either {"error":"message"} or {"error":{"message":"text","type":"..."}}.
func extractAPIError(body []byte) string {
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	return ""
}

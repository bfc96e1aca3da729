package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gemini API request/response types (unexported).

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	TopP             float64 `json:"topP,omitempty"`
	PresencePenalty  float64 `json:"presencePenalty,omitempty"`
	FrequencyPenalty float64 `json:"frequencyPenalty,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata,omitempty"`
	ModelVersion  string            `json:"modelVersion,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// GeminiProvider implements Provider for Google's Gemini generateContent API.
type GeminiProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(baseURL, apiKey, model string, timeout time.Duration) *GeminiProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
	}
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) Configured() bool { return g.apiKey != "" }

func (g *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !g.Configured() {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
	}

	body := geminiRequest{
		GenerationConfig: &geminiGenConfig{
			Temperature:      req.Temperature,
			MaxOutputTokens:  req.MaxTokens,
			TopP:             req.TopP,
			PresencePenalty:  req.PresencePenalty,
			FrequencyPenalty: req.FrequencyPenalty,
		},
	}

	// Gemini takes the system prompt separately; the rest become turns.
	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			body.Contents = append(body.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			body.Contents = append(body.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}}}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		// The URL carries the key; report the model only.
		return nil, fmt.Errorf("gemini request failed (model=%s): %w", g.model, unwrapURLError(err))
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
		slog.Error("Gemini API error", "status", resp.StatusCode, "model", g.model, "error", errMsg)
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, errMsg)
	}

	var genResp geminiResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	if len(genResp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini response had no candidates")
	}

	var content strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		content.WriteString(p.Text)
	}

	tokensUsed := 0
	if genResp.UsageMetadata != nil {
		tokensUsed = genResp.UsageMetadata.TotalTokenCount
	}

	model := genResp.ModelVersion
	if model == "" {
		model = g.model
	}

	slog.Debug("Gemini request completed", "model", model, "elapsed", time.Since(start), "tokens", tokensUsed)

	return &ChatResponse{
		Content:    content.String(),
		TokensUsed: tokensUsed,
		Model:      model,
		Provider:   "gemini",
	}, nil
}

// unwrapURLError drops the *url.Error wrapper so the request URL (and the
// key in its query string) never reaches logs.
func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}

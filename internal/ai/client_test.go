package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkscotty/reelforge/internal/config"
)

func TestOpenAIGenerateSendsFixedSampling(t *testing.T) {
	var got openaiChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"{\"scripts\":[]}"}}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	c := NewClientWithProvider(NewOpenAIProvider(srv.URL, "sk-test", "", 5*time.Second))
	resp, err := c.Generate(context.Background(), "PROMPT", "")
	require.NoError(t, err)

	assert.Equal(t, `{"scripts":[]}`, resp.Content)
	assert.Equal(t, 42, resp.TokensUsed)
	assert.Equal(t, "openai", resp.Provider)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.8, got.Temperature, 1e-9)
	assert.Equal(t, 1200, got.MaxTokens)
	assert.InDelta(t, 1.0, got.TopP, 1e-9)
	assert.InDelta(t, 0.2, got.PresencePenalty, 1e-9)
	assert.InDelta(t, 0.2, got.FrequencyPenalty, 1e-9)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "PROMPT", got.Messages[1].Content)
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		errSub string
	}{
		{"non-2xx with nested error", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, "status 401: bad key"},
		{"non-2xx with flat error", http.StatusTooManyRequests, `{"error":"slow down"}`, "status 429: slow down"},
		{"malformed body", http.StatusOK, `{"choices":`, "parse openai response"},
		{"zero choices", http.StatusOK, `{"choices":[]}`, "no choices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClientWithProvider(NewOpenAIProvider(srv.URL, "sk-test", "gpt-4o-mini", 5*time.Second))
			_, err := c.Generate(context.Background(), "p", "s")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestOpenAIMissingKey(t *testing.T) {
	c := NewClientWithProvider(NewOpenAIProvider("http://127.0.0.1:0", "  ", "", time.Second))
	assert.False(t, c.Configured())

	_, err := c.Generate(context.Background(), "p", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenAINetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClientWithProvider(NewOpenAIProvider(url, "sk-test", "", time.Second))
	_, err := c.Generate(context.Background(), "p", "")
	assert.Error(t, err)
}

func TestGeminiGenerate(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"scripts\":"},{"text":"[]}"}]}}],"usageMetadata":{"totalTokenCount":7}}`))
	}))
	defer srv.Close()

	c := NewClientWithProvider(NewGeminiProvider(srv.URL, "g-key", "", 5*time.Second))
	resp, err := c.Generate(context.Background(), "PROMPT", "SYSTEM")
	require.NoError(t, err)

	assert.Equal(t, `{"scripts":[]}`, resp.Content)
	assert.Equal(t, 7, resp.TokensUsed)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "SYSTEM", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "PROMPT", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 1200, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithProvider(NewGeminiProvider(srv.URL, "g-key", "", time.Second))
	_, err := c.Generate(context.Background(), "p", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestNewClientSelectsProvider(t *testing.T) {
	cfg := config.DefaultConfig().AI
	assert.Equal(t, "openai", NewClient(cfg).ProviderName())

	cfg.Provider = "Gemini"
	assert.Equal(t, "gemini", NewClient(cfg).ProviderName())
}

package forge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkscotty/reelforge/internal/ai"
	"github.com/thinkscotty/reelforge/internal/database"
	"github.com/thinkscotty/reelforge/internal/models"
	"github.com/thinkscotty/reelforge/internal/scraper"
)

const threeScriptPack = `{
  "scripts": [
    {"title": "Stop counting reps", "hook": "You're training wrong.", "beats": ["(0-3s) hook", "(3-7s) twist"], "broll_prompts": ["gym wide shot"], "caption": "Train smarter.", "hashtags": ["fitness", "#coach"], "cta": "Follow for tips"},
    {"title": "Two", "hook": "h2", "beats": [], "broll_prompts": [], "caption": "c2", "hashtags": [], "cta": "Follow for tips"},
    {"title": "Three", "hook": "h3", "beats": [], "broll_prompts": [], "caption": "c3", "hashtags": [], "cta": "Follow for tips"}
  ],
  "hooks_alt": ["a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10"],
  "captions_alt": ["k1", "k2", "k3", "k4", "k5"]
}`

// fakeAI is an OpenAI-compatible endpoint that records the last prompt.
type fakeAI struct {
	srv     *httptest.Server
	calls   atomic.Int32
	prompt  atomic.Value
	content string
	status  int
}

func newFakeAI(t *testing.T, content string, status int) *fakeAI {
	t.Helper()
	f := &fakeAI{content: content, status: status}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) == 2 {
			f.prompt.Store(body.Messages[1].Content)
		}
		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			w.Write([]byte(`{"error":{"message":"upstream exploded"}}`))
			return
		}
		resp := map[string]any{
			"model":   "gpt-4o-mini",
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": f.content}}},
			"usage":   map[string]any{"total_tokens": 321},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAI) client(key string) *ai.Client {
	return ai.NewClientWithProvider(ai.NewOpenAIProvider(f.srv.URL, key, "", 5*time.Second))
}

func (f *fakeAI) lastPrompt() string {
	s, _ := f.prompt.Load().(string)
	return s
}

type staticExtractor string

func (s staticExtractor) Extract(context.Context, string) string { return string(s) }

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "forge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGenerateEndToEndPreview(t *testing.T) {
	fake := newFakeAI(t, threeScriptPack, http.StatusOK)
	db := newTestDB(t)
	svc := New(staticExtractor(""), fake.client("sk-test"), db)

	res, err := svc.Generate(context.Background(), Request{
		SourceText: "Protein timing matters less than total intake.",
		Niche:      "fitness coaches",
		Platform:   "TikTok",
		Tone:       "edgy + witty",
		CTA:        "Follow for tips",
		Preview:    true,
	})
	require.NoError(t, err)

	prompt := fake.lastPrompt()
	assert.Contains(t, prompt, "fitness coaches")
	assert.Contains(t, prompt, "TikTok")
	assert.Contains(t, prompt, "edgy + witty")
	assert.Contains(t, prompt, "Follow for tips")
	assert.Contains(t, prompt, "Protein timing matters less than total intake.")

	require.Len(t, res.Pack.Scripts, 1)
	assert.Equal(t, "Stop counting reps", res.Pack.Scripts[0].Title)
	assert.Len(t, res.Pack.HooksAlt, 10)
	assert.Len(t, res.Pack.CaptionsAlt, 5)
	assert.Equal(t, 3, res.GeneratedN)
	assert.Equal(t, 321, res.TokensUsed)
	assert.Equal(t, "text", res.SourceKind)
	assert.Positive(t, res.PromptTokens)

	stored, err := db.GetGeneration(res.ID)
	require.NoError(t, err)
	assert.True(t, stored.ParseOK)
	assert.True(t, stored.Preview)
	assert.Equal(t, 1, stored.ScriptCount)

	var exported models.Pack
	require.NoError(t, json.Unmarshal([]byte(stored.PackJSON), &exported))
	assert.Len(t, exported.Scripts, 1)
	assert.Contains(t, stored.PackJSON, "\n  \"captions_alt\"")
}

func TestGenerateFullTier(t *testing.T) {
	fake := newFakeAI(t, threeScriptPack, http.StatusOK)
	svc := New(staticExtractor(""), fake.client("sk-test"), nil)

	res, err := svc.Generate(context.Background(), Request{
		SourceText: "text", Niche: "n", Platform: "YouTube Shorts", Tone: "hype and fast-paced",
	})
	require.NoError(t, err)
	assert.Len(t, res.Pack.Scripts, 3)
	assert.False(t, res.Preview)
}

func TestGenerateFromURL(t *testing.T) {
	article := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article><p>Creatine is the most researched supplement in sports nutrition, by far.</p></article></body></html>`))
	}))
	defer article.Close()

	fake := newFakeAI(t, threeScriptPack, http.StatusOK)
	svc := New(scraper.New(), fake.client("sk-test"), nil)

	res, err := svc.Generate(context.Background(), Request{SourceURL: article.URL, Niche: "fitness coaches", Preview: true})
	require.NoError(t, err)
	assert.Equal(t, "url", res.SourceKind)
	assert.Contains(t, fake.lastPrompt(), "Creatine is the most researched supplement")
	// Defaults fill platform, tone and CTA.
	assert.Contains(t, fake.lastPrompt(), "TikTok")
	assert.Contains(t, fake.lastPrompt(), DefaultCTA)
}

func TestGenerateExtractionFailureSkipsGeneration(t *testing.T) {
	fake := newFakeAI(t, threeScriptPack, http.StatusOK)
	svc := New(staticExtractor(""), fake.client("sk-test"), nil)

	_, err := svc.Generate(context.Background(), Request{SourceURL: "https://example.invalid/a", Niche: "n"})
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, "Could not parse that URL. Paste text instead?", Message(err))
	assert.Zero(t, fake.calls.Load())
}

func TestGenerateValidation(t *testing.T) {
	fake := newFakeAI(t, threeScriptPack, http.StatusOK)
	svc := New(staticExtractor("x"), fake.client("sk-test"), nil)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no niche", Request{SourceText: "text"}, ErrMissingNiche},
		{"blank niche", Request{SourceText: "text", Niche: "   "}, ErrMissingNiche},
		{"no source", Request{Niche: "n"}, ErrMissingSource},
		{"bad platform", Request{SourceText: "t", Niche: "n", Platform: "MySpace"}, ErrInvalidOption},
		{"bad tone", Request{SourceText: "t", Niche: "n", Tone: "sleepy"}, ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, fake.calls.Load())
}

func TestGenerateMissingCredential(t *testing.T) {
	fake := newFakeAI(t, threeScriptPack, http.StatusOK)
	svc := New(staticExtractor(""), fake.client(""), nil)

	assert.False(t, svc.Configured())
	_, err := svc.Generate(context.Background(), Request{SourceText: "t", Niche: "n"})
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, fake.calls.Load())
}

func TestGenerateProviderFailureIsSurfaced(t *testing.T) {
	fake := newFakeAI(t, "", http.StatusInternalServerError)
	db := newTestDB(t)
	svc := New(staticExtractor(""), fake.client("sk-test"), db)

	_, err := svc.Generate(context.Background(), Request{SourceText: "t", Niche: "n"})
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Contains(t, err.Error(), "upstream exploded")

	recent, err := db.RecentGenerations(5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Contains(t, recent[0].ErrorMessage, "status 500")
}

func TestGenerateUnparseableOutput(t *testing.T) {
	fake := newFakeAI(t, "Sorry, I can't help with that.", http.StatusOK)
	svc := New(staticExtractor(""), fake.client("sk-test"), nil)

	res, err := svc.Generate(context.Background(), Request{SourceText: "t", Niche: "n", Preview: true})
	require.NoError(t, err)
	require.True(t, res.Pack.IsError())
	assert.Equal(t, "Sorry, I can't help with that.", res.Pack.Raw)
}

func TestMarshalPackIndent(t *testing.T) {
	data, err := MarshalPack(models.Pack{Scripts: []models.Script{{Title: "Café"}}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \""))
	assert.Contains(t, string(data), "Café")
}

// Package forge runs the article-to-pack pipeline: extract, prompt,
// generate, parse, gate and log.
package forge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thinkscotty/reelforge/internal/ai"
	"github.com/thinkscotty/reelforge/internal/metrics"
	"github.com/thinkscotty/reelforge/internal/models"
	"github.com/thinkscotty/reelforge/internal/paywall"
	"github.com/thinkscotty/reelforge/internal/tokens"
)

var (
	ErrMissingSource     = errors.New("no source text or URL provided")
	ErrMissingNiche      = errors.New("no niche provided")
	ErrExtractionFailed  = errors.New("could not extract text from URL")
	ErrMissingCredential = errors.New("AI credential not configured")
	ErrGenerationFailed  = errors.New("generation failed")
	ErrInvalidOption     = errors.New("unsupported platform or tone")
)

// Message returns the text shown to the visitor for a pipeline error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingSource), errors.Is(err, ErrMissingNiche):
		return "Provide a source (URL or text) and a niche."
	case errors.Is(err, ErrExtractionFailed):
		return "Could not parse that URL. Paste text instead?"
	case errors.Is(err, ErrMissingCredential):
		return "Add OPENAI_API_KEY (or GEMINI_API_KEY) to the environment to generate."
	case errors.Is(err, ErrInvalidOption):
		return "Pick one of the listed platforms and tones."
	case errors.Is(err, ErrGenerationFailed):
		return "Generation failed. Please try again in a moment."
	default:
		return "Something went wrong. Please try again."
	}
}

// Extractor fetches readable article text; "" means failure.
type Extractor interface {
	Extract(ctx context.Context, url string) string
}

// Generator sends one prompt to the AI provider.
type Generator interface {
	Configured() bool
	ProviderName() string
	Generate(ctx context.Context, prompt, system string) (*ai.ChatResponse, error)
}

// GenerationLog persists generation attempts.
type GenerationLog interface {
	LogGeneration(g *models.Generation) error
}

// Request is one visitor submission.
type Request struct {
	SourceURL  string
	SourceText string
	Niche      string
	Platform   string
	Tone       string
	CTA        string
	// Preview is the resolved tier; true keeps only the first script.
	Preview bool
}

// Result is what the visitor sees after a successful run.
type Result struct {
	ID           string
	Pack         models.Pack // tier-gated
	Preview      bool
	GeneratedN   int // scripts before gating
	SourceKind   string
	SourceChars  int
	SourceTokens int
	PromptTokens int
	TokensUsed   int
	Provider     string
	Model        string
	Duration     time.Duration
}

// Service wires the pipeline stages together.
type Service struct {
	extractor Extractor
	generator Generator
	log       GenerationLog
}

// New creates a Service. log may be nil.
func New(extractor Extractor, generator Generator, log GenerationLog) *Service {
	return &Service{extractor: extractor, generator: generator, log: log}
}

// Configured reports whether generation can run at all.
func (s *Service) Configured() bool {
	return s.generator.Configured()
}

// Generate runs the pipeline once. Every failure is returned as one of the
// package's sentinel errors (ErrGenerationFailed wraps the provider error).
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if !s.generator.Configured() {
		return nil, ErrMissingCredential
	}
	if err := normalize(&req); err != nil {
		return nil, err
	}

	source, kind, err := s.resolveSource(ctx, req)
	if err != nil {
		return nil, err
	}

	prompt := ai.BuildPackPrompt(source, req.Niche, req.Platform, req.Tone, req.CTA)

	gen := &models.Generation{
		ID:           uuid.NewString(),
		Niche:        req.Niche,
		Platform:     req.Platform,
		Tone:         req.Tone,
		SourceKind:   kind,
		SourceChars:  len([]rune(source)),
		PromptTokens: tokens.Count(prompt),
		Provider:     s.generator.ProviderName(),
		Preview:      req.Preview,
	}

	start := time.Now()
	resp, err := s.generator.Generate(ctx, prompt, ai.DefaultSystemPrompt)
	elapsed := time.Since(start)
	metrics.GenerationDuration.WithLabelValues(gen.Provider).Observe(elapsed.Seconds())

	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(gen.Provider, metrics.OutcomeError).Inc()
		slog.Error("Generation failed", "provider", gen.Provider, "niche", req.Niche, "elapsed", elapsed, "error", err)
		gen.ErrorMessage = err.Error()
		s.record(gen)
		if errors.Is(err, ai.ErrMissingAPIKey) {
			return nil, ErrMissingCredential
		}
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	metrics.GenerationsTotal.WithLabelValues(gen.Provider, metrics.OutcomeOK).Inc()

	pack := ai.ParsePack(resp.Content)
	metrics.ParseTotal.WithLabelValues(pack.ParseStage).Inc()

	gated := paywall.ApplyTier(pack, req.Preview)

	gen.TokensUsed = resp.TokensUsed
	gen.Model = resp.Model
	gen.ParseOK = !pack.IsError()
	gen.ScriptCount = len(gated.Scripts)
	if data, err := MarshalPack(gated); err == nil {
		gen.PackJSON = string(data)
	} else {
		slog.Error("Failed to encode pack", "id", gen.ID, "error", err)
	}
	s.record(gen)

	slog.Info("Pack generated",
		"id", gen.ID, "provider", gen.Provider, "model", gen.Model,
		"platform", req.Platform, "source", kind, "stage", pack.ParseStage,
		"scripts", len(pack.Scripts), "preview", req.Preview, "tokens", resp.TokensUsed, "elapsed", elapsed)

	return &Result{
		ID:           gen.ID,
		Pack:         gated,
		Preview:      req.Preview,
		GeneratedN:   len(pack.Scripts),
		SourceKind:   kind,
		SourceChars:  gen.SourceChars,
		SourceTokens: tokens.Count(source),
		PromptTokens: gen.PromptTokens,
		TokensUsed:   resp.TokensUsed,
		Provider:     resp.Provider,
		Model:        resp.Model,
		Duration:     elapsed,
	}, nil
}

// resolveSource returns the text to embed and whether it came from a URL.
// Pasted text wins when both are present.
func (s *Service) resolveSource(ctx context.Context, req Request) (string, string, error) {
	if req.SourceText != "" {
		return req.SourceText, "text", nil
	}
	if req.SourceURL == "" {
		return "", "", ErrMissingSource
	}

	text := s.extractor.Extract(ctx, req.SourceURL)
	if text == "" {
		metrics.ExtractionsTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return "", "", ErrExtractionFailed
	}
	metrics.ExtractionsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return text, "url", nil
}

func (s *Service) record(g *models.Generation) {
	if s.log == nil {
		return
	}
	if err := s.log.LogGeneration(g); err != nil {
		slog.Error("Failed to log generation", "id", g.ID, "error", err)
	}
}

// normalize trims the request, fills defaults and checks the fixed option lists.
func normalize(req *Request) error {
	req.SourceURL = strings.TrimSpace(req.SourceURL)
	req.SourceText = strings.TrimSpace(req.SourceText)
	req.Niche = strings.TrimSpace(req.Niche)
	req.Platform = strings.TrimSpace(req.Platform)
	req.Tone = strings.TrimSpace(req.Tone)
	req.CTA = strings.TrimSpace(req.CTA)

	if req.Platform == "" {
		req.Platform = Platforms[0]
	}
	if req.Tone == "" {
		req.Tone = Tones[0]
	}
	if req.CTA == "" {
		req.CTA = DefaultCTA
	}
	if !contains(Platforms, req.Platform) || !contains(Tones, req.Tone) {
		return ErrInvalidOption
	}
	if req.Niche == "" {
		return ErrMissingNiche
	}
	if req.SourceText == "" && req.SourceURL == "" {
		return ErrMissingSource
	}
	return nil
}

// MarshalPack encodes a pack for download: UTF-8 with a two-space indent.
func MarshalPack(p models.Pack) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

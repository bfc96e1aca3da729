package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thinkscotty/reelforge/internal/forge"
	"github.com/thinkscotty/reelforge/internal/leads"
	"github.com/thinkscotty/reelforge/internal/models"
	"github.com/thinkscotty/reelforge/internal/tokens"
)

// maxAPIBody bounds JSON request bodies.
const maxAPIBody = 1 << 20

type apiGenerateRequest struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Niche    string `json:"niche"`
	Platform string `json:"platform"`
	Tone     string `json:"tone"`
	CTA      string `json:"cta"`
	Preview  bool   `json:"preview"`
}

type apiGenerateResponse struct {
	ID           string      `json:"id"`
	Preview      bool        `json:"preview"`
	Generated    int         `json:"generated_scripts"`
	SourceKind   string      `json:"source_kind"`
	SourceTokens int         `json:"source_tokens"`
	PromptTokens int         `json:"prompt_tokens"`
	TokensUsed   int         `json:"tokens_used"`
	Provider     string      `json:"provider"`
	Model        string      `json:"model"`
	DownloadURL  string      `json:"download_url"`
	Pack         models.Pack `json:"pack"`
}

func (s *Server) handleAPIGenerate(w http.ResponseWriter, r *http.Request) {
	var body apiGenerateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		jsonError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	res, err := s.forge.Generate(r.Context(), forge.Request{
		SourceURL:  body.URL,
		SourceText: body.Text,
		Niche:      body.Niche,
		Platform:   body.Platform,
		Tone:       body.Tone,
		CTA:        body.CTA,
		Preview:    s.paywall.Preview(r, body.Preview),
	})
	if err != nil {
		jsonError(w, forge.Message(err), statusFor(err))
		return
	}

	jsonResponse(w, apiGenerateResponse{
		ID:           res.ID,
		Preview:      res.Preview,
		Generated:    res.GeneratedN,
		SourceKind:   res.SourceKind,
		SourceTokens: res.SourceTokens,
		PromptTokens: res.PromptTokens,
		TokensUsed:   res.TokensUsed,
		Provider:     res.Provider,
		Model:        res.Model,
		DownloadURL:  "/packs/" + res.ID + ".json",
		Pack:         res.Pack,
	})
}

func (s *Server) handleAPILead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		jsonError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := s.saveLead(r.Context(), body.Email); err != nil {
		if errors.Is(err, leads.ErrInvalidEmail) {
			jsonError(w, "Enter a valid email.", http.StatusBadRequest)
			return
		}
		jsonError(w, "Could not save email", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"saved": true})
}

func (s *Server) handleAPITokens(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		jsonError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	jsonResponse(w, map[string]any{
		"tokens": tokens.Count(body.Text),
		"model":  tokens.Model,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBody)).Decode(v)
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

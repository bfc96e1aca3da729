package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/thinkscotty/reelforge/internal/database"
	"github.com/thinkscotty/reelforge/internal/forge"
	"github.com/thinkscotty/reelforge/internal/leads"
	"github.com/thinkscotty/reelforge/internal/metrics"
)

// formValues echoes the generate form back into the page.
type formValues struct {
	SourceMode string
	URL        string
	Text       string
	Niche      string
	Platform   string
	Tone       string
	CTA        string
	Preview    bool
}

func defaultForm() formValues {
	return formValues{
		SourceMode: "url",
		Platform:   forge.Platforms[0],
		Tone:       forge.Tones[0],
		CTA:        forge.DefaultCTA,
	}
}

func formFromRequest(r *http.Request) formValues {
	f := formValues{
		SourceMode: r.FormValue("source_mode"),
		URL:        strings.TrimSpace(r.FormValue("url")),
		Text:       r.FormValue("text"),
		Niche:      strings.TrimSpace(r.FormValue("niche")),
		Platform:   r.FormValue("platform"),
		Tone:       r.FormValue("tone"),
		CTA:        r.FormValue("cta"),
		Preview:    r.FormValue("preview") == "on",
	}
	if f.SourceMode != "text" {
		f.SourceMode = "url"
	}
	return f
}

// homeData builds the template data every home render needs.
func (s *Server) homeData(r *http.Request, form formValues) map[string]any {
	return map[string]any{
		"Page":        "home",
		"Form":        form,
		"Platforms":   forge.Platforms,
		"Tones":       forge.Tones,
		"CheckoutURL": s.cfg.Paywall.CheckoutURL,
		"AdminEmail":  s.cfg.Paywall.AdminEmail,
		"Entitled":    s.paywall.Entitled(r),
		"Configured":  s.forge.Configured(),
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := s.homeData(r, defaultForm())
	switch r.URL.Query().Get("unlocked") {
	case "1":
		data["Notice"] = "Full pack unlocked. Enjoy all three scripts and exports."
	case "0":
		data["Notice"] = "This browser is back on the free preview."
	}
	s.render(w, "home", data)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	form := formFromRequest(r)
	data := s.homeData(r, form)

	req := forge.Request{
		Niche:    form.Niche,
		Platform: form.Platform,
		Tone:     form.Tone,
		CTA:      form.CTA,
		Preview:  s.paywall.Preview(r, form.Preview),
	}
	if form.SourceMode == "text" {
		req.SourceText = form.Text
	} else {
		req.SourceURL = form.URL
	}

	res, err := s.forge.Generate(r.Context(), req)
	if err != nil {
		data["Error"] = forge.Message(err)
		s.renderStatus(w, "home", statusFor(err), data)
		return
	}

	data["Result"] = res
	s.render(w, "home", data)
}

// statusFor maps pipeline errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, forge.ErrMissingSource), errors.Is(err, forge.ErrMissingNiche),
		errors.Is(err, forge.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, forge.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, forge.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, forge.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleLeadSubmit(w http.ResponseWriter, r *http.Request) {
	data := s.homeData(r, defaultForm())
	email := r.FormValue("email")

	if err := s.saveLead(r.Context(), email); err != nil {
		if errors.Is(err, leads.ErrInvalidEmail) {
			data["LeadError"] = "Enter a valid email."
			data["LeadEmail"] = email
			s.renderStatus(w, "home", http.StatusBadRequest, data)
			return
		}
		data["LeadError"] = "Could not save your email right now."
		s.renderStatus(w, "home", http.StatusInternalServerError, data)
		return
	}

	data["LeadSaved"] = true
	s.render(w, "home", data)
}

// saveLead stores the email and notifies the admin. Notification failures
// are logged only.
func (s *Server) saveLead(ctx context.Context, email string) error {
	if err := s.leads.Save(email); err != nil {
		if errors.Is(err, leads.ErrInvalidEmail) {
			metrics.LeadsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		} else {
			metrics.LeadsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			slog.Error("Failed to save lead", "error", err)
		}
		return err
	}
	metrics.LeadsTotal.WithLabelValues(metrics.OutcomeOK).Inc()

	nctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.notifier.LeadCaptured(nctx, strings.TrimSpace(email)); err != nil {
		slog.Warn("Lead notification failed", "error", err)
	}
	return nil
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.FormValue("code"))
	if code == "" {
		data := s.homeData(r, defaultForm())
		data["UnlockError"] = "Enter the unlock code from your receipt."
		s.renderStatus(w, "home", http.StatusBadRequest, data)
		return
	}

	if err := s.paywall.Unlock(w, r, code); err != nil {
		data := s.homeData(r, defaultForm())
		if errors.Is(err, database.ErrInvalidCode) {
			slog.Info("Unlock code rejected")
			data["UnlockError"] = "That code is not valid."
			s.renderStatus(w, "home", http.StatusUnauthorized, data)
			return
		}
		slog.Error("Failed to unlock", "error", err)
		data["UnlockError"] = "Could not unlock right now. Please try again."
		s.renderStatus(w, "home", http.StatusInternalServerError, data)
		return
	}

	http.Redirect(w, r, "/?unlocked=1", http.StatusSeeOther)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	s.paywall.Lock(w, r)
	http.Redirect(w, r, "/?unlocked=0", http.StatusSeeOther)
}

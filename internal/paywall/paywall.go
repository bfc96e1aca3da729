// Package paywall decides how much of a pack a visitor may see.
package paywall

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/thinkscotty/reelforge/internal/auth"
	"github.com/thinkscotty/reelforge/internal/models"
)

// CookieName carries the unlock session token.
const CookieName = "reelforge_unlock"

// ApplyTier returns the pack a visitor is allowed to see. In preview only the
// first script is kept; alternates, unknown keys and error packs pass through.
// The input pack is never modified.
func ApplyTier(pack models.Pack, preview bool) models.Pack {
	if !preview || pack.IsError() || len(pack.Scripts) <= 1 {
		return pack
	}
	out := pack.Clone()
	out.Scripts = out.Scripts[:1]
	return out
}

// Store is the subset of the database the resolver needs.
type Store interface {
	RedeemUnlockCode(code string) (models.UnlockCode, error)
	CreateSession(sess *models.Session) error
	GetSession(token string) (models.Session, error)
	DeleteSession(token string) error
}

// Resolver validates unlock sessions server-side.
type Resolver struct {
	store      Store
	sessionTTL time.Duration
}

// NewResolver creates a resolver whose sessions last sessionDays.
func NewResolver(store Store, sessionDays int) *Resolver {
	if sessionDays <= 0 {
		sessionDays = 30
	}
	return &Resolver{
		store:      store,
		sessionTTL: time.Duration(sessionDays) * 24 * time.Hour,
	}
}

// Entitled reports whether the request carries a live unlock session.
func (rv *Resolver) Entitled(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	if _, err := rv.store.GetSession(c.Value); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("Failed to look up unlock session", "error", err)
		}
		return false
	}
	return true
}

// Preview resolves the effective tier for a request. A visitor without a
// session is always in preview; an entitled visitor may still ask for it.
func (rv *Resolver) Preview(r *http.Request, requestedPreview bool) bool {
	if !rv.Entitled(r) {
		return true
	}
	return requestedPreview
}

// Unlock redeems code, starts a session and sets the cookie.
// It returns the database's ErrInvalidCode untouched when no code matches.
func (rv *Resolver) Unlock(w http.ResponseWriter, r *http.Request, code string) error {
	uc, err := rv.store.RedeemUnlockCode(code)
	if err != nil {
		return err
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	sess := &models.Session{
		Token:     token,
		CodeID:    uc.ID,
		ExpiresAt: time.Now().Add(rv.sessionTTL),
	}
	if err := rv.store.CreateSession(sess); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(rv.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("Unlock code redeemed", "code_id", uc.ID, "label", uc.Label)
	return nil
}

// Lock ends the request's session, if any, and clears the cookie.
func (rv *Resolver) Lock(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if err := rv.store.DeleteSession(c.Value); err != nil {
			slog.Error("Failed to delete unlock session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// isHTTPS checks if the original request was made over HTTPS by examining
// the X-Forwarded-Proto header (set by reverse proxies) or the TLS state.
func isHTTPS(r *http.Request) bool {
	if r.Header.Get("X-Forwarded-Proto") == "https" {
		return true
	}
	return r.TLS != nil
}

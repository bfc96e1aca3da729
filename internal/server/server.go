package server

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	reelforge "github.com/thinkscotty/reelforge"
	"github.com/thinkscotty/reelforge/internal/config"
	"github.com/thinkscotty/reelforge/internal/database"
	"github.com/thinkscotty/reelforge/internal/forge"
	"github.com/thinkscotty/reelforge/internal/leads"
	"github.com/thinkscotty/reelforge/internal/notify"
	"github.com/thinkscotty/reelforge/internal/paywall"
)

type Server struct {
	cfg       config.Config
	db        *database.DB
	forge     *forge.Service
	paywall   *paywall.Resolver
	leads     *leads.Store
	notifier  notify.Notifier
	version   string
	buildTime string
	pages     map[string]*template.Template
	httpSrv   *http.Server
}

func New(cfg config.Config, db *database.DB, svc *forge.Service, rv *paywall.Resolver, ls *leads.Store, n notify.Notifier, version, buildTime string) *Server {
	if n == nil {
		n = notify.Nop{}
	}
	return &Server{
		cfg:       cfg,
		db:        db,
		forge:     svc,
		paywall:   rv,
		leads:     ls,
		notifier:  n,
		version:   version,
		buildTime: buildTime,
	}
}

// Handler loads templates and returns the fully wrapped router.
func (s *Server) Handler() (http.Handler, error) {
	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	mux := http.NewServeMux()
	s.routes(mux)

	return requestIDMiddleware(recoveryMiddleware(loggingMiddleware(mux))), nil
}

// Start sets up routes and starts the HTTP server.
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	slog.Info("Starting server", "addr", addr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes(mux *http.ServeMux) {
	staticFS, _ := fs.Sub(reelforge.StaticFS, "web/static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /packs/{file}", s.handlePackDownload)
	mux.HandleFunc("POST /leads", s.handleLeadSubmit)
	mux.HandleFunc("POST /unlock", s.handleUnlock)
	mux.HandleFunc("POST /lock", s.handleLock)

	mux.HandleFunc("POST /api/v1/generate", s.handleAPIGenerate)
	mux.HandleFunc("POST /api/v1/leads", s.handleAPILead)
	mux.HandleFunc("POST /api/v1/tokens", s.handleAPITokens)

	mux.Handle("GET /admin/stats", s.requireAdmin(http.HandlerFunc(s.handleStatsPage)))
	mux.Handle("GET /metrics", s.requireAdmin(promhttp.Handler()))
}

func (s *Server) loadTemplates() error {
	funcMap := template.FuncMap{
		"inc":  func(i int) int { return i + 1 },
		"join": strings.Join,
		"lines": func(str string) []string {
			return strings.Split(strings.TrimSpace(str), "\n")
		},
		"timeAgo": func(t time.Time) string {
			if t.IsZero() {
				return "Never"
			}
			d := time.Since(t)
			switch {
			case d < time.Minute:
				return "Just now"
			case d < time.Hour:
				return fmt.Sprintf("%dm ago", int(d.Minutes()))
			case d < 24*time.Hour:
				return fmt.Sprintf("%dh ago", int(d.Hours()))
			default:
				return fmt.Sprintf("%dd ago", int(d.Hours()/24))
			}
		},
		"formatBytes": func(b int64) string {
			const unit = 1024
			if b < unit {
				return fmt.Sprintf("%d B", b)
			}
			div, exp := int64(unit), 0
			for n := b / unit; n >= unit; n /= unit {
				div *= unit
				exp++
			}
			return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
		},
	}

	s.pages = make(map[string]*template.Template)

	pageNames := []string{"home", "stats"}
	for _, page := range pageNames {
		t, err := template.New("base.html").Funcs(funcMap).ParseFS(reelforge.TemplateFS,
			"web/templates/layouts/base.html",
			"web/templates/partials/*.html",
			"web/templates/pages/"+page+".html",
		)
		if err != nil {
			return fmt.Errorf("parse template %s: %w", page, err)
		}
		s.pages[page] = t
	}

	return nil
}

// render executes a full page template.
func (s *Server) render(w http.ResponseWriter, page string, data map[string]any) {
	s.renderStatus(w, page, http.StatusOK, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, page string, status int, data map[string]any) {
	tmpl, ok := s.pages[page]
	if !ok {
		http.Error(w, "Template not found", 500)
		return
	}

	data["Version"] = s.version
	data["BuildTime"] = s.buildTime

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		slog.Error("Template execution error", "page", page, "error", err)
	}
}

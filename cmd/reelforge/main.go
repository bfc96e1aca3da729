package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/thinkscotty/reelforge/internal/ai"
	"github.com/thinkscotty/reelforge/internal/auth"
	"github.com/thinkscotty/reelforge/internal/config"
	"github.com/thinkscotty/reelforge/internal/database"
	"github.com/thinkscotty/reelforge/internal/forge"
	"github.com/thinkscotty/reelforge/internal/leads"
	"github.com/thinkscotty/reelforge/internal/models"
	"github.com/thinkscotty/reelforge/internal/notify"
	"github.com/thinkscotty/reelforge/internal/paywall"
	"github.com/thinkscotty/reelforge/internal/scheduler"
	"github.com/thinkscotty/reelforge/internal/scraper"
	"github.com/thinkscotty/reelforge/internal/server"
	"github.com/thinkscotty/reelforge/internal/unlockcode"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	issueCode := flag.String("issue-code", "", "Create an unlock code with this label, print it and exit")
	revokeCode := flag.Int64("revoke-code", 0, "Deactivate the unlock code with this id, end its sessions and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ReelForge %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	var logLevel slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Initialize database
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *issueCode != "" {
		if err := runIssueCode(db, *issueCode); err != nil {
			fmt.Fprintf(os.Stderr, "Could not issue code: %s\n", err)
			db.Close()
			os.Exit(1)
		}
		return
	}

	if *revokeCode != 0 {
		if err := runRevokeCode(db, *revokeCode); err != nil {
			fmt.Fprintf(os.Stderr, "Could not revoke code: %s\n", err)
			db.Close()
			os.Exit(1)
		}
		return
	}

	slog.Info("Starting ReelForge", "version", version)
	slog.Info("Database initialized", "path", cfg.Database.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	aiClient := ai.NewClient(cfg.AI)
	if !aiClient.Configured() {
		slog.Warn("No AI API key configured; generation is disabled", "provider", aiClient.ProviderName())
	}
	svc := forge.New(scraper.New(), aiClient, db)
	resolver := paywall.NewResolver(db, cfg.Paywall.SessionDays)
	leadStore := leads.NewStore(cfg.Leads.Path)
	notifier := newNotifier(ctx, cfg)

	sched := scheduler.New(db,
		time.Duration(cfg.Maintenance.IntervalMinutes)*time.Minute,
		cfg.Maintenance.GenerationRetentionDays)

	// Build HTTP server
	srv := server.New(cfg, db, svc, resolver, leadStore, notifier, version, buildTime)

	// Start scheduler in background
	go sched.Run(ctx)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()

	// Start serving
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// newNotifier returns an SES notifier when lead emails are enabled and fully
// configured, and a no-op otherwise.
func newNotifier(ctx context.Context, cfg config.Config) notify.Notifier {
	if !cfg.Leads.Notify {
		return notify.Nop{}
	}
	if cfg.Paywall.AdminEmail == "" || cfg.Leads.SESFrom == "" {
		slog.Warn("Lead notifications enabled but admin_email or ses_from is empty; disabling")
		return notify.Nop{}
	}
	n, err := notify.NewSES(ctx, cfg.Leads.SESRegion, cfg.Leads.SESFrom, cfg.Paywall.AdminEmail)
	if err != nil {
		slog.Error("Failed to set up SES notifier", "error", err)
		return notify.Nop{}
	}
	slog.Info("Lead notifications enabled", "region", cfg.Leads.SESRegion, "to", cfg.Paywall.AdminEmail)
	return n
}

// codeStore is the part of the database the code commands use.
type codeStore interface {
	CreateUnlockCode(c *models.UnlockCode) error
	DeactivateUnlockCode(id int64) error
}

func runIssueCode(db codeStore, label string) error {
	code, err := unlockcode.Generate()
	if err != nil {
		return err
	}
	hash, err := auth.HashCode(code)
	if err != nil {
		return err
	}
	uc := &models.UnlockCode{Label: label, CodeHash: hash}
	if err := db.CreateUnlockCode(uc); err != nil {
		return err
	}

	fmt.Printf("Unlock code #%d (%s): %s\n", uc.ID, label, code)
	fmt.Println("Store it now; only its hash is kept.")
	return nil
}

func runRevokeCode(db codeStore, id int64) error {
	if err := db.DeactivateUnlockCode(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no unlock code with id %d", id)
		}
		return err
	}
	fmt.Printf("Unlock code #%d revoked; browsers unlocked with it are back on preview.\n", id)
	return nil
}

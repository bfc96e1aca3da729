package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"
)

// Store is the maintenance surface of the database.
type Store interface {
	CleanExpiredSessions() (int64, error)
	CleanOldGenerations(days int) (int64, error)
}

type Scheduler struct {
	db            Store
	interval      time.Duration
	retentionDays int
}

// New creates a maintenance scheduler. A retentionDays of zero or less keeps
// generations forever.
func New(db Store, interval time.Duration, retentionDays int) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{db: db, interval: interval, retentionDays: retentionDays}
}

// Run starts the maintenance loop and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Scheduler started", "interval", s.interval, "retention_days", s.retentionDays)

	// Run once immediately at startup
	s.safeTick()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.safeTick()
		}
	}
}

func (s *Scheduler) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in maintenance tick", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	s.tick()
}

func (s *Scheduler) tick() {
	if n, err := s.db.CleanExpiredSessions(); err != nil {
		slog.Error("Failed to delete expired sessions", "error", err)
	} else if n > 0 {
		slog.Debug("Cleaned up expired sessions", "count", n)
	}

	if s.retentionDays <= 0 {
		return
	}
	if n, err := s.db.CleanOldGenerations(s.retentionDays); err != nil {
		slog.Error("Failed to delete old generations", "error", err)
	} else if n > 0 {
		slog.Info("Cleaned up old generations", "count", n, "older_than_days", s.retentionDays)
	}
}

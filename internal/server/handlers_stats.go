package server

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleStatsPage(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GenerationStats()
	if err != nil {
		slog.Error("Failed to get stats", "error", err)
		http.Error(w, "Internal error", 500)
		return
	}

	if n, err := s.leads.Count(); err != nil {
		slog.Error("Failed to count leads", "error", err)
	} else {
		stats.Leads = n
	}

	platforms, err := s.db.PlatformBreakdown()
	if err != nil {
		slog.Error("Failed to get platform breakdown", "error", err)
	}

	recent, err := s.db.RecentGenerations(25)
	if err != nil {
		slog.Error("Failed to get recent generations", "error", err)
	}

	if r.URL.Query().Get("format") == "json" {
		jsonResponse(w, map[string]any{
			"stats":     stats,
			"platforms": platforms,
			"recent":    recent,
		})
		return
	}

	data := map[string]any{
		"Page":      "stats",
		"Stats":     stats,
		"Platforms": platforms,
		"Recent":    recent,
	}
	s.render(w, "stats", data)
}

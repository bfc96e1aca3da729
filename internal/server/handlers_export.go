package server

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// handlePackDownload serves a stored pack as reelforge_pack.json. The pack
// was tier-gated when it was generated.
func (s *Server) handlePackDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := strings.CutSuffix(r.PathValue("file"), ".json")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	gen, err := s.db.GetGeneration(id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("Failed to load generation", "id", id, "error", err)
			http.Error(w, "Internal error", 500)
			return
		}
		http.NotFound(w, r)
		return
	}
	if gen.PackJSON == "" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="reelforge_pack.json"`)
	w.Write([]byte(gen.PackJSON))
}

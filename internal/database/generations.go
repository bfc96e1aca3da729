package database

import (
	"database/sql"
	"fmt"

	"github.com/thinkscotty/reelforge/internal/models"
)

// LogGeneration records one generation attempt. CreatedAt is set by the
// database when zero.
func (db *DB) LogGeneration(g *models.Generation) error {
	createdAt := sql.NullString{}
	if !g.CreatedAt.IsZero() {
		createdAt = sql.NullString{String: formatTime(g.CreatedAt), Valid: true}
	}
	_, err := db.conn.Exec(`
		INSERT INTO generations (id, niche, platform, tone, source_kind, source_chars,
		                         prompt_tokens, tokens_used, provider, model, script_count,
		                         preview, parse_ok, error_message, pack_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, datetime('now')))`,
		g.ID, g.Niche, g.Platform, g.Tone, g.SourceKind, g.SourceChars,
		g.PromptTokens, g.TokensUsed, g.Provider, g.Model, g.ScriptCount,
		boolToInt(g.Preview), boolToInt(g.ParseOK), g.ErrorMessage, g.PackJSON, createdAt)
	if err != nil {
		return fmt.Errorf("log generation: %w", err)
	}
	return nil
}

// GetGeneration returns one generation including its stored pack.
// It returns sql.ErrNoRows when the id is unknown.
func (db *DB) GetGeneration(id string) (models.Generation, error) {
	row := db.conn.QueryRow(`
		SELECT id, niche, platform, tone, source_kind, source_chars, prompt_tokens,
		       tokens_used, provider, model, script_count, preview, parse_ok,
		       error_message, pack_json, created_at
		FROM generations WHERE id = ?`, id)

	var g models.Generation
	var createdAt string
	err := row.Scan(&g.ID, &g.Niche, &g.Platform, &g.Tone, &g.SourceKind, &g.SourceChars,
		&g.PromptTokens, &g.TokensUsed, &g.Provider, &g.Model, &g.ScriptCount,
		&g.Preview, &g.ParseOK, &g.ErrorMessage, &g.PackJSON, &createdAt)
	if err != nil {
		return g, err
	}
	g.CreatedAt, _ = parseTime(createdAt)
	return g, nil
}

// RecentGenerations returns the newest generations without their packs.
func (db *DB) RecentGenerations(limit int) ([]models.Generation, error) {
	rows, err := db.conn.Query(`
		SELECT id, niche, platform, tone, source_kind, source_chars, prompt_tokens,
		       tokens_used, provider, model, script_count, preview, parse_ok,
		       error_message, created_at
		FROM generations
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gens []models.Generation
	for rows.Next() {
		var g models.Generation
		var createdAt string
		if err := rows.Scan(&g.ID, &g.Niche, &g.Platform, &g.Tone, &g.SourceKind, &g.SourceChars,
			&g.PromptTokens, &g.TokensUsed, &g.Provider, &g.Model, &g.ScriptCount,
			&g.Preview, &g.ParseOK, &g.ErrorMessage, &createdAt); err != nil {
			return nil, err
		}
		g.CreatedAt, _ = parseTime(createdAt)
		gens = append(gens, g)
	}
	return gens, rows.Err()
}

// GenerationStats aggregates the generation log, unlock codes and sessions.
// Leads are counted elsewhere.
func (db *DB) GenerationStats() (models.Stats, error) {
	var s models.Stats

	err := db.conn.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN error_message != '' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN error_message = '' AND parse_ok = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(preview), 0),
		       COALESCE(SUM(tokens_used), 0)
		FROM generations`).Scan(
		&s.TotalGenerations, &s.FailedGenerations, &s.ParseFailures,
		&s.PreviewGenerations, &s.TotalTokensUsed)
	if err != nil {
		return s, fmt.Errorf("generation stats: %w", err)
	}

	db.conn.QueryRow(`SELECT COUNT(*) FROM unlock_codes WHERE is_active = 1`).Scan(&s.ActiveUnlockCodes)
	db.conn.QueryRow(`SELECT COUNT(*) FROM sessions WHERE expires_at > datetime('now')`).Scan(&s.ActiveSessions)

	size, _ := db.DatabaseSizeBytes()
	s.DatabaseSizeBytes = size

	return s, nil
}

// PlatformBreakdown counts generations per platform, most used first.
func (db *DB) PlatformBreakdown() ([]models.PlatformCount, error) {
	rows, err := db.conn.Query(`
		SELECT platform, COUNT(*) AS n FROM generations
		GROUP BY platform ORDER BY n DESC, platform ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PlatformCount
	for rows.Next() {
		var pc models.PlatformCount
		if err := rows.Scan(&pc.Platform, &pc.Count); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

// CleanOldGenerations removes generations older than the given number of days.
func (db *DB) CleanOldGenerations(days int) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM generations WHERE created_at < datetime('now', ?)`,
		fmt.Sprintf("-%d days", days))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

package database

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

type DB struct {
	conn *sql.DB
	path string
}

func New(path string) (*DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(2)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// DatabaseSizeBytes returns the file size of the database.
func (db *DB) DatabaseSizeBytes() (int64, error) {
	info, err := os.Stat(db.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (db *DB) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS generations (
			id            TEXT    PRIMARY KEY,
			niche         TEXT    NOT NULL,
			platform      TEXT    NOT NULL,
			tone          TEXT    NOT NULL,
			source_kind   TEXT    NOT NULL DEFAULT 'text',
			source_chars  INTEGER NOT NULL DEFAULT 0,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			tokens_used   INTEGER NOT NULL DEFAULT 0,
			provider      TEXT    NOT NULL DEFAULT '',
			model         TEXT    NOT NULL DEFAULT '',
			script_count  INTEGER NOT NULL DEFAULT 0,
			preview       INTEGER NOT NULL DEFAULT 1,
			parse_ok      INTEGER NOT NULL DEFAULT 0,
			error_message TEXT    NOT NULL DEFAULT '',
			pack_json     TEXT    NOT NULL DEFAULT '',
			created_at    TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at)`,
		`CREATE TABLE IF NOT EXISTS unlock_codes (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			label          TEXT    NOT NULL DEFAULT '',
			code_hash      TEXT    NOT NULL,
			is_active      INTEGER NOT NULL DEFAULT 1,
			redeemed_count INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token      TEXT    PRIMARY KEY,
			code_id    INTEGER NOT NULL REFERENCES unlock_codes(id) ON DELETE CASCADE,
			expires_at TEXT    NOT NULL,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}

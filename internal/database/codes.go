package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/thinkscotty/reelforge/internal/auth"
	"github.com/thinkscotty/reelforge/internal/models"
)

// ErrInvalidCode is returned when no active unlock code matches.
var ErrInvalidCode = errors.New("invalid unlock code")

// CreateUnlockCode inserts a new code. Only c.CodeHash is stored.
func (db *DB) CreateUnlockCode(c *models.UnlockCode) error {
	result, err := db.conn.Exec(
		`INSERT INTO unlock_codes (label, code_hash, is_active) VALUES (?, ?, 1)`,
		c.Label, c.CodeHash,
	)
	if err != nil {
		return fmt.Errorf("create unlock code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	c.IsActive = true
	return nil
}

// ListActiveUnlockCodes returns every active code, oldest first.
func (db *DB) ListActiveUnlockCodes() ([]models.UnlockCode, error) {
	rows, err := db.conn.Query(`
		SELECT id, label, code_hash, is_active, redeemed_count, created_at
		FROM unlock_codes WHERE is_active = 1 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []models.UnlockCode
	for rows.Next() {
		var c models.UnlockCode
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Label, &c.CodeHash, &c.IsActive, &c.RedeemedCount, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = parseTime(createdAt)
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// RedeemUnlockCode compares code against every active hash and, on a match,
// bumps the code's redemption counter. It returns ErrInvalidCode otherwise.
func (db *DB) RedeemUnlockCode(code string) (models.UnlockCode, error) {
	codes, err := db.ListActiveUnlockCodes()
	if err != nil {
		return models.UnlockCode{}, err
	}
	for _, c := range codes {
		if auth.CheckCode(code, c.CodeHash) != nil {
			continue
		}
		if _, err := db.conn.Exec(
			`UPDATE unlock_codes SET redeemed_count = redeemed_count + 1 WHERE id = ?`, c.ID,
		); err != nil {
			return c, fmt.Errorf("redeem unlock code: %w", err)
		}
		c.RedeemedCount++
		return c, nil
	}
	return models.UnlockCode{}, ErrInvalidCode
}

// DeactivateUnlockCode stops a code from being redeemed and ends its sessions.
// It returns sql.ErrNoRows when no code has that id.
func (db *DB) DeactivateUnlockCode(id int64) error {
	result, err := db.conn.Exec(`UPDATE unlock_codes SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate unlock code: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return sql.ErrNoRows
	}
	_, err = db.conn.Exec(`DELETE FROM sessions WHERE code_id = ?`, id)
	return err
}

// CreateSession inserts a new session record.
func (db *DB) CreateSession(sess *models.Session) error {
	_, err := db.conn.Exec(
		`INSERT INTO sessions (token, code_id, expires_at) VALUES (?, ?, ?)`,
		sess.Token, sess.CodeID, formatTime(sess.ExpiresAt),
	)
	return err
}

// GetSession retrieves a non-expired session by token whose code is still active.
func (db *DB) GetSession(token string) (models.Session, error) {
	var sess models.Session
	var expiresAt, createdAt string
	err := db.conn.QueryRow(
		`SELECT s.token, s.code_id, s.expires_at, s.created_at
		 FROM sessions s
		 JOIN unlock_codes c ON c.id = s.code_id
		 WHERE s.token = ? AND s.expires_at > datetime('now') AND c.is_active = 1`,
		token,
	).Scan(&sess.Token, &sess.CodeID, &expiresAt, &createdAt)
	if err != nil {
		return sess, err
	}
	sess.ExpiresAt, _ = parseTime(expiresAt)
	sess.CreatedAt, _ = parseTime(createdAt)
	return sess, nil
}

// DeleteSession removes a specific session.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// CleanExpiredSessions removes all sessions past their expiry.
func (db *DB) CleanExpiredSessions() (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

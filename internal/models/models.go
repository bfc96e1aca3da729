package models

import "time"

// Script is one short-form video script inside a Pack.
type Script struct {
	Title        string   `json:"title"`
	Hook         string   `json:"hook"`
	Beats        []string `json:"beats"`
	BrollPrompts []string `json:"broll_prompts"`
	Caption      string   `json:"caption"`
	Hashtags     []string `json:"hashtags"`
	CTA          string   `json:"cta"`
}

// Generation is the log row written for every generation attempt.
type Generation struct {
	ID           string    `json:"id"`
	Niche        string    `json:"niche"`
	Platform     string    `json:"platform"`
	Tone         string    `json:"tone"`
	SourceKind   string    `json:"source_kind"` // "url" or "text"
	SourceChars  int       `json:"source_chars"`
	PromptTokens int       `json:"prompt_tokens"`
	TokensUsed   int       `json:"tokens_used"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	ScriptCount  int       `json:"script_count"`
	Preview      bool      `json:"preview"`
	ParseOK      bool      `json:"parse_ok"`
	ErrorMessage string    `json:"error_message,omitempty"`
	PackJSON     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UnlockCode grants the full pack once redeemed. Only the bcrypt hash is stored.
type UnlockCode struct {
	ID            int64     `json:"id"`
	Label         string    `json:"label"`
	CodeHash      string    `json:"-"`
	IsActive      bool      `json:"is_active"`
	RedeemedCount int       `json:"redeemed_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Session struct {
	Token     string    `json:"-"`
	CodeID    int64     `json:"code_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Stats struct {
	TotalGenerations   int   `json:"total_generations"`
	FailedGenerations  int   `json:"failed_generations"`
	ParseFailures      int   `json:"parse_failures"`
	PreviewGenerations int   `json:"preview_generations"`
	TotalTokensUsed    int64 `json:"total_tokens_used"`
	ActiveUnlockCodes  int   `json:"active_unlock_codes"`
	ActiveSessions     int   `json:"active_sessions"`
	Leads              int   `json:"leads"`
	DatabaseSizeBytes  int64 `json:"database_size_bytes"`
}

// PlatformCount is one row of the per-platform breakdown on the stats page.
type PlatformCount struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

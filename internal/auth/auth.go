package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashCode hashes an unlock code using bcrypt with cost 12.
// Codes are compared case-insensitively, so the lowercase form is hashed.
func HashCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(normalize(code)), 12)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}
	return string(hash), nil
}

// CheckCode compares a plaintext unlock code against a bcrypt hash.
func CheckCode(code, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(normalize(code)))
}

// GenerateToken produces a cryptographically random token suitable for
// session IDs (32 bytes, base64url-encoded, 43 characters).
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenMatches compares a presented admin token with the configured one in
// constant time. An empty configured token never matches.
func TokenMatches(presented, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

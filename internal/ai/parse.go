package ai

import (
	"encoding/json"
	"log/slog"

	"github.com/thinkscotty/reelforge/internal/models"
)

// maxBraceCandidates bounds how many brace spans are tried before giving up.
const maxBraceCandidates = 32

// ParsePack turns raw model output into a Pack. The whole string is tried as
// a JSON object first; failing that, balanced {...} spans are tried in order
// of their opening brace. When nothing parses the pack is error-shaped and
// carries raw unchanged. Output that is a complete JSON value other than an
// object (an array wrapping a pack, say) is not searched.
func ParsePack(raw string) models.Pack {
	if obj, ok := decodeObject(raw); ok {
		return finishPack([]byte(raw), obj, models.StageStrict)
	}
	if json.Valid([]byte(raw)) {
		slog.Warn("Generation output is JSON but not an object", "chars", len(raw))
		return models.ErrorPack(raw)
	}

	tried := 0
	for i := 0; i < len(raw) && tried < maxBraceCandidates; i++ {
		if raw[i] != '{' {
			continue
		}
		tried++
		end := matchBrace(raw, i)
		if end < 0 {
			continue
		}
		span := raw[i : end+1]
		if obj, ok := decodeObject(span); ok {
			return finishPack([]byte(span), obj, models.StageExtracted)
		}
	}

	slog.Warn("Could not parse generation output as JSON", "chars", len(raw))
	return models.ErrorPack(raw)
}

func decodeObject(s string) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func finishPack(doc []byte, obj map[string]json.RawMessage, stage string) models.Pack {
	issues, err := models.ValidatePackJSON(doc)
	if err != nil {
		slog.Error("Pack schema validation failed", "error", err)
	} else if len(issues) > 0 {
		slog.Warn("Generated pack does not match schema", "issues", len(issues), "first", issues[0])
	}

	p := models.PackFromObject(obj)
	p.ParseStage = stage
	p.SchemaIssues = issues
	return p
}

// matchBrace returns the index of the '}' closing the '{' at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for j := start; j < len(s); j++ {
		c := s[j]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

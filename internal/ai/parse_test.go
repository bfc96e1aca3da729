package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkscotty/reelforge/internal/models"
)

func TestParsePackStrict(t *testing.T) {
	p := ParsePack(`{"scripts":[]}`)

	assert.False(t, p.IsError())
	assert.Equal(t, models.StageStrict, p.ParseStage)
	assert.Empty(t, p.Scripts)
	assert.NotNil(t, p.Scripts)
	// hooks_alt and captions_alt are missing, which the schema reports.
	assert.NotEmpty(t, p.SchemaIssues)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"scripts":[],"hooks_alt":[],"captions_alt":[]}`, string(out))
}

func TestParsePackExtractsFromNoise(t *testing.T) {
	p := ParsePack(`prefix noise {"a":1} suffix`)

	assert.False(t, p.IsError())
	assert.Equal(t, models.StageExtracted, p.ParseStage)
	require.Contains(t, p.Extra, "a")
	assert.JSONEq(t, `1`, string(p.Extra["a"]))
}

func TestParsePackNotJSON(t *testing.T) {
	raw := "not json at all"
	p := ParsePack(raw)

	require.True(t, p.IsError())
	assert.Equal(t, "Could not parse JSON", p.Error)
	assert.Equal(t, raw, p.Raw)
	assert.Equal(t, models.StageFailed, p.ParseStage)
}

func TestParsePackFirstBalancedSpan(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantKey   string
		wantValue string
	}{
		{
			name:      "two objects picks first",
			raw:       `first {"a":1} then {"b":2}`,
			wantKey:   "a",
			wantValue: `1`,
		},
		{
			name:      "braces inside strings",
			raw:       "Here you go:\n{\"a\":\"curly } and { inside\"}\nEnjoy!",
			wantKey:   "a",
			wantValue: `"curly } and { inside"`,
		},
		{
			name:      "escaped quote inside string",
			raw:       `x {"a":"say \"}\" ok"} y`,
			wantKey:   "a",
			wantValue: `"say \"}\" ok"`,
		},
		{
			name:      "markdown fence",
			raw:       "```json\n{\"a\":[1,2]}\n```",
			wantKey:   "a",
			wantValue: `[1,2]`,
		},
		{
			name:      "invalid outer span falls back to inner",
			raw:       `{ note: {"a":true} }`,
			wantKey:   "a",
			wantValue: `true`,
		},
		{
			name:      "unclosed brace before object",
			raw:       `{ oops {"a":null}`,
			wantKey:   "a",
			wantValue: `null`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePack(tt.raw)
			require.False(t, p.IsError())
			require.Contains(t, p.Extra, tt.wantKey)
			assert.JSONEq(t, tt.wantValue, string(p.Extra[tt.wantKey]))
		})
	}
}

func TestParsePackDefaultFillsScripts(t *testing.T) {
	raw := `Sure! {"scripts":[{"title":"One","hook":"Stop scrolling","beats":["(0-3s) hook"],"hashtags":["fit"]},{"title":"Two"}],"hooks_alt":["h1","h2"],"captions_alt":["c1"],"notes":"extra"}`
	p := ParsePack(raw)

	require.False(t, p.IsError())
	require.Len(t, p.Scripts, 2)
	assert.Equal(t, "Stop scrolling", p.Scripts[0].Hook)
	assert.Equal(t, "", p.Scripts[1].Hook)
	assert.Equal(t, []string{"h1", "h2"}, p.HooksAlt)
	assert.Equal(t, []string{"c1"}, p.CaptionsAlt)
	assert.Contains(t, p.Extra, "notes")
}

func TestParsePackNonObjectJSONIsNotAPack(t *testing.T) {
	tests := []string{
		`[1, 2, 3]`,
		`[{"scripts":[{"title":"wrapped"}],"hooks_alt":[],"captions_alt":[]}]`,
		`  ["{\"scripts\":[]}"]  `,
		`"{\"scripts\":[]}"`,
	}
	for _, raw := range tests {
		p := ParsePack(raw)
		assert.True(t, p.IsError(), raw)
		assert.Equal(t, models.StageFailed, p.ParseStage, raw)
		assert.Equal(t, raw, p.Raw)
	}
}

func TestParsePackProseAroundBracketsStillScans(t *testing.T) {
	p := ParsePack(`[draft] Here you go: {"scripts":[],"hooks_alt":["h"],"captions_alt":[]}`)
	require.False(t, p.IsError())
	assert.Equal(t, models.StageExtracted, p.ParseStage)
	assert.Equal(t, []string{"h"}, p.HooksAlt)
}

func TestParsePackObjectWithErrorKeysParses(t *testing.T) {
	p := ParsePack(`{"error":"nothing went wrong","raw":"notes"}`)

	assert.False(t, p.IsError())
	assert.Equal(t, models.StageStrict, p.ParseStage)
	assert.Contains(t, p.Extra, "error")
}

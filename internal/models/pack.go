package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ParseErrorMessage is the error text of a pack whose model output held no JSON object.
const ParseErrorMessage = "Could not parse JSON"

// Parse stages recorded on a Pack.
const (
	StageStrict    = "strict"
	StageExtracted = "extracted"
	StageFailed    = "failed"
)

// Pack is the parsed generation result. When Error is set the pack is
// error-shaped and serializes as {"error": ..., "raw": ...} only.
type Pack struct {
	Scripts     []Script
	HooksAlt    []string
	CaptionsAlt []string

	Error string
	Raw   string

	// Extra keeps keys the model returned that are not part of the pack shape.
	Extra map[string]json.RawMessage

	// SchemaIssues lists schema mismatches found while parsing. Never serialized.
	SchemaIssues []string
	// ParseStage is one of the Stage* constants. Never serialized.
	ParseStage string
}

// ErrorPack builds the pack returned when no JSON object can be recovered.
func ErrorPack(raw string) Pack {
	return Pack{Error: ParseErrorMessage, Raw: raw, ParseStage: StageFailed}
}

// IsError reports whether the pack is error-shaped.
func (p Pack) IsError() bool {
	return p.Error != ""
}

// Clone returns a copy whose slices and maps can be modified independently.
func (p Pack) Clone() Pack {
	out := p
	if p.Scripts != nil {
		out.Scripts = make([]Script, len(p.Scripts))
		copy(out.Scripts, p.Scripts)
	}
	if p.HooksAlt != nil {
		out.HooksAlt = append([]string(nil), p.HooksAlt...)
	}
	if p.CaptionsAlt != nil {
		out.CaptionsAlt = append([]string(nil), p.CaptionsAlt...)
	}
	if p.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	if p.SchemaIssues != nil {
		out.SchemaIssues = append([]string(nil), p.SchemaIssues...)
	}
	return out
}

func (p Pack) MarshalJSON() ([]byte, error) {
	if p.IsError() {
		return json.Marshal(struct {
			Error string `json:"error"`
			Raw   string `json:"raw"`
		}{p.Error, p.Raw})
	}

	out := make(map[string]any, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}
	scripts := make([]Script, len(p.Scripts))
	for i, s := range p.Scripts {
		scripts[i] = s.withDefaults()
	}
	out["scripts"] = scripts
	out["hooks_alt"] = nonNil(p.HooksAlt)
	out["captions_alt"] = nonNil(p.CaptionsAlt)
	return json.Marshal(out)
}

func (p *Pack) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	// A stored error pack is exactly {"error": ..., "raw": ...}.
	if errRaw, ok := obj["error"]; ok {
		if rawRaw, ok := obj["raw"]; ok && len(obj) == 2 {
			*p = Pack{Error: lenientString(errRaw), Raw: lenientString(rawRaw), ParseStage: StageFailed}
			return nil
		}
	}
	*p = PackFromObject(obj)
	return nil
}

// PackFromObject default-fills a pack from a decoded JSON object. Wrong-typed
// values become empty, scalars inside string lists are stringified and
// unknown keys are kept in Extra. The result is never error-shaped, whatever
// keys the object carries.
func PackFromObject(obj map[string]json.RawMessage) Pack {
	p := Pack{
		Scripts:     []Script{},
		HooksAlt:    lenientStrings(obj["hooks_alt"]),
		CaptionsAlt: lenientStrings(obj["captions_alt"]),
	}

	var items []json.RawMessage
	if raw, ok := obj["scripts"]; ok && json.Unmarshal(raw, &items) == nil {
		for _, item := range items {
			var fields map[string]json.RawMessage
			if json.Unmarshal(item, &fields) != nil || fields == nil {
				continue
			}
			p.Scripts = append(p.Scripts, scriptFromObject(fields))
		}
	}

	for k, v := range obj {
		switch k {
		case "scripts", "hooks_alt", "captions_alt":
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[k] = v
	}
	return p
}

func scriptFromObject(f map[string]json.RawMessage) Script {
	return Script{
		Title:        lenientString(f["title"]),
		Hook:         lenientString(f["hook"]),
		Beats:        lenientStrings(f["beats"]),
		BrollPrompts: lenientStrings(f["broll_prompts"]),
		Caption:      lenientString(f["caption"]),
		Hashtags:     lenientStrings(f["hashtags"]),
		CTA:          lenientString(f["cta"]),
	}
}

func (s Script) withDefaults() Script {
	s.Beats = nonNil(s.Beats)
	s.BrollPrompts = nonNil(s.BrollPrompts)
	s.Hashtags = nonNil(s.Hashtags)
	return s
}

// HashtagLine renders hashtags as "#a #b", normalizing any leading '#'.
func (s Script) HashtagLine() string {
	tags := make([]string, 0, len(s.Hashtags))
	for _, h := range s.Hashtags {
		h = strings.TrimLeft(strings.TrimSpace(h), "#")
		if h != "" {
			tags = append(tags, "#"+h)
		}
	}
	return strings.Join(tags, " ")
}

// lenientString returns a JSON string's value, the literal text of a number
// or boolean, and "" for anything else.
func lenientString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

// lenientStrings decodes a list of strings. A bare string becomes a
// one-element list; nested objects and nulls are dropped.
func lenientStrings(raw json.RawMessage) []string {
	out := []string{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out
	}
	if raw[0] == '"' {
		if s := lenientString(raw); s != "" {
			out = append(out, s)
		}
		return out
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		if s := lenientString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package models

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// packSchemaJSON describes the shape the prompt asks the model to return.
// It is advisory: violations are reported, never rejected.
const packSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "scripts": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title":         {"type": "string"},
          "hook":          {"type": "string"},
          "beats":         {"type": "array", "items": {"type": "string"}},
          "broll_prompts": {"type": "array", "items": {"type": "string"}},
          "caption":       {"type": "string"},
          "hashtags":      {"type": "array", "items": {"type": "string"}},
          "cta":           {"type": "string"}
        },
        "required": ["title", "hook", "beats", "caption", "hashtags", "cta"]
      }
    },
    "hooks_alt":    {"type": "array", "items": {"type": "string"}},
    "captions_alt": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["scripts", "hooks_alt", "captions_alt"]
}`

var (
	packSchemaOnce sync.Once
	packSchema     *gojsonschema.Schema
	packSchemaErr  error
)

func loadPackSchema() (*gojsonschema.Schema, error) {
	packSchemaOnce.Do(func() {
		packSchema, packSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(packSchemaJSON))
	})
	return packSchema, packSchemaErr
}

// ValidatePackJSON checks a JSON document against the pack schema and
// returns one human-readable line per violation.
func ValidatePackJSON(doc []byte) ([]string, error) {
	schema, err := loadPackSchema()
	if err != nil {
		return nil, fmt.Errorf("load pack schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate pack: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	return issues, nil
}

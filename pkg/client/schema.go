package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const progressSchemaURL = "schema://user_progress.json"

const progressSchema = `{
  "type": "object",
  "required": ["user_id", "days", "replay_mode", "all_completed"],
  "properties": {
    "user_id": {"type": "string", "minLength": 1},
    "days": {"type": "array", "minItems": 1, "items": {"$ref": "#/$defs/day"}},
    "replay_mode": {"type": "boolean"},
    "all_completed": {"type": "boolean"},
    "created_at": {"type": "string", "format": "date-time"},
    "updated_at": {"type": "string", "format": "date-time"}
  },
  "$defs": {
    "day": {
      "type": "object",
      "required": ["day_number", "is_unlocked", "is_completed", "completion_time"],
      "properties": {
        "day_number": {"type": "integer", "minimum": 1},
        "day_name": {"type": "string"},
        "is_unlocked": {"type": "boolean"},
        "is_completed": {"type": "boolean"},
        "completion_time": {"type": ["string", "null"], "format": "date-time"}
      }
    }
  }
}`

const catalogSchemaURL = "schema://valentine_week.json"

const catalogSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["number", "name", "route"],
    "properties": {
      "number": {"type": "integer", "minimum": 1},
      "name": {"type": "string"},
      "date": {"type": "string"},
      "quote": {"type": "string"},
      "route": {"type": "string"}
    }
  }
}`

var compiledSchemas = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	sources := map[string]string{
		progressSchemaURL: progressSchema,
		catalogSchemaURL:  catalogSchema,
	}
	for url, src := range sources {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", url, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", url, err)
		}
	}

	out := make(map[string]*jsonschema.Schema, len(sources))
	for url := range sources {
		sch, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", url, err)
		}
		out[url] = sch
	}
	return out, nil
})

// validateBody 先做 schema 校验，再解码到 v
func validateBody(schemaURL string, raw []byte, v any) error {
	schemas, err := compiledSchemas()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &InvalidResponseError{Body: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := schemas[schemaURL].Validate(inst); err != nil {
		return &InvalidResponseError{Body: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &InvalidResponseError{Body: raw, Err: err}
	}
	return nil
}

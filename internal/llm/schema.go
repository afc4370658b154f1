package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/invopop/jsonschema"
)

// ErrSchemaMismatch marks model output that parsed as JSON but lacks required fields
var ErrSchemaMismatch = errors.New("llm: output does not match schema")

// GenerateSchema reflects T into a strict JSON schema usable for structured outputs
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	ensureStrict(m)
	return m
}

// ensureStrict closes every object and marks all of its properties required
func ensureStrict(schema map[string]any) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				ensureStrict(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		ensureStrict(items)
	}
}

// DecodeJSON parses model output into v. Prose around a single JSON object
// is tolerated; a missing required key is ErrSchemaMismatch.
func DecodeJSON(outputText string, v any, required ...string) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	raw := []byte(s)
	if !json.Valid(raw) {
		start := strings.IndexByte(s, '{')
		end := strings.LastIndexByte(s, '}')
		if start == -1 || end == -1 || end <= start {
			return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
		}
		raw = []byte(s[start : end+1])
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("model output is not a JSON object: %w", err)
	}
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("%w: missing %q", ErrSchemaMismatch, key)
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

// withSchemaHint appends the schema to the system prompt for providers
// without native structured output.
func withSchemaHint(req Request) string {
	system := strings.TrimSpace(req.System)
	if req.Schema == nil {
		return system
	}
	b, err := json.Marshal(req.Schema)
	if err != nil {
		return system
	}
	hint := "Respond with a single JSON object and nothing else. It must match this JSON schema:\n" + string(b)
	if system == "" {
		return hint
	}
	return system + "\n\n" + hint
}

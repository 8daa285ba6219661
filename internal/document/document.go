// Package document models the template artifact as an opaque structured
// value. The migration engine passes documents between steps without
// inspecting their fields; only the codec here knows how they serialize.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is an arbitrarily nested key/value artifact. Migration steps
// receive and return Documents; the engine itself treats them as opaque.
type Document map[string]any

// Clone returns a deep copy. Steps receive the working copy directly, so a
// caller that needs the pre-migration state must clone before migrating.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case Document:
		return map[string]any(val.Clone())
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// MarshalJSON renders the document as 2-space-indented JSON with a trailing
// newline, the on-disk form used for backups.
func MarshalJSON(d Document) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalJSON parses JSON text into a document.
func UnmarshalJSON(data []byte) (Document, error) {
	var d Document
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return d, nil
}

// UnmarshalYAML parses YAML text into a document. Decoding targets a plain
// map so nested mappings come back as map[string]any rather than the named
// Document type, and the result round-trips through the JSON codec.
func UnmarshalYAML(data []byte) (Document, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return Document(m), nil
}

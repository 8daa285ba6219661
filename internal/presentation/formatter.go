package presentation

import (
	"encoding/json"
	"io"
)

// WriteJSON renders v as 2-space-indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

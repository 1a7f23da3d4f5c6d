
package ioformats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MarshalIndent encodes v with a two space indent. HTML characters and
// non-ASCII text are written literally.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteJSON writes v as a single indented JSON document followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteNDJSON writes one compact JSON object per line.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, it := range items {
		if err := enc.Encode(it); err != nil {
			return fmt.Errorf("encode item %d: %w", i, err)
		}
	}
	return nil
}

// Write encodes items as one JSON array or as NDJSON. An empty format means json.
func Write[T any](w io.Writer, format string, items []T) error {
	switch format {
	case "", FormatJSON:
		return WriteJSON(w, items)
	case FormatNDJSON:
		return WriteNDJSON(w, items)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

const (
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

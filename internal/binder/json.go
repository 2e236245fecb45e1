package binder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vanshika/graphbind/internal/value"
)

// DecodeJSON turns the wire form [[name, value], ...] into Bind entries.
// Integers decode as int64 and other numbers as float64. Temporal values use
// tagged objects: {"$date": "YYYY-MM-DD"} and {"$timestamp": "YYYY-MM-DDTHH:MM:SS"}.
// Shape and name problems are left for Bind to report.
func DecodeJSON(data []byte) ([]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}

	entries := make([]any, len(raw))
	for i, entry := range raw {
		converted, err := convertJSON(entry)
		if err != nil {
			return nil, fmt.Errorf("decode parameter %d: %w", i, err)
		}
		entries[i] = converted
	}
	return entries, nil
}

func convertJSON(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			i, err := x.Int64()
			if err != nil {
				return nil, fmt.Errorf("integer %s out of int64 range", x)
			}
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			converted, err := convertJSON(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case map[string]any:
		return convertTagged(x)
	default:
		return v, nil
	}
}

func convertTagged(obj map[string]any) (any, error) {
	if len(obj) != 1 {
		return obj, nil
	}
	if raw, ok := obj["$date"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("$date must be a string, got %T", raw)
		}
		d, err := value.ParseDate(s)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	if raw, ok := obj["$timestamp"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("$timestamp must be a string, got %T", raw)
		}
		ts, err := value.ParseTimestamp(s)
		if err != nil {
			return nil, err
		}
		return ts, nil
	}
	return obj, nil
}

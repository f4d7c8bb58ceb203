package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Generic converts v into the JSON data model: map[string]any, []any,
// string, bool, nil and json.Number. Struct values become maps so their
// keys sort like any other mapping.
func Generic(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return out, nil
}

// Normalize is like Generic but replaces json.Number with int when the
// value is integral and fits, else float64.
func Normalize(v any) (any, error) {
	g, err := Generic(v)
	if err != nil {
		return nil, err
	}
	return convertNumbers(g), nil
}

func convertNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, item := range t {
			t[k] = convertNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = convertNumbers(item)
		}
		return t
	default:
		return v
	}
}

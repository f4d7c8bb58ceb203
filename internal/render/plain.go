package render

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// EncodePlain renders v for reading rather than parsing: mappings as
// "key: value" lines in key order, sequences as "- item" lines, nested
// values indented by two spaces.
func EncodePlain(v any) (string, error) {
	g, err := Generic(v)
	if err != nil {
		return "", err
	}

	if isScalar(g) {
		return plainScalar(g), nil
	}

	var lines []string
	writePlain(&lines, g, 0)
	return strings.Join(lines, "\n"), nil
}

func writePlain(lines *[]string, v any, depth int) {
	pad := strings.Repeat("  ", depth)

	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			item := t[k]
			if inline, ok := plainInline(item); ok {
				*lines = append(*lines, fmt.Sprintf("%s%s: %s", pad, k, inline))
				continue
			}
			*lines = append(*lines, pad+k+":")
			writePlain(lines, item, depth+1)
		}
	case []any:
		for _, item := range t {
			if inline, ok := plainInline(item); ok {
				*lines = append(*lines, pad+"- "+inline)
				continue
			}
			*lines = append(*lines, pad+"-")
			writePlain(lines, item, depth+1)
		}
	}
}

// plainInline returns the one-line form of scalars and empty collections.
func plainInline(v any) (string, bool) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return "{}", true
		}
		return "", false
	case []any:
		if len(t) == 0 {
			return "[]", true
		}
		return "", false
	default:
		return plainScalar(v), true
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

func plainScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

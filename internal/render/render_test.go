package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"pgregory.net/rapid"

	"github.com/crossbario/crossbar-shell/internal/executor"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func testRenderer() *Renderer {
	return &Renderer{
		Now:         func() time.Time { return fixedNow },
		StatusStyle: lipgloss.NewStyle(),
	}
}

func sample() executor.Result {
	return executor.Result{
		Value: map[string]any{
			"b": 1,
			"a": map[string]any{"c": []any{1, "grüße"}},
		},
		Duration: 123 * time.Millisecond,
		Timed:    true,
	}
}

const sampleJSON = `{
    "a": {
        "c": [
            1,
            "grüße"
        ]
    },
    "b": 1
}`

func TestRenderJSONNormal(t *testing.T) {
	got, err := testRenderer().Render(sample(), Options{Format: FormatJSON, Verbosity: VerbosityNormal})
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}

	want := sampleJSON + "\nFinished in 123 ms."
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderStatusLine(t *testing.T) {
	stamp := fixedNow.Local().Format(time.RFC3339)
	untimed := executor.Result{Value: "x"}
	timed := executor.Result{Value: "x", Duration: 7 * time.Millisecond, Timed: true}

	tests := []struct {
		name      string
		result    executor.Result
		verbosity Verbosity
		want      string
	}{
		{"result only", timed, VerbosityResultOnly, `"x"`},
		{"normal timed", timed, VerbosityNormal, "\"x\"\nFinished in 7 ms."},
		{"normal untimed", untimed, VerbosityNormal, "\"x\"\nFinished successfully."},
		{"extended timed", timed, VerbosityExtended, "\"x\"\nFinished in 7 ms on " + stamp + "."},
		{"extended untimed", untimed, VerbosityExtended, "\"x\"\nFinished successfully on " + stamp + "."},
		{"silent", timed, VerbositySilent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testRenderer().Render(tt.result, Options{Format: FormatJSON, Verbosity: tt.verbosity})
			if err != nil {
				t.Fatalf("Render() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderPlainNeverHasStatus(t *testing.T) {
	for _, v := range Verbosities {
		got, err := testRenderer().Render(sample(), Options{Format: FormatPlain, Verbosity: v})
		if err != nil {
			t.Fatalf("Render(%s) failed: %v", v, err)
		}
		if strings.Contains(got, "Finished") {
			t.Errorf("plain output with %s has a status line: %q", v, got)
		}
	}
}

func TestRenderSilentIsEmpty(t *testing.T) {
	for _, f := range Formats {
		got, err := testRenderer().Render(sample(), Options{Format: f, Verbosity: VerbositySilent, Style: DefaultStyle})
		if err != nil {
			t.Fatalf("Render(%s) failed: %v", f, err)
		}
		if got != "" {
			t.Errorf("silent output with %s = %q, want empty", f, got)
		}
	}
}

func TestRenderInternalInconsistency(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown format", Options{Format: "xml", Verbosity: VerbosityNormal}},
		{"unknown verbosity", Options{Format: FormatJSON, Verbosity: "chatty"}},
		{"zero options", Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testRenderer().Render(sample(), tt.opts)
			if !errors.Is(err, ErrInternalInconsistency) {
				t.Errorf("Render() error = %v, want ErrInternalInconsistency", err)
			}
		})
	}
}

func TestEncodeYAML(t *testing.T) {
	got, err := EncodeYAML(map[string]any{"b": 1, "a": []any{"x", 2.5}})
	if err != nil {
		t.Fatalf("EncodeYAML() failed: %v", err)
	}
	want := "a:\n  - x\n  - 2.5\nb: 1"
	if got != want {
		t.Errorf("EncodeYAML() =\n%s\nwant\n%s", got, want)
	}
}

func TestEncodeJSONStructKeysSorted(t *testing.T) {
	type details struct {
		Realm  string `json:"realm"`
		AuthID string `json:"authid"`
	}

	got, err := EncodeJSON(details{Realm: "r", AuthID: "a"})
	if err != nil {
		t.Fatalf("EncodeJSON() failed: %v", err)
	}
	want := "{\n    \"authid\": \"a\",\n    \"realm\": \"r\"\n}"
	if got != want {
		t.Errorf("EncodeJSON() = %q, want %q", got, want)
	}
}

func TestEncodeJSONKeepsHTML(t *testing.T) {
	got, err := EncodeJSON("<a&b>")
	if err != nil {
		t.Fatalf("EncodeJSON() failed: %v", err)
	}
	if got != `"<a&b>"` {
		t.Errorf("EncodeJSON() = %s", got)
	}
}

func TestEncodePlain(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "hello", "hello"},
		{"number", 42, "42"},
		{"null", nil, "null"},
		{"flat list", []any{"a", true}, "- a\n- true"},
		{
			name: "nested mapping",
			value: map[string]any{
				"name": "node1",
				"tags": []any{"a", "b"},
				"meta": map[string]any{},
				"peer": nil,
			},
			want: "meta: {}\nname: node1\npeer: null\ntags:\n  - a\n  - b",
		},
		{
			name:  "list of mappings",
			value: []any{map[string]any{"id": 1}},
			want:  "-\n  id: 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodePlain(tt.value)
			if err != nil {
				t.Fatalf("EncodePlain() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("EncodePlain() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestSerializeColored(t *testing.T) {
	tests := []struct {
		format Format
		plain  Format
	}{
		{FormatJSONColor, FormatJSON},
		{FormatYAMLColor, FormatYAML},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			colored, err := Serialize(sample().Value, tt.format, DefaultStyle)
			if err != nil {
				t.Fatalf("Serialize() failed: %v", err)
			}
			if !strings.Contains(colored, "\x1b[") {
				t.Error("colored output has no escape sequences")
			}

			plain, _ := Serialize(sample().Value, tt.plain, DefaultStyle)
			stripped := ansiEscape.ReplaceAllString(colored, "")
			if strings.TrimSpace(stripped) != strings.TrimSpace(plain) {
				t.Errorf("highlighting changed the text:\n%s\nwant\n%s", stripped, plain)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(map[string]any{"i": 3, "f": 1.5, "big": uint64(1) << 63})
	if err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}
	m := got.(map[string]any)
	if _, ok := m["i"].(int); !ok {
		t.Errorf("integer normalized to %T", m["i"])
	}
	if _, ok := m["f"].(float64); !ok {
		t.Errorf("float normalized to %T", m["f"])
	}
	if _, ok := m["big"].(float64); !ok {
		t.Errorf("out of range integer normalized to %T", m["big"])
	}
}

func genValue(depth int) *rapid.Generator[any] {
	return rapid.Custom(func(t *rapid.T) any {
		kinds := 5
		if depth > 0 {
			kinds = 7
		}
		switch rapid.IntRange(0, kinds-1).Draw(t, "kind") {
		case 0:
			return rapid.String().Draw(t, "string")
		case 1:
			return rapid.Int64().Draw(t, "int")
		case 2:
			return rapid.Float64Range(-1e9, 1e9).Draw(t, "float")
		case 3:
			return rapid.Bool().Draw(t, "bool")
		case 4:
			return nil
		case 5:
			return rapid.SliceOfN(genValue(depth-1), 0, 4).Draw(t, "list")
		default:
			return rapid.MapOfN(rapid.String(), genValue(depth-1), 0, 4).Draw(t, "map")
		}
	})
}

func TestJSONRenderingIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := genValue(3).Draw(t, "value")

		first, err := EncodeJSON(value)
		if err != nil {
			t.Fatalf("EncodeJSON() failed: %v", err)
		}

		dec := json.NewDecoder(bytes.NewReader([]byte(first)))
		dec.UseNumber()
		var parsed any
		if err := dec.Decode(&parsed); err != nil {
			t.Fatalf("rendered JSON does not parse: %v\n%s", err, first)
		}

		second, err := EncodeJSON(parsed)
		if err != nil {
			t.Fatalf("EncodeJSON() of parsed value failed: %v", err)
		}
		if first != second {
			t.Fatalf("re-rendering changed output:\n%s\nvs\n%s", first, second)
		}
	})
}

func TestStatusRulesHoldForAllOptions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		format := rapid.SampledFrom(Formats).Draw(t, "format")
		verbosity := rapid.SampledFrom(Verbosities).Draw(t, "verbosity")
		value := genValue(2).Draw(t, "value")

		result := executor.Result{Value: value, Timed: true}
		got, err := testRenderer().Render(result, Options{Format: format, Verbosity: verbosity, Style: DefaultStyle})
		if err != nil {
			t.Fatalf("Render() failed: %v", err)
		}
		body, err := testRenderer().Render(result, Options{Format: format, Verbosity: VerbosityResultOnly, Style: DefaultStyle})
		if err != nil {
			t.Fatalf("Render() failed: %v", err)
		}

		switch {
		case verbosity == VerbositySilent:
			if got != "" {
				t.Fatalf("silent output = %q", got)
			}
		case format != FormatPlain && (verbosity == VerbosityNormal || verbosity == VerbosityExtended):
			if !strings.HasPrefix(got, body+"\nFinished in 0 ms") {
				t.Fatalf("format %s verbosity %s: missing status line:\n%s", format, verbosity, got)
			}
		default:
			if got != body {
				t.Fatalf("format %s verbosity %s: unexpected status line:\n%s", format, verbosity, got)
			}
		}
	})
}

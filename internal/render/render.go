package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/crossbario/crossbar-shell/internal/executor"
)

const (
	jsonIndent = "    "
	yamlIndent = 2
	// highlightFormatter is the chroma formatter for 256-color terminals.
	highlightFormatter = "terminal256"
)

// Renderer turns command results into terminal text.
type Renderer struct {
	// Now supplies the timestamp of extended status lines.
	Now func() time.Time
	// StatusStyle styles the status line.
	StatusStyle lipgloss.Style
}

// NewRenderer creates a Renderer using the wall clock.
func NewRenderer() *Renderer {
	return &Renderer{
		Now:         time.Now,
		StatusStyle: Finished,
	}
}

// Render serializes result according to opts and appends the status line
// the verbosity asks for. It returns an empty string when nothing is to be
// shown. Options outside their enumerated sets fail with
// ErrInternalInconsistency.
func (r *Renderer) Render(result executor.Result, opts Options) (string, error) {
	if !opts.Format.Valid() {
		return "", fmt.Errorf("%w: unprocessed output format %q", ErrInternalInconsistency, opts.Format)
	}
	if !opts.Verbosity.Valid() {
		return "", fmt.Errorf("%w: unprocessed output verbosity %q", ErrInternalInconsistency, opts.Verbosity)
	}

	if opts.Verbosity == VerbositySilent {
		return "", nil
	}

	body, err := Serialize(result.Value, opts.Format, opts.Style)
	if err != nil {
		return "", err
	}

	status := r.status(result, opts)
	if status == "" {
		return body, nil
	}
	return body + "\n" + status, nil
}

// status returns the line following a result. Plain output never has one.
func (r *Renderer) status(result executor.Result, opts Options) string {
	if opts.Format == FormatPlain {
		return ""
	}
	if opts.Verbosity != VerbosityNormal && opts.Verbosity != VerbosityExtended {
		return ""
	}

	line := "Finished successfully"
	if ms, ok := result.DurationMS(); ok {
		line = fmt.Sprintf("Finished in %d ms", ms)
	}
	if opts.Verbosity == VerbosityExtended {
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		line += " on " + now().Local().Format(time.RFC3339)
	}
	return r.StatusStyle.Render(line + ".")
}

// Serialize renders v in the given format, highlighted with style for the
// colored formats.
func Serialize(v any, format Format, style string) (string, error) {
	switch format {
	case FormatJSON, FormatJSONColor:
		text, err := EncodeJSON(v)
		if err != nil {
			return "", err
		}
		if format.Colored() {
			return Highlight(text, "json", style), nil
		}
		return text, nil
	case FormatYAML, FormatYAMLColor:
		text, err := EncodeYAML(v)
		if err != nil {
			return "", err
		}
		if format.Colored() {
			return Highlight(text, "yaml", style), nil
		}
		return text, nil
	case FormatPlain:
		return EncodePlain(v)
	default:
		return "", fmt.Errorf("%w: unprocessed output format %q", ErrInternalInconsistency, format)
	}
}

// EncodeJSON renders v as JSON with sorted keys, 4-space indentation and
// non-ASCII characters kept literally.
func EncodeJSON(v any) (string, error) {
	g, err := Generic(v)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(g); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// EncodeYAML renders v as block-style YAML.
func EncodeYAML(v any) (string, error) {
	n, err := Normalize(v)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(n); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Highlight colors source for a 256-color terminal. Text that chroma
// cannot highlight is returned unchanged.
func Highlight(source, language, style string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, language, highlightFormatter, style); err != nil {
		return source
	}
	return buf.String()
}

// Package render serializes command results for the terminal and applies
// the verbosity policy to the status line that follows them.
package render

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
)

// Format selects the serialization of a result.
type Format string

// Output formats.
const (
	FormatPlain     Format = "plain"
	FormatJSON      Format = "json"
	FormatJSONColor Format = "json-color"
	FormatYAML      Format = "yaml"
	FormatYAMLColor Format = "yaml-color"
)

// Formats lists every output format.
var Formats = []Format{FormatPlain, FormatJSON, FormatJSONColor, FormatYAML, FormatYAMLColor}

// Verbosity selects which lines accompany a result.
type Verbosity string

// Output verbosities.
const (
	VerbositySilent     Verbosity = "silent"
	VerbosityResultOnly Verbosity = "result-only"
	VerbosityNormal     Verbosity = "normal"
	VerbosityExtended   Verbosity = "extended"
)

// Verbosities lists every output verbosity.
var Verbosities = []Verbosity{VerbositySilent, VerbosityResultOnly, VerbosityNormal, VerbosityExtended}

// Defaults.
const (
	DefaultFormat    = FormatJSONColor
	DefaultVerbosity = VerbosityNormal
	DefaultStyle     = "fruity"
)

// Option names, as used by the set command and the config file.
const (
	OptionFormat    = "output-format"
	OptionVerbosity = "output-verbosity"
	OptionStyle     = "output-style"
)

var (
	// ErrInvalidOption is matched by every *InvalidOptionError.
	ErrInvalidOption = errors.New("invalid option")
	// ErrInternalInconsistency means an option held a value outside its
	// enumerated set at render time. It is always fatal.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// InvalidOptionError is returned when an option value is not allowed.
type InvalidOptionError struct {
	Option  string
	Value   string
	Allowed []string
}

// Error implements error.
func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid value %q for %s (allowed: %s)", e.Value, e.Option, strings.Join(e.Allowed, ", "))
}

// Is makes errors.Is(err, ErrInvalidOption) hold.
func (e *InvalidOptionError) Is(target error) bool {
	return target == ErrInvalidOption
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return slices.Contains(Formats, f)
}

// Colored reports whether f is highlighted.
func (f Format) Colored() bool {
	return f == FormatJSONColor || f == FormatYAMLColor
}

// Valid reports whether v is a known verbosity.
func (v Verbosity) Valid() bool {
	return slices.Contains(Verbosities, v)
}

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return "", &InvalidOptionError{Option: OptionFormat, Value: s, Allowed: names(Formats)}
	}
	return f, nil
}

// ParseVerbosity validates an output verbosity name.
func ParseVerbosity(s string) (Verbosity, error) {
	v := Verbosity(s)
	if !v.Valid() {
		return "", &InvalidOptionError{Option: OptionVerbosity, Value: s, Allowed: names(Verbosities)}
	}
	return v, nil
}

// ParseStyle validates a highlighting style name.
func ParseStyle(s string) (string, error) {
	allowed := Styles()
	if !slices.Contains(allowed, s) {
		return "", &InvalidOptionError{Option: OptionStyle, Value: s, Allowed: allowed}
	}
	return s, nil
}

// Styles lists the available highlighting styles in sorted order.
func Styles() []string {
	return styles.Names()
}

// Options is the rendering configuration owned by the shell context.
type Options struct {
	Format    Format
	Verbosity Verbosity
	Style     string
}

// DefaultOptions returns the startup rendering configuration.
func DefaultOptions() Options {
	return Options{Format: DefaultFormat, Verbosity: DefaultVerbosity, Style: DefaultStyle}
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// FormatNames returns the output format names.
func FormatNames() []string {
	return names(Formats)
}

// VerbosityNames returns the output verbosity names.
func VerbosityNames() []string {
	return names(Verbosities)
}

// Package commands implements the commands run by the shell against the
// session.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/crossbario/crossbar-shell/internal/executor"
	"github.com/crossbario/crossbar-shell/internal/session"
)

// ErrInvalidArgument is returned for malformed command arguments.
var ErrInvalidArgument = errors.New("invalid argument")

// Call invokes a remote procedure.
type Call struct {
	Procedure string
	Args      []any
	Kwargs    map[string]any
	Filter    *Filter
}

var _ executor.Command = (*Call)(nil)

// NewCall builds a call from command-line words. Arguments and keyword
// values are decoded as JSON when they parse, else taken as strings.
// Keywords are given as key=value.
func NewCall(procedure string, args, keywords []string, filter string) (*Call, error) {
	if procedure == "" {
		return nil, fmt.Errorf("%w: procedure is required", ErrInvalidArgument)
	}

	c := &Call{Procedure: procedure}
	for _, a := range args {
		c.Args = append(c.Args, ParseValue(a))
	}

	for _, kw := range keywords {
		key, value, ok := strings.Cut(kw, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: keyword %q must be key=value", ErrInvalidArgument, kw)
		}
		if c.Kwargs == nil {
			c.Kwargs = make(map[string]any)
		}
		c.Kwargs[key] = ParseValue(value)
	}

	if filter != "" {
		f, err := CompileFilter(filter)
		if err != nil {
			return nil, err
		}
		c.Filter = f
	}

	return c, nil
}

// Run implements executor.Command.
func (c *Call) Run(ctx context.Context, s *session.Session) (any, error) {
	result, err := s.Call(ctx, c.Procedure, c.Args, c.Kwargs)
	if err != nil {
		return nil, err
	}
	if c.Filter == nil {
		return result, nil
	}
	return c.Filter.Apply(ctx, result)
}

// ParseValue decodes s as a JSON value, falling back to the string itself.
func ParseValue(s string) any {
	if !json.Valid([]byte(s)) {
		return s
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return s
	}
	return v
}

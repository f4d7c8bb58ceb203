package commands

import (
	"context"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/crossbario/crossbar-shell/internal/render"
)

// Filter is a compiled jq expression applied to call results.
type Filter struct {
	expression string
	code       *gojq.Code
}

// CompileFilter parses and compiles a jq expression.
func CompileFilter(expression string) (*Filter, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expression, err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expression, err)
	}

	return &Filter{expression: expression, code: code}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expression
}

// Apply runs the filter over data. A single output is returned as is,
// several outputs as a list, no output as nil.
func (f *Filter) Apply(ctx context.Context, data any) (any, error) {
	input, err := render.Normalize(data)
	if err != nil {
		return nil, err
	}

	var results []any
	iter := f.code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if halt, ok := err.(*gojq.HaltError); ok && halt.Value() == nil {
				break
			}
			return nil, fmt.Errorf("filter %q failed: %w", f.expression, err)
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"

	"github.com/crossbario/crossbar-shell/internal/commands"
	"github.com/crossbario/crossbar-shell/internal/executor"
	"github.com/crossbario/crossbar-shell/internal/render"
	"github.com/crossbario/crossbar-shell/internal/session"
	"github.com/crossbario/crossbar-shell/internal/shell"
)

func newTestDispatcher(t *testing.T, withSession bool) (*dispatcher, *fakeClient, *bytes.Buffer) {
	t.Helper()

	client := newFakeClient()
	client.results["com.example.nodes"] = map[string]any{
		"nodes": []any{
			map[string]any{"id": "node1", "status": "online"},
			map[string]any{"id": "node2", "status": "offline"},
		},
	}

	state := shell.NewContext()
	if err := state.SetOutputFormat("json"); err != nil {
		t.Fatal(err)
	}
	if err := state.SetOutputVerbosity("result-only"); err != nil {
		t.Fatal(err)
	}
	if withSession {
		if err := state.SetSession(session.New(*client.details, client)); err != nil {
			t.Fatal(err)
		}
	}

	out := &bytes.Buffer{}
	return &dispatcher{
		state:    state,
		executor: executor.New(),
		renderer: render.NewRenderer(),
		out:      out,
	}, client, out
}

func TestDispatchCall(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "positional arguments",
			line: "call com.example.add 2 3",
			want: "{\n    \"sum\": 5\n}\n",
		},
		{
			name: "filter",
			line: `call com.example.nodes --filter '.nodes[] | select(.status == "online") | .id'`,
			want: "\"node1\"\n",
		},
		{
			name: "short filter flag",
			line: "call com.example.nodes -f '.nodes | length'",
			want: "2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, out := newTestDispatcher(t, true)

			if err := d.Dispatch(context.Background(), tt.line); err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if got := out.String(); !strings.HasPrefix(got, tt.want) {
				t.Errorf("output = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestDispatchErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		session bool
		wantErr error
	}{
		{"no session", "call com.example.add", false, executor.ErrNoSession},
		{"unbalanced quote", "call 'com.example.add", true, commands.ErrInvalidArgument},
		{"missing procedure", "call --filter .", true, commands.ErrInvalidArgument},
		{"bad keyword", "call com.example.add --kw novalue", true, commands.ErrInvalidArgument},
		{"invalid format", "set output-format xml", true, render.ErrInvalidOption},
		{"invalid verbosity", "set output-verbosity loud", true, render.ErrInvalidOption},
		{"invalid style", "set output-style no-such-style", true, render.ErrInvalidOption},
		{"exit", "exit", true, shell.ErrExit},
		{"quit", "quit", true, shell.ErrExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, _ := newTestDispatcher(t, tt.session)

			err := d.Dispatch(context.Background(), tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Dispatch(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			}
		})
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	d, _, _ := newTestDispatcher(t, true)

	err := d.Dispatch(context.Background(), "frobnicate")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("Dispatch() error = %v, want unknown command", err)
	}
}

func TestDispatchRemoteErrorUnmodified(t *testing.T) {
	d, _, _ := newTestDispatcher(t, true)

	err := d.Dispatch(context.Background(), "call com.example.missing")
	var remote *session.RemoteError
	if !errors.As(err, &remote) || remote.URI != "wamp.error.no_such_procedure" {
		t.Errorf("Dispatch() error = %v, want the remote error", err)
	}
}

func TestDispatchSettings(t *testing.T) {
	d, _, _ := newTestDispatcher(t, true)
	ctx := context.Background()

	for _, line := range []string{
		"set output-format yaml-color",
		"set output-verbosity extended",
		"set output-style monokai",
	} {
		if err := d.Dispatch(ctx, line); err != nil {
			t.Fatalf("Dispatch(%q) error = %v", line, err)
		}
	}

	opts := d.state.Options()
	if opts.Format != render.FormatYAMLColor || opts.Verbosity != render.VerbosityExtended || opts.Style != "monokai" {
		t.Errorf("options = %+v", opts)
	}
}

func TestDispatchInvalidSettingKeepsState(t *testing.T) {
	d, _, _ := newTestDispatcher(t, true)
	before := d.state.Options()

	_ = d.Dispatch(context.Background(), "set output-format xml")

	if d.state.Options() != before {
		t.Errorf("options changed to %+v", d.state.Options())
	}
}

func TestDispatchSelection(t *testing.T) {
	d, _, out := newTestDispatcher(t, true)
	ctx := context.Background()

	if err := d.Dispatch(ctx, "select node node1"); err != nil {
		t.Fatal(err)
	}
	if got := d.state.FormatSelected(); got != "node -> node1" {
		t.Errorf("FormatSelected() = %q", got)
	}

	if err := d.Dispatch(ctx, "show selected"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"resource_id": "node1"`) {
		t.Errorf("show selected output = %q", out.String())
	}

	if err := d.Dispatch(ctx, "unselect"); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := d.state.Selected(); ok {
		t.Error("selection should be cleared")
	}
}

func TestDispatchShowSession(t *testing.T) {
	d, _, out := newTestDispatcher(t, true)

	if err := d.Dispatch(context.Background(), "show session"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"authid": "alice@example.com"`, `"session": 42`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output %q does not contain %q", out.String(), want)
		}
	}
}

func TestDispatchBlankLine(t *testing.T) {
	d, client, out := newTestDispatcher(t, true)

	if err := d.Dispatch(context.Background(), "   "); err != nil {
		t.Errorf("Dispatch() error = %v", err)
	}
	if out.Len() != 0 || len(client.calls) != 0 {
		t.Error("blank line should do nothing")
	}
}

func TestDispatchFlagsDoNotLeak(t *testing.T) {
	d, _, out := newTestDispatcher(t, true)
	ctx := context.Background()

	if err := d.Dispatch(ctx, "call com.example.nodes -f '.nodes | length'"); err != nil {
		t.Fatal(err)
	}
	out.Reset()

	if err := d.Dispatch(ctx, "call com.example.add"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"sum": 5`) {
		t.Errorf("filter leaked into the next call: %q", out.String())
	}
}

func TestDispatchCallArguments(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantArgs   []any
		wantKwargs map[string]any
	}{
		{
			name:     "negative numbers",
			line:     "call com.example.add -1 -2.5",
			wantArgs: []any{json.Number("-1"), json.Number("-2.5")},
		},
		{
			name:     "negative numbers around flags",
			line:     "call com.example.add -1 --kw scale=-3 -2.5",
			wantArgs: []any{json.Number("-1"), json.Number("-2.5")},
			wantKwargs: map[string]any{
				"scale": json.Number("-3"),
			},
		},
		{
			name:     "exponent and strings",
			line:     "call com.example.add -1e3 -- '-not a number'",
			wantArgs: []any{json.Number("-1e3"), "-not a number"},
		},
		{
			name:     "double dash ends flags",
			line:     "call com.example.add -- --kw",
			wantArgs: []any{"--kw"},
		},
		{
			name:       "short keyword flag",
			line:       "call com.example.add 2 -k name=node1",
			wantArgs:   []any{json.Number("2")},
			wantKwargs: map[string]any{"name": "node1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, client, _ := newTestDispatcher(t, true)

			if err := d.Dispatch(context.Background(), tt.line); err != nil {
				t.Fatalf("Dispatch(%q) error = %v", tt.line, err)
			}
			if len(client.args) != 1 {
				t.Fatalf("expected 1 call, got %d", len(client.args))
			}
			if !reflect.DeepEqual(client.args[0], tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", client.args[0], tt.wantArgs)
			}
			if len(tt.wantKwargs) > 0 && !reflect.DeepEqual(client.kwargs[0], tt.wantKwargs) {
				t.Errorf("kwargs = %#v, want %#v", client.kwargs[0], tt.wantKwargs)
			}
		})
	}
}

func TestDispatchCallFilterValueMayLookNegative(t *testing.T) {
	d, _, out := newTestDispatcher(t, true)

	if err := d.Dispatch(context.Background(), "call com.example.nodes -f '.nodes | length' -1"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "2\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDispatchCallHelp(t *testing.T) {
	d, client, out := newTestDispatcher(t, true)

	if err := d.Dispatch(context.Background(), "call --help"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.Contains(out.String(), "--filter") || len(client.calls) != 0 {
		t.Errorf("expected call help, got %q", out.String())
	}
}

func TestDispatchKeepsTokenizerError(t *testing.T) {
	d, _, _ := newTestDispatcher(t, true)

	err := d.Dispatch(context.Background(), `call "com.example.add`)
	if !errors.Is(err, commands.ErrInvalidArgument) || !errors.Is(err, shellquote.UnterminatedDoubleQuoteError) {
		t.Errorf("Dispatch() error = %v, want both the argument and tokenizer errors", err)
	}
}

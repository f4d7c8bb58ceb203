package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crossbario/crossbar-shell/internal/render"
	"github.com/crossbario/crossbar-shell/internal/session"
)

// scriptReader returns queued lines, then blocks or ends with io.EOF.
type scriptReader struct {
	mu      sync.Mutex
	lines   []string
	prompts []string
	block   chan struct{}
}

func (r *scriptReader) ReadLine(prompt string) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		r.mu.Unlock()
		if r.block != nil {
			<-r.block
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	r.mu.Unlock()
	return line, nil
}

func (r *scriptReader) seenPrompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

func newLoop(reader LineReader, dispatch Dispatcher, interrupts chan os.Signal) (*Loop, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Loop{
		State:      NewContext(),
		Reader:     reader,
		Dispatch:   dispatch,
		Interrupts: interrupts,
		Out:        &out,
		Err:        &errOut,
	}, &out, &errOut
}

func TestLoopContinuesAfterFailingCommand(t *testing.T) {
	reader := &scriptReader{lines: []string{"fail", "", "ok"}}
	var ran []string

	loop, _, errOut := newLoop(reader, func(ctx context.Context, line string) error {
		ran = append(ran, line)
		if line == "fail" {
			return &session.RemoteError{URI: "wamp.error.no_such_procedure"}
		}
		return nil
	}, nil)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if strings.Join(ran, ",") != "fail,ok" {
		t.Errorf("dispatched %v, want fail then ok", ran)
	}
	if !strings.Contains(errOut.String(), "wamp.error.no_such_procedure") {
		t.Errorf("failure was not reported: %q", errOut.String())
	}
}

func TestLoopExit(t *testing.T) {
	reader := &scriptReader{lines: []string{"exit", "never"}}
	var ran []string

	loop, _, _ := newLoop(reader, func(ctx context.Context, line string) error {
		ran = append(ran, line)
		if line == "exit" {
			return ErrExit
		}
		return nil
	}, nil)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(ran) != 1 {
		t.Errorf("dispatched %v after exit", ran)
	}
}

func TestLoopFatalErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"internal inconsistency", fmt.Errorf("%w: unprocessed output format", render.ErrInternalInconsistency)},
		{"protocol violation", session.ErrAlreadyResolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &scriptReader{lines: []string{"boom", "next"}}
			calls := 0
			loop, _, _ := newLoop(reader, func(ctx context.Context, line string) error {
				calls++
				return tt.err
			}, nil)

			if err := loop.Run(context.Background()); !errors.Is(err, tt.err) {
				t.Errorf("Run() error = %v, want %v", err, tt.err)
			}
			if calls != 1 {
				t.Errorf("loop continued after a fatal error (%d calls)", calls)
			}
		})
	}
}

func TestLoopInterruptCancelsCommand(t *testing.T) {
	interrupts := make(chan os.Signal, 1)
	reader := &scriptReader{lines: []string{"slow", "after"}}
	started := make(chan struct{})
	var ran []string
	var mu sync.Mutex

	loop, out, errOut := newLoop(reader, func(ctx context.Context, line string) error {
		mu.Lock()
		ran = append(ran, line)
		mu.Unlock()
		if line == "slow" {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}, interrupts)

	go func() {
		<-started
		interrupts <- os.Interrupt
	}()

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(ran, ",") != "slow,after" {
		t.Errorf("dispatched %v, want slow then after", ran)
	}
	if !strings.Contains(out.String(), "Command cancelled.") {
		t.Errorf("cancellation was not reported: %q", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("cancellation should not be reported as an error: %q", errOut.String())
	}
}

func TestLoopDoubleInterruptAtPromptExits(t *testing.T) {
	interrupts := make(chan os.Signal, 2)
	reader := &scriptReader{block: make(chan struct{})}
	defer close(reader.block)

	loop, out, _ := newLoop(reader, func(ctx context.Context, line string) error {
		t.Errorf("unexpected dispatch of %q", line)
		return nil
	}, interrupts)

	interrupts <- os.Interrupt
	interrupts <- os.Interrupt

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on the second interrupt")
	}

	if !strings.Contains(out.String(), InterruptHint) {
		t.Errorf("first interrupt should print the hint: %q", out.String())
	}
}

func TestLoopPromptShowsSelection(t *testing.T) {
	reader := &scriptReader{lines: []string{"select node node1"}}
	loop, _, _ := newLoop(reader, nil, nil)
	loop.Dispatch = func(ctx context.Context, line string) error {
		loop.State.Select("node", "node1")
		return nil
	}

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	prompts := reader.seenPrompts()
	if len(prompts) != 2 {
		t.Fatalf("prompts = %v", prompts)
	}
	if prompts[0] != "cbsh> " {
		t.Errorf("first prompt = %q", prompts[0])
	}
	if prompts[1] != "cbsh [node -> node1]> " {
		t.Errorf("prompt after select = %q", prompts[1])
	}
}

func TestTerminalReader(t *testing.T) {
	history := filepath.Join(t.TempDir(), "history")
	var out bytes.Buffer
	r := NewTerminalReader(strings.NewReader("call a\r\n\nshow session"), &out, history)

	if r.Interactive() {
		t.Error("a string reader is not a terminal")
	}

	want := []string{"call a", "", "show session"}
	for _, w := range want {
		got, err := r.ReadLine("cbsh> ")
		if err != nil {
			t.Fatalf("ReadLine() failed: %v", err)
		}
		if got != w {
			t.Errorf("ReadLine() = %q, want %q", got, w)
		}
	}
	if _, err := r.ReadLine("cbsh> "); !errors.Is(err, io.EOF) {
		t.Errorf("ReadLine() at end = %v, want io.EOF", err)
	}

	if out.Len() != 0 {
		t.Errorf("prompt printed for non-interactive input: %q", out.String())
	}

	data, err := os.ReadFile(history)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if string(data) != "call a\nshow session\n" {
		t.Errorf("history = %q", data)
	}
}

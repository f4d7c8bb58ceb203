package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/crossbario/crossbar-shell/internal/render"
	"github.com/crossbario/crossbar-shell/internal/session"
)

// ErrExit is returned by a dispatcher to end the loop.
var ErrExit = errors.New("exit requested")

// InterruptHint is shown after an interrupt at an idle prompt.
const InterruptHint = "(To exit, press Ctrl-C again or Ctrl-D, or type exit)"

// LineReader reads one line of input. It returns io.EOF at end of input.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Dispatcher parses and runs one input line.
type Dispatcher func(ctx context.Context, line string) error

// Loop reads lines, dispatches them one at a time and reports failures
// without ending the session.
type Loop struct {
	State      *Context
	Reader     LineReader
	Dispatch   Dispatcher
	Interrupts <-chan os.Signal
	Out        io.Writer
	Err        io.Writer
	Logger     *slog.Logger
}

type lineResult struct {
	line string
	err  error
}

// Run drives the loop until exit, end of input, two consecutive interrupts
// at the prompt, or a fatal error. Fatal errors are returned.
func (l *Loop) Run(ctx context.Context) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	requests := make(chan string)
	lines := make(chan lineResult, 1)
	defer close(requests)

	go func() {
		for prompt := range requests {
			line, err := l.Reader.ReadLine(prompt)
			lines <- lineResult{line: line, err: err}
		}
	}()

	waiting := false
	interrupted := false
	for {
		if !waiting {
			requests <- l.Prompt()
			waiting = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-l.Interrupts:
			if interrupted {
				fmt.Fprintln(l.Out)
				return nil
			}
			interrupted = true
			fmt.Fprintln(l.Out)
			fmt.Fprintln(l.Out, InterruptHint)

		case res := <-lines:
			waiting = false
			interrupted = false

			if errors.Is(res.err, io.EOF) {
				fmt.Fprintln(l.Out)
				return nil
			}
			if res.err != nil {
				return fmt.Errorf("failed to read input: %w", res.err)
			}

			line := strings.TrimSpace(res.line)
			if line == "" {
				continue
			}

			err := l.execute(ctx, line)
			switch {
			case err == nil:
			case errors.Is(err, ErrExit):
				return nil
			case IsFatal(err):
				logger.Error("fatal error in shell loop", "error", err)
				return err
			default:
				logger.Debug("command failed", "line", line, "error", err)
				fmt.Fprintln(l.Err, render.StatusError.Render("Error: "+err.Error()))
			}
		}
	}
}

// execute runs one line. An interrupt cancels the command but keeps the
// session and the loop.
func (l *Loop) execute(ctx context.Context, line string) error {
	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- l.Dispatch(cmdCtx, line)
	}()

	select {
	case err := <-done:
		return err
	case <-l.Interrupts:
		cancel()
		err := <-done
		if err == nil || errors.Is(err, context.Canceled) {
			fmt.Fprintln(l.Out)
			fmt.Fprintln(l.Out, "Command cancelled.")
			return nil
		}
		return err
	}
}

// Prompt returns the prompt, showing the selected resource.
func (l *Loop) Prompt() string {
	if l.State != nil {
		if _, _, ok := l.State.Selected(); ok {
			return fmt.Sprintf("cbsh [%s]> ", l.State.FormatSelected())
		}
	}
	return "cbsh> "
}

// IsFatal reports whether err must end the shell.
func IsFatal(err error) bool {
	return errors.Is(err, render.ErrInternalInconsistency) || errors.Is(err, session.ErrProtocolViolation)
}

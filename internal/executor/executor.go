// Package executor runs shell commands against the authenticated session.
package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/crossbario/crossbar-shell/internal/session"
)

// ErrNoSession is returned when a command is executed without a session.
var ErrNoSession = errors.New("no active session")

// Command is a parsed unit of work run against a session.
type Command interface {
	Run(ctx context.Context, s *session.Session) (any, error)
}

// CommandFunc adapts a function to the Command interface.
type CommandFunc func(ctx context.Context, s *session.Session) (any, error)

// Run implements Command.
func (f CommandFunc) Run(ctx context.Context, s *session.Session) (any, error) {
	return f(ctx, s)
}

// Timer is implemented by commands that opt out of duration reporting,
// e.g. commands answered locally without a remote call.
type Timer interface {
	Timed() bool
}

// Result is the outcome of one successful command.
type Result struct {
	// Value is the command payload: a mapping, sequence or scalar.
	Value any
	// Duration is the wall-clock time from invocation to resolution.
	Duration time.Duration
	// Timed reports whether Duration was measured.
	Timed bool
}

// DurationMS returns the duration in whole milliseconds, and false when
// the duration was not measured.
func (r Result) DurationMS() (int64, bool) {
	if !r.Timed {
		return 0, false
	}
	return r.Duration.Round(time.Millisecond).Milliseconds(), true
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock sets the clock used to measure durations.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Executor runs one command at a time and measures it.
type Executor struct {
	now    func() time.Time
	logger *slog.Logger
}

// New creates an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs cmd against s and wraps its payload into a Result. Errors
// raised by the command are returned unmodified.
func (e *Executor) Execute(ctx context.Context, cmd Command, s *session.Session) (Result, error) {
	if s == nil {
		return Result{}, ErrNoSession
	}

	start := e.now()
	value, err := cmd.Run(ctx, s)
	elapsed := e.now().Sub(start)

	if err != nil {
		e.logger.Debug("command failed", "duration_ms", elapsed.Milliseconds(), "error", err)
		return Result{}, err
	}

	timed := true
	if t, ok := cmd.(Timer); ok {
		timed = t.Timed()
	}

	e.logger.Debug("command finished", "duration_ms", elapsed.Milliseconds(), "timed", timed)
	return Result{Value: value, Duration: elapsed, Timed: timed}, nil
}

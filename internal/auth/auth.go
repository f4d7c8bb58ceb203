package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/crossbario/crossbar-shell/internal/notify"
	"github.com/crossbario/crossbar-shell/internal/session"
)

// Request describes one authentication attempt.
type Request struct {
	URL    string
	Realm  string
	Extras session.Extras
	// Profile names the profile in notifications.
	Profile string
}

// Outcome is the resolved state of an attempt. Exactly one of Session and
// Rejection is set.
type Outcome struct {
	State     State
	Session   *session.Session
	Rejection *RejectedError
}

// ExitCode is the process exit code the outcome maps to.
func (o *Outcome) ExitCode() int {
	if o.Rejection != nil {
		return o.Rejection.Reason.ExitCode()
	}
	if o.State == StateSucceeded {
		return 0
	}
	return 1
}

// Succeeded reports whether a session was established.
func (o *Outcome) Succeeded() bool {
	return o.State == StateSucceeded && o.Session != nil
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithNotifier sends desktop notifications for code-sent and failure outcomes.
func WithNotifier(n notify.Notifier) Option {
	return func(a *Authenticator) {
		a.notifier = n
	}
}

// Authenticator opens the session through a client and classifies the result.
type Authenticator struct {
	client   session.Client
	logger   *slog.Logger
	notifier notify.Notifier
}

// New creates an Authenticator over client.
func New(client session.Client, opts ...Option) *Authenticator {
	a := &Authenticator{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run performs one attempt. It suspends only while the client waits for
// the router's answer and never retries.
//
// A rejection inside RejectionPrefix yields an Outcome carrying the
// classified RejectedError. Any other error, including a rejection outside
// that namespace, is returned unmodified with a nil Outcome.
func (a *Authenticator) Run(ctx context.Context, req Request) (*Outcome, error) {
	m := &machine{state: StatePending}
	a.logger.Debug("authenticating", "url", req.URL, "realm", req.Realm, "authid", req.Extras.AuthID,
		"activation_code", req.Extras.ActivationCode != "", "new_code", req.Extras.RequestNewActivationCode)

	details, err := a.client.Open(ctx, req.URL, req.Realm, req.Extras)
	if err == nil {
		if terr := m.transition(StateSucceeded); terr != nil {
			return nil, terr
		}
		a.logger.Info("authenticated", "session", details.SessionID, "authid", details.AuthID, "authrole", details.AuthRole)
		return &Outcome{State: m.state, Session: session.New(*details, a.client)}, nil
	}

	var remote *session.RemoteError
	if !errors.As(err, &remote) {
		return nil, err
	}
	reason, code, ok := DecodeRejection(remote.URI)
	if !ok {
		a.logger.Debug("unrecognized rejection", "uri", remote.URI)
		return nil, err
	}

	rejection := &RejectedError{Reason: reason, Code: code, URI: remote.URI, Message: remote.Message}
	if terr := m.transition(reason.State()); terr != nil {
		return nil, terr
	}
	a.logger.Info("authentication rejected", "reason", code, "state", m.state)
	a.notify(req.Profile, rejection)

	return &Outcome{State: m.state, Rejection: rejection}, nil
}

func (a *Authenticator) notify(profile string, rejection *RejectedError) {
	if a.notifier == nil {
		return
	}

	var err error
	switch rejection.Reason {
	case ReasonNewUserCodeSent, ReasonRegisteredUserCodeSent:
		err = a.notifier.NotifyCodeSent(profile, rejection.Message)
	case ReasonPendingActivation:
		return
	default:
		err = a.notifier.NotifyFailure(profile, rejection)
	}
	if err != nil {
		a.logger.Debug("failed to send notification", "error", err)
	}
}

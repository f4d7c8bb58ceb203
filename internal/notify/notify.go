// Package notify provides desktop notification support for cbsh.
package notify

import (
	"fmt"

	"github.com/crossbario/crossbar-shell/internal/config"
)

// Notifier defines the interface for sending desktop notifications.
type Notifier interface {
	// NotifyCodeSent sends a notification that an activation code was emailed.
	NotifyCodeSent(profile, message string) error
	// NotifyFailure sends a notification about an authentication failure.
	NotifyFailure(profile string, err error) error
}

// Option configures a Notifier.
type Option func(*notifier)

// WithBackend sets a custom notification backend (for testing).
func WithBackend(backend Backend) Option {
	return func(n *notifier) {
		n.backend = backend
	}
}

// notifier sends desktop notifications using the system notification service.
type notifier struct {
	onCodeSent bool
	onFailure  bool
	backend    Backend
}

// NotifyCodeSent sends a notification that an activation code was emailed.
func (n *notifier) NotifyCodeSent(profile, message string) error {
	if !n.onCodeSent {
		return nil
	}

	title := "cbsh: Activation Code Sent"
	body := fmt.Sprintf("Profile '%s': %s\nPlease check your inbox.", profile, message)

	return n.backend.Send(Notification{Title: title, Body: body})
}

// NotifyFailure sends a notification about an authentication failure.
func (n *notifier) NotifyFailure(profile string, err error) error {
	if !n.onFailure {
		return nil
	}

	title := "cbsh: Authentication Failed"
	body := fmt.Sprintf("Failed to authenticate profile '%s'.\nError: %v", profile, err)

	return n.backend.Send(Notification{Title: title, Body: body, Urgent: true})
}

// New creates a new Notifier based on the configuration.
func New(cfg config.NotificationConfig, opts ...Option) Notifier {
	n := &notifier{
		onCodeSent: cfg.Enabled && cfg.OnCodeSent,
		onFailure:  cfg.Enabled && cfg.OnFailure,
		backend:    desktopBackend{},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

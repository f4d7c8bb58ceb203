// Package session defines the authenticated session shared by all shell
// commands and the client interface it is opened through.
package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrClosed is returned by calls on a session that has been closed.
var ErrClosed = errors.New("session closed")

// Extras carries the identity presented to the router when opening a session.
type Extras struct {
	AuthID   string
	AuthRole string
	// ActivationCode is the code the user received by email, if any.
	ActivationCode string
	// RequestNewActivationCode asks the router to issue a fresh code.
	RequestNewActivationCode bool
}

// Details describes an established session as announced by the router.
type Details struct {
	URL        string `json:"url"`
	Realm      string `json:"realm"`
	AuthID     string `json:"authid"`
	AuthRole   string `json:"authrole"`
	AuthMethod string `json:"authmethod"`
	SessionID  uint64 `json:"session"`
}

// Caller invokes remote procedures.
type Caller interface {
	Call(ctx context.Context, procedure string, args []any, kwargs map[string]any) (any, error)
}

// Client opens and holds one connection to the router.
type Client interface {
	Caller
	// Open connects and suspends until the router welcomes or rejects the
	// session. A rejection is returned as *RemoteError.
	Open(ctx context.Context, url, realm string, extras Extras) (*Details, error)
	// Close leaves the session and releases the connection.
	Close() error
}

// Session is the single live authenticated connection of the process.
type Session struct {
	Details
	client Client
}

// New wraps an opened client into a Session.
func New(details Details, client Client) *Session {
	return &Session{Details: details, client: client}
}

// Call invokes a remote procedure on the session.
func (s *Session) Call(ctx context.Context, procedure string, args []any, kwargs map[string]any) (any, error) {
	if s == nil || s.client == nil {
		return nil, ErrClosed
	}
	return s.client.Call(ctx, procedure, args, kwargs)
}

// Close releases the session. It is safe to call more than once.
func (s *Session) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	client := s.client
	s.client = nil
	return client.Close()
}

// RemoteError is an error raised by the router or a remote callee.
type RemoteError struct {
	// URI is the error identifier, e.g. "fabric.auth-failed.pending-activation".
	URI string
	// Message is the human-readable message supplied by the remote side.
	Message string
	Args    []any
	Kwargs  map[string]any
}

// Error implements error.
func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.URI
	}
	return fmt.Sprintf("%s: %s", e.URI, e.Message)
}

package commands

import (
	"context"

	"github.com/crossbario/crossbar-shell/internal/session"
	"github.com/crossbario/crossbar-shell/internal/shell"
)

// SessionInfo returns the details of the current session.
type SessionInfo struct{}

// Run implements executor.Command.
func (SessionInfo) Run(ctx context.Context, s *session.Session) (any, error) {
	return s.Details, nil
}

// Timed implements executor.Timer; no remote call is made.
func (SessionInfo) Timed() bool { return false }

// ShowSelected returns the resource selected in the shell.
type ShowSelected struct {
	State *shell.Context
}

// Run implements executor.Command.
func (c ShowSelected) Run(ctx context.Context, s *session.Session) (any, error) {
	resourceType, resourceID, ok := c.State.Selected()
	if !ok {
		return nil, nil
	}
	return map[string]any{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}, nil
}

// Timed implements executor.Timer.
func (ShowSelected) Timed() bool { return false }

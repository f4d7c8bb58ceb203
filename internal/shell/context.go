// Package shell holds the process-wide shell state and runs the
// interactive command loop.
package shell

import (
	"errors"
	"fmt"

	"github.com/crossbario/crossbar-shell/internal/render"
	"github.com/crossbario/crossbar-shell/internal/session"
)

// ErrSessionExists is returned when a second session is attached.
var ErrSessionExists = errors.New("a session is already active")

// Context is the shell state read and written by commands: rendering
// options, the selected resource and the single session. It is owned by
// the loop and accessed by one command at a time.
type Context struct {
	options render.Options

	resourceType string
	resourceID   string
	selected     bool

	session *session.Session
}

// NewContext creates a Context with default rendering options.
func NewContext() *Context {
	return &Context{options: render.DefaultOptions()}
}

// Options returns the current rendering options.
func (c *Context) Options() render.Options {
	return c.options
}

// SetOutputFormat replaces the output format. An unknown value fails with
// *render.InvalidOptionError and leaves the format unchanged.
func (c *Context) SetOutputFormat(value string) error {
	f, err := render.ParseFormat(value)
	if err != nil {
		return err
	}
	c.options.Format = f
	return nil
}

// SetOutputVerbosity replaces the output verbosity.
func (c *Context) SetOutputVerbosity(value string) error {
	v, err := render.ParseVerbosity(value)
	if err != nil {
		return err
	}
	c.options.Verbosity = v
	return nil
}

// SetOutputStyle replaces the highlighting style.
func (c *Context) SetOutputStyle(value string) error {
	s, err := render.ParseStyle(value)
	if err != nil {
		return err
	}
	c.options.Style = s
	return nil
}

// Select sets the resource shown in the prompt. It does not affect how
// commands are routed.
func (c *Context) Select(resourceType, resourceID string) {
	c.resourceType = resourceType
	c.resourceID = resourceID
	c.selected = true
}

// Unselect clears the selected resource.
func (c *Context) Unselect() {
	c.resourceType = ""
	c.resourceID = ""
	c.selected = false
}

// Selected returns the selected resource, if any.
func (c *Context) Selected() (resourceType, resourceID string, ok bool) {
	return c.resourceType, c.resourceID, c.selected
}

// FormatSelected renders the selection as "type -> id".
func (c *Context) FormatSelected() string {
	if !c.selected {
		return "none"
	}
	return fmt.Sprintf("%s -> %s", c.resourceType, c.resourceID)
}

// SetSession attaches the session. At most one session exists per process.
func (c *Context) SetSession(s *session.Session) error {
	if c.session != nil {
		return ErrSessionExists
	}
	c.session = s
	return nil
}

// Session returns the attached session, or nil.
func (c *Context) Session() *session.Session {
	return c.session
}

// CloseSession releases the session.
func (c *Context) CloseSession() error {
	if c.session == nil {
		return nil
	}
	s := c.session
	c.session = nil
	return s.Close()
}

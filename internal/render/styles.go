package render

import (
	"github.com/charmbracelet/lipgloss"
)

// Terminal styles shared by the shell.
var (
	// Brand styles product and session identifiers.
	Brand = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")) // yellow

	// StatusOK styles confirmations.
	StatusOK = lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // green

	// StatusError styles failures.
	StatusError = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")) // red

	// Finished styles the status line after a result.
	Finished = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
)

// Package cliui provides shared terminal styling for oagw CLI commands.
package cliui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	KeyStyle   = lipgloss.NewStyle().Bold(true)
	DimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// StatusLine renders an HTTP status and its attributed error source for
// terminal output, e.g. "502 (source: upstream)".
func StatusLine(status int, source fmt.Stringer) string {
	line := fmt.Sprintf("%d (source: %s)", status, source)
	if status >= 400 {
		return ErrorStyle.Render(line)
	}
	return line
}

// EventHeader renders an SSE event's id and type for verbose stream output.
func EventHeader(id, eventType string) string {
	header := fmt.Sprintf("event=%s", eventType)
	if id != "" {
		header = fmt.Sprintf("id=%s %s", id, header)
	}
	return DimStyle.Render(header)
}

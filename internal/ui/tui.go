// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the workstation UI
package ui

import (
	"github.com/stemdeck/stemdeck-go/pkg/stems"
	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a new TUI model. method is the separation method used by Split.
func NewModel(ctrl Controller, method stems.Method) Model {
	m := Model{
		ctrl:     ctrl,
		method:   method,
		selected: 1,
	}
	if ctrl != nil {
		m.applySnapshot(ctrl.Snapshot())
	}
	return m
}

// Run creates the TUI program; the caller runs it
func Run(ctrl Controller, method stems.Method) *tea.Program {
	return tea.NewProgram(NewModel(ctrl, method), tea.WithAltScreen())
}

// ABOUTME: Rendering entry point for the TUI
// ABOUTME: Implements the Bubble Tea View() function and the panel layout

package tui

import (
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the TUI
func (m model) View() string {
	defer func() {
		if r := recover(); r != nil {
			m.debugf("[PANIC] View panic: %v", r)
			m.debugf("[PANIC] Stack trace: %s", string(debug.Stack()))
			panic(r) // Re-panic so Bubble Tea can handle it
		}
	}()

	if m.quitting {
		return "Exiting...\n"
	}

	// Both panels share the page height so they join cleanly
	_, rows := m.viewport.Cells()
	panelHeight := titleHeight + rows

	leftPanelStyle := lipgloss.NewStyle().
		Width(paramPanelWidth).
		Height(panelHeight).
		Padding(0, 1)

	combined := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftPanelStyle.Render(m.renderParameters()),
		strings.Repeat(" ", panelPadding),
		m.renderPage(),
	)

	return combined + "\n" + m.renderStatus() + "\n" + m.renderHelp()
}

// ABOUTME: Render helpers for the TUI panels
// ABOUTME: Draws the settings panel, the painted page canvas, the status bar and help

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"scrollspeed/dom"
)

// renderParameters renders the settings control panel
func (m model) renderParameters() string {
	var s strings.Builder

	title := "Settings"
	if m.focusedPanel == panelParams {
		title += " *"
	}
	s.WriteString(titleStyle.Render(title) + "\n")

	for i, p := range m.paramMgr.All() {
		var value string
		if p.IsToggle() {
			value = "off"
			if *p.Flag {
				value = "on"
			}
		} else {
			value = fmt.Sprintf("%.2f", *p.Value)
		}

		line := fmt.Sprintf("%-18s %8s", p.Name, value)
		if i == m.paramMgr.Selected() && m.focusedPanel == panelParams {
			s.WriteString(selectedParamStyle.Render(line) + "\n")
		} else {
			s.WriteString(paramStyle.Render(line) + "\n")
		}
	}

	return s.String()
}

// renderPage paints the document and renders the canvas row by row
func (m model) renderPage() string {
	m.page.Paint(m.canvas)

	title := m.pageName
	if title == "" {
		title = m.page.Host()
	}
	if title == "" {
		title = "page"
	}
	if m.focusedPanel == panelPage {
		title += " *"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(truncate(title, m.canvas.Cols)))
	for row := 0; row < m.canvas.Rows; row++ {
		s.WriteString("\n")
		s.WriteString(renderCells(m.canvas.Row(row)))
	}
	return s.String()
}

// renderCells styles one canvas row, one run of equally styled cells at a time
func renderCells(cells []dom.Cell) string {
	var out strings.Builder
	var run []rune
	var runStyle *lipgloss.Style

	flush := func() {
		if len(run) == 0 {
			return
		}
		if runStyle == nil {
			out.WriteString(string(run))
		} else {
			out.WriteString(runStyle.Render(string(run)))
		}
		run = run[:0]
	}

	for _, c := range cells {
		style := cellStyle(c)
		if style != runStyle {
			flush()
			runStyle = style
		}
		run = append(run, c.Ch)
	}
	flush()

	return out.String()
}

// cellStyle picks the style for a cell; nil means unstyled
func cellStyle(c dom.Cell) *lipgloss.Style {
	switch c.Kind {
	case dom.CellScrollThumb:
		return &thumbStyle
	case dom.CellScrollTrack:
		return &trackStyle
	case dom.CellText:
		if c.Frame > 0 {
			return &frameTextStyle
		}
	}
	return nil
}

// renderStatus renders the status bar
func (m model) renderStatus() string {
	// Show status message if recent
	if m.statusMsg != "" && time.Since(m.statusMsgAge) < statusMessageDuration {
		return statusStyle.Width(m.width).Render(m.statusMsg)
	}

	stats := m.engines.Stats()

	motion := "idle"
	for _, e := range m.engines.Engines() {
		if e.Flinging() {
			motion = fmt.Sprintf("flinging %.2f px/ms", e.FlingVelocity().Speed())
			break
		}
	}

	mode := ""
	if m.page.Fullscreen() {
		mode = "[FULL] "
	}
	if m.localSettings.DisableExtension {
		mode += "[OFF] "
	}

	x, y := m.page.RootElement().ScrollOffset()
	status := fmt.Sprintf("%s%s | scroll %.0f,%.0f | handled %d | passed %d | forwarded %d | flings %d | U:%d R:%d",
		mode,
		motion,
		x, y,
		stats.Handled,
		stats.PassedThrough,
		stats.Forwarded,
		stats.FlingsStarted,
		m.undoMgr.UndoSize(),
		m.undoMgr.RedoSize(),
	)

	return statusStyle.Width(m.width).Render(status)
}

// ShortHelp lists the bindings shown in the help line
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Up, k.Left, k.Toggle, k.Reset, k.Undo, k.Redo, k.Full, k.Quit}
}

// FullHelp lists every binding
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Up, k.Down, k.Left, k.Right},
		{k.Toggle, k.Reset, k.Undo, k.Redo, k.Full, k.Quit},
	}
}

// renderHelp renders the help text
func (m model) renderHelp() string {
	h := help.New()
	h.Width = m.width
	h.Styles.ShortKey = helpStyle.Bold(true)
	h.Styles.ShortDesc = helpStyle
	return " " + h.View(keys)
}

// ABOUTME: Event handling and state updates for the TUI
// ABOUTME: Implements the Bubble Tea Update() function and message handlers

package tui

import (
	"runtime/debug"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"scrollspeed/scroll"
)

// Update handles messages and updates the model
//
//nolint:ireturn // Bubble Tea framework requires returning tea.Model interface
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.debugf("[PANIC] Update panic: %v", r)
			m.debugf("[PANIC] Stack trace: %s", string(debug.Stack()))
			panic(r) // Re-panic so Bubble Tea can handle it
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePage()

		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)

		return m, m.sched.drain()

	case frameMsg:
		m.sched.handleFrame()

		return m, m.sched.drain()

	case timerMsg:
		m.sched.handleTimer(msg.id)

		return m, m.sched.drain()

	case SettingsChange:
		m.applyExternal(msg)

		return m, waitForSettings(m.changes)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey dispatches key presses to their handlers
func (m *model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.handleQuitKey()

	case key.Matches(msg, keys.Tab):
		m.handleTabKey()

	case key.Matches(msg, keys.Up):
		m.handleVerticalKey(true)

	case key.Matches(msg, keys.Down):
		m.handleVerticalKey(false)

	case key.Matches(msg, keys.Left):
		m.handleHorizontalKey(false)

	case key.Matches(msg, keys.Right):
		m.handleHorizontalKey(true)

	case key.Matches(msg, keys.Toggle):
		if m.focusedPanel == panelParams {
			m.editSelected(m.paramMgr.Toggle)
		}

	case key.Matches(msg, keys.Reset):
		m.resetToDefaults()

	case key.Matches(msg, keys.Undo):
		m.undo()

	case key.Matches(msg, keys.Redo):
		m.redo()

	case key.Matches(msg, keys.Full):
		m.handleFullscreenKey()
	}

	return *m, m.sched.drain()
}

// handleQuitKey stops the engines and exits
func (m *model) handleQuitKey() (model, tea.Cmd) {
	m.quitting = true
	m.close()

	return *m, tea.Quit
}

// handleTabKey switches focus between the panels
func (m *model) handleTabKey() {
	if m.focusedPanel == panelParams {
		m.focusedPanel = panelPage
	} else {
		m.focusedPanel = panelParams
	}
}

// handleVerticalKey selects a parameter or scrolls the page by one notch
func (m *model) handleVerticalKey(isUp bool) {
	if m.focusedPanel == panelParams {
		if isUp {
			m.paramMgr.SelectPrevious()
		} else {
			m.paramMgr.SelectNext()
		}
		return
	}

	dy := m.wheelStep
	if isUp {
		dy = -dy
	}
	x, y := m.viewport.Center()
	m.wheel(x, y, scroll.WheelEvent{DeltaY: dy})
}

// handleHorizontalKey adjusts the selected parameter or scrolls the page sideways
func (m *model) handleHorizontalKey(increase bool) {
	if m.focusedPanel == panelParams {
		if increase {
			m.editSelected(m.paramMgr.Increase)
		} else {
			m.editSelected(m.paramMgr.Decrease)
		}
		return
	}

	dx := m.wheelStep
	if !increase {
		dx = -dx
	}
	// Shift marks the event as a sideways scroll rather than a navigation swipe
	x, y := m.viewport.Center()
	m.wheel(x, y, scroll.WheelEvent{DeltaX: dx, Shift: true})
}

// handleFullscreenKey toggles the page's fullscreen state
func (m *model) handleFullscreenKey() {
	on := !m.page.Fullscreen()
	m.page.SetFullscreen(on)

	if on {
		m.setStatusMsg("Fullscreen on")
	} else {
		m.setStatusMsg("Fullscreen off")
	}
}

// handleMouse turns wheel buttons over the page panel into wheel events
func (m *model) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}

	var ev scroll.WheelEvent
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		ev.DeltaY = -m.wheelStep
	case tea.MouseButtonWheelDown:
		ev.DeltaY = m.wheelStep
	case tea.MouseButtonWheelLeft:
		ev.DeltaX = -m.wheelStep
	case tea.MouseButtonWheelRight:
		ev.DeltaX = m.wheelStep
	default:
		return
	}

	x, y, ok := m.viewport.CellToPage(msg.X, msg.Y)
	if !ok {
		return
	}

	ev.Shift = msg.Shift
	ev.Alt = msg.Alt
	ev.Ctrl = msg.Ctrl
	m.wheel(x, y, ev)
}

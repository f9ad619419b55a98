// ABOUTME: Terminal UI model and core state management
// ABOUTME: Bubble Tea model hosting a scrollable page next to a live settings panel

// Package tui provides an interactive terminal host for the scroll engine: a page
// painted into the terminal that scrolls with the mouse wheel, and a settings panel
// whose edits are saved and broadcast to every engine as they happen.
package tui

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scrollspeed/config"
	"scrollspeed/dom"
	"scrollspeed/scroll"
)

// Panel identifiers
const (
	panelParams = "params"
	panelPage   = "page"
)

// Layout constants for UI dimensions
const (
	paramPanelWidth = 34 // Left panel width for settings controls
	panelPadding    = 2  // Horizontal spacing between panels

	// UI chrome heights (elements that reduce available page space)
	titleHeight     = 1 // Panel title bars
	statusBarHeight = 1 // Bottom status bar
	helpHeight      = 1 // Help text line
	totalUIChrome   = titleHeight + statusBarHeight + helpHeight

	// Minimum page dimensions to ensure usability
	minPageCols = 10
	minPageRows = 4
)

const (
	statusMessageDuration = 5 * time.Second // How long to show transient status messages
	maxUndoStackSize      = 50              // Maximum undo/redo history items
)

// model holds the TUI state
type model struct {
	// Dependencies
	page    *dom.Document
	engines *dom.EngineSet
	sched   *teaScheduler
	shared  *config.SharedSettings
	hub     *config.Hub
	writer  SettingsWriter
	debugf  func(string, ...interface{})
	changes <-chan SettingsChange

	// Settings
	localSettings *config.Settings // Panel params point into this (pointer so addresses stay valid)
	paramMgr      *ParamManager
	undoMgr       *UndoManager
	unsubscribe   func()
	goos          string
	dryRun        bool
	configPath    string

	// Page
	pageName  string
	wheelStep float64
	viewport  *ViewportManager
	canvas    *dom.Canvas

	// UI state
	width        int
	height       int
	quitting     bool
	statusMsg    string    // Temporary status message (e.g., "Settings saved")
	statusMsgAge time.Time // When status message was set
	focusedPanel string    // "params" or "page" - which panel has focus
}

// Key bindings
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Toggle key.Binding
	Reset  key.Binding
	Undo   key.Binding
	Redo   key.Binding
	Full   key.Binding
	Tab    key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "select/scroll"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "select/scroll"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "decrease"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "increase"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "toggle"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset settings"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "undo"),
	),
	Redo: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "redo"),
	),
	Full: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fullscreen"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch panel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	paramStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedParamStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("240")).
				Foreground(lipgloss.Color("15")).
				Bold(true).
				Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	frameTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	thumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))
)

// Run starts the TUI mode with injected dependencies
// The program stops when ctx is cancelled or the user quits.
func Run(ctx context.Context, opts Options, deps Dependencies) error {
	m := initModel(opts, deps)
	defer m.close()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}

	if opts.DryRun {
		fmt.Println("\n--dry-run mode: settings not saved")
	}
	return nil
}

// initModel creates the initial model with injected dependencies
func initModel(opts Options, deps Dependencies) model {
	settings := deps.Shared.Get()

	// Allocate localSettings on heap so pointers remain valid
	local := settings
	local.Overrides = maps.Clone(settings.Overrides)

	wheelStep := opts.WheelStep
	if wheelStep <= 0 {
		wheelStep = DefaultWheelStep
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	debugf := func(string, ...interface{}) {}
	if deps.Logger != nil {
		debugf = deps.Logger.Debugf
	}

	sched := newTeaScheduler(deps.Clock, scroll.NominalFrame)

	var engineOpts []scroll.Option
	if deps.EngineLogger != nil {
		engineOpts = append(engineOpts, scroll.WithLogger(deps.EngineLogger))
	}
	engines := dom.AttachEngines(deps.Page, sched, local, engineOpts...)

	hub := deps.Hub
	if hub == nil {
		hub = config.NewHub()
	}

	m := model{
		page:    deps.Page,
		engines: engines,
		sched:   sched,
		shared:  deps.Shared,
		hub:     hub,
		writer:  deps.Writer,
		debugf:  debugf,
		changes: deps.Changes,

		localSettings: &local,
		undoMgr:       NewUndoManager(maxUndoStackSize),
		unsubscribe:   engines.Subscribe(hub),
		goos:          goos,
		dryRun:        opts.DryRun,
		configPath:    opts.ConfigPath,

		pageName:  opts.PageName,
		wheelStep: wheelStep,
		viewport:  NewViewportManager(paramPanelWidth+panelPadding, titleHeight, minPageCols, minPageRows),

		focusedPanel: panelPage,
	}
	m.paramMgr = NewParamManager(newParameters(m.localSettings))
	m.resizePage()

	return m
}

// Init initializes the model
func (m model) Init() tea.Cmd {
	return waitForSettings(m.changes)
}

// waitForSettings waits for settings file changes and returns them as messages
func waitForSettings(changes <-chan SettingsChange) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			// Channel closed
			return nil
		}

		return change
	}
}

// ========== Helper Methods ==========

// close stops the engines and drops their hub subscriptions
func (m *model) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.engines.Close()
}

// resizePage fits the page viewport and canvas to the panel
func (m *model) resizePage() {
	cols := max(m.width-paramPanelWidth-panelPadding, minPageCols)
	rows := max(m.height-totalUIChrome, minPageRows)

	m.viewport.SetSize(cols, rows)
	m.page.Resize(m.viewport.Size())
	m.canvas = dom.NewCanvas(cols, rows)
}

// wheel delivers one wheel event at a page point
func (m *model) wheel(x, y float64, ev scroll.WheelEvent) {
	handled := m.engines.WheelAt(x, y, ev)
	m.debugf("[TUI] Wheel dx=%.0f dy=%.0f at (%.0f,%.0f) handled=%v", ev.DeltaX, ev.DeltaY, x, y, handled)
}

// currentState snapshots the panel for undo
func (m *model) currentState() SettingsState {
	return SettingsState{Settings: *m.localSettings, Selected: m.paramMgr.Selected()}
}

// restoreState copies a snapshot back into the panel without replacing the struct params point into
func (m *model) restoreState(state SettingsState) {
	*m.localSettings = state.Settings
	m.localSettings.Overrides = maps.Clone(state.Settings.Overrides)
	m.paramMgr.SetSelected(state.Selected)
}

// editSelected runs edit against the panel and commits when it changed something
func (m *model) editSelected(edit func() bool) {
	before := m.currentState()
	if !edit() {
		return
	}

	if p := m.paramMgr.GetSelected(); p != nil && p.Key == config.KeyScrollFactor {
		// Choosing a factor by hand opts out of the platform default
		m.localSettings.CustomSetting = true
	}

	m.undoMgr.Push(before)
	m.commitSettings()
}

// resetToDefaults resets every panel field to its default value
func (m *model) resetToDefaults() {
	before := m.currentState()
	m.paramMgr.ResetToDefaults(config.DefaultSettings())
	m.undoMgr.Push(before)
	m.commitSettings()
	m.setStatusMsg("Settings reset to defaults")
}

// commitSettings publishes the panel state to the engines, the shared snapshot and the settings file
func (m *model) commitSettings() {
	*m.localSettings = config.ApplyPlatformDefault(*m.localSettings, m.goos)
	next := *m.localSettings

	// custom_setting alone does not reach the engines, but the file still records it
	u := m.shared.Swap(next)
	if !u.IsEmpty() {
		n := m.hub.Publish(u)
		m.debugf("[TUI] Settings changed (%s), %d engines notified", u, n)
	}

	m.autoSave(next)
}

// autoSave writes settings to disk (unless dry-run mode)
func (m *model) autoSave(s config.Settings) {
	if m.dryRun || m.writer == nil {
		return
	}

	if err := m.writer.Write(s); err != nil {
		m.debugf("[TUI] Failed to save settings: %v", err)
		m.setStatusMsg(fmt.Sprintf("Save failed: %v", err))
		return
	}
	m.debugf("[TUI] Settings saved to %s", m.configPath)
}

// applyExternal takes settings written by another process
func (m *model) applyExternal(change SettingsChange) {
	next := config.ApplyPlatformDefault(change.Settings, m.goos)
	u := config.Diff(*m.localSettings, next)

	m.shared.Swap(next)
	*m.localSettings = next
	m.localSettings.Overrides = maps.Clone(next.Overrides)

	if u.IsEmpty() {
		return
	}
	n := m.hub.Publish(u)
	m.debugf("[TUI] Settings file changed (%s), %d engines notified", change.Update, n)
	m.setStatusMsg("Settings reloaded from file")
}

// undo restores the previous settings
func (m *model) undo() {
	state, ok := m.undoMgr.Undo(m.currentState())
	if !ok {
		m.setStatusMsg("Nothing to undo")
		return
	}

	m.restoreState(state)
	m.commitSettings()
	m.setStatusMsg(fmt.Sprintf("Undone (%d more)", m.undoMgr.UndoSize()))
}

// redo re-applies undone settings
func (m *model) redo() {
	state, ok := m.undoMgr.Redo(m.currentState())
	if !ok {
		m.setStatusMsg("Nothing to redo")
		return
	}

	m.restoreState(state)
	m.commitSettings()
	m.setStatusMsg(fmt.Sprintf("Redone (%d more)", m.undoMgr.RedoSize()))
}

// setStatusMsg sets a transient status message with current timestamp
func (m *model) setStatusMsg(msg string) {
	m.statusMsg = msg
	m.statusMsgAge = time.Now()
}

// ========== Helpers ==========

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return string(r[:maxLen])
	}

	return string(r[:maxLen-3]) + "..."
}

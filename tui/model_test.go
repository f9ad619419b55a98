// ABOUTME: Unit tests for TUI model behavior
// ABOUTME: Drives the model through Update with a fake clock and hand-fired ticks

package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"scrollspeed/config"
	"scrollspeed/dom"
)

const testPage = `<html><body>
<p>top</p>
<div id="panel" style="overflow-y: auto; height: 64px"><div style="height: 400px">inner</div></div>
<div style="height: 3000px"></div>
</body></html>`

// Page panel geometry after resize: 40x10 cells starting at column 36, row 1
const (
	testCols   = 40
	testRows   = 10
	testWidth  = paramPanelWidth + panelPadding + testCols
	testHeight = testRows + totalUIChrome
)

// recordingWriter remembers every settings write
type recordingWriter struct {
	writes []config.Settings
	err    error
}

func (w *recordingWriter) Write(s config.Settings) error {
	w.writes = append(w.writes, s)
	return w.err
}

// createTestModel creates a model with mock dependencies for testing
func createTestModel(t *testing.T, opts Options) (model, *fakeClock, *recordingWriter) {
	t.Helper()

	page, err := dom.ParseString(testPage, dom.Options{Host: "example.com"})
	if err != nil {
		t.Fatalf("Failed to parse page: %v", err)
	}

	if opts.GOOS == "" {
		opts.GOOS = "darwin"
	}

	clock := newFakeClock()
	writer := &recordingWriter{}
	deps := Dependencies{
		Page:   page,
		Shared: config.NewSharedSettings(config.DefaultSettings()),
		Hub:    config.NewHub(),
		Writer: writer,
		Clock:  clock.Now,
	}

	m := initModel(opts, deps)
	t.Cleanup(m.close)

	m = update(t, m, tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	return m, clock, writer
}

// update runs one message through the model
func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()

	next, _ := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// wheelAt builds a wheel-down press over a page panel cell
func wheelAt(col, row int) tea.MouseMsg {
	return tea.MouseMsg{
		X:      paramPanelWidth + panelPadding + col,
		Y:      titleHeight + row,
		Button: tea.MouseButtonWheelDown,
		Action: tea.MouseActionPress,
	}
}

func TestInitModel(t *testing.T) {
	m, _, _ := createTestModel(t, Options{})

	if m.wheelStep != DefaultWheelStep {
		t.Errorf("Expected default wheel step, got %v", m.wheelStep)
	}
	if m.focusedPanel != panelPage {
		t.Errorf("Expected page focus, got %q", m.focusedPanel)
	}
	if got := m.page.Viewport(); got.Width != testCols*dom.CellWidth || got.Height != testRows*dom.CellHeight {
		t.Errorf("Expected page viewport to match the panel, got %+v", got)
	}
	if m.canvas.Cols != testCols || m.canvas.Rows != testRows {
		t.Errorf("Expected %dx%d canvas, got %dx%d", testCols, testRows, m.canvas.Cols, m.canvas.Rows)
	}
	if m.hub.Len() != len(m.engines.Engines()) {
		t.Errorf("Expected every engine subscribed, got %d subscribers", m.hub.Len())
	}
}

func TestWheelScrollsElementUnderPointer(t *testing.T) {
	tests := []struct {
		name      string
		msg       tea.MouseMsg
		wantRoot  float64
		wantPanel float64
	}{
		{"body scrolls the document", wheelAt(5, 8), 120, 0},
		{"panel scrolls itself", wheelAt(5, 2), 0, 120},
		{"outside the page is ignored", tea.MouseMsg{X: 3, Y: 3, Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress}, 0, 0},
		{"release is ignored", tea.MouseMsg{X: 45, Y: 9, Button: tea.MouseButtonWheelDown, Action: tea.MouseActionRelease}, 0, 0},
		{"left button is ignored", tea.MouseMsg{X: 45, Y: 9, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := createTestModel(t, Options{})
			m = update(t, m, tt.msg)

			_, rootY := m.page.RootElement().ScrollOffset()
			panel, err := m.page.Find(nil, "//*[@id='panel']")
			if err != nil || panel == nil {
				t.Fatalf("Failed to find panel: %v", err)
			}
			_, panelY := panel.ScrollOffset()

			if rootY != tt.wantRoot || panelY != tt.wantPanel {
				t.Errorf("Expected root %v panel %v, got root %v panel %v", tt.wantRoot, tt.wantPanel, rootY, panelY)
			}
		})
	}
}

func TestWheelStepOption(t *testing.T) {
	m, _, _ := createTestModel(t, Options{WheelStep: 48})
	m = update(t, m, wheelAt(5, 8))

	if _, y := m.page.RootElement().ScrollOffset(); y != 48 {
		t.Errorf("Expected root scrolled by 48, got %v", y)
	}
}

func TestPageKeysScrollFromCenter(t *testing.T) {
	m, _, _ := createTestModel(t, Options{})

	m = update(t, m, keyPress("j"))
	m = update(t, m, keyPress("j"))
	m = update(t, m, keyPress("k"))

	if _, y := m.page.RootElement().ScrollOffset(); y != 120 {
		t.Errorf("Expected root at 120, got %v", y)
	}
}

func TestFlingRunsOnTicks(t *testing.T) {
	m, clock, _ := createTestModel(t, Options{})

	for i := range 3 {
		if i > 0 {
			clock.Advance(16 * time.Millisecond)
		}
		m = update(t, m, wheelAt(5, 8))
	}
	_, before := m.page.RootElement().ScrollOffset()

	// Debounce expires 50ms after the last event
	clock.Advance(50 * time.Millisecond)
	var ids []timerMsg
	for id := range m.sched.timers {
		ids = append(ids, timerMsg{id: id})
	}
	for _, msg := range ids {
		m = update(t, m, msg)
	}

	if !m.engines.Flinging() {
		t.Fatal("Expected a fling after steady input")
	}

	for i := 0; i < 2000 && m.engines.Flinging(); i++ {
		clock.Advance(16 * time.Millisecond)
		m = update(t, m, frameMsg{})
	}

	if m.engines.Flinging() {
		t.Fatal("Expected the fling to stop")
	}
	if _, after := m.page.RootElement().ScrollOffset(); after <= before {
		t.Errorf("Expected fling to move the page past %v, got %v", before, after)
	}
	if got := m.engines.Stats().FlingsStarted; got != 1 {
		t.Errorf("Expected 1 fling, got %d", got)
	}
}

func TestEditSettingsPublishesAndSaves(t *testing.T) {
	m, _, writer := createTestModel(t, Options{})

	m = update(t, m, keyPress("tab"))
	m = update(t, m, keyPress("right")) // Scroll Factor 1.00 -> 1.05

	if len(writer.writes) != 1 {
		t.Fatalf("Expected 1 write, got %d", len(writer.writes))
	}
	saved := writer.writes[0]
	if saved.ScrollFactor != 1.05 || !saved.CustomSetting {
		t.Errorf("Expected custom factor 1.05 saved, got %v custom=%v", saved.ScrollFactor, saved.CustomSetting)
	}
	for _, e := range m.engines.Engines() {
		if e.Settings().ScrollFactor != 1.05 {
			t.Errorf("Expected engine factor 1.05, got %v", e.Settings().ScrollFactor)
		}
	}
	if shared := m.shared.Get(); shared.ScrollFactor != 1.05 {
		t.Errorf("Expected shared factor 1.05, got %v", shared.ScrollFactor)
	}

	// Undo restores the platform factor
	m = update(t, m, keyPress("u"))
	if got := m.engines.Engine(m.page).Settings().ScrollFactor; got != 1.0 {
		t.Errorf("Expected factor 1.0 after undo, got %v", got)
	}

	m = update(t, m, keyPress("ctrl+r"))
	if got := m.engines.Engine(m.page).Settings().ScrollFactor; got != 1.05 {
		t.Errorf("Expected factor 1.05 after redo, got %v", got)
	}
	if len(writer.writes) != 3 {
		t.Errorf("Expected 3 writes, got %d", len(writer.writes))
	}
}

func TestDisableTogglePassesEventsThrough(t *testing.T) {
	m, _, _ := createTestModel(t, Options{})

	m = update(t, m, keyPress("tab"))
	m.paramMgr.SetSelected(6) // Disable Scrolling
	m = update(t, m, keyPress(" "))

	if !m.localSettings.DisableExtension {
		t.Fatal("Expected scrolling disabled")
	}

	m = update(t, m, wheelAt(5, 8))
	if got := m.engines.Stats().PassedThrough; got != 1 {
		t.Errorf("Expected 1 passed through event, got %d", got)
	}
}

func TestCustomSettingOffUsesPlatformFactor(t *testing.T) {
	m, _, writer := createTestModel(t, Options{GOOS: "linux"})

	m = update(t, m, keyPress("tab"))
	m = update(t, m, keyPress("right"))
	m.paramMgr.SetSelected(4) // Custom Setting
	m = update(t, m, keyPress("left"))

	last := writer.writes[len(writer.writes)-1]
	if last.CustomSetting || last.ScrollFactor != 0.15 {
		t.Errorf("Expected platform factor 0.15, got %v custom=%v", last.ScrollFactor, last.CustomSetting)
	}
}

func TestDryRunDoesNotSave(t *testing.T) {
	m, _, writer := createTestModel(t, Options{DryRun: true})

	m = update(t, m, keyPress("tab"))
	m = update(t, m, keyPress("r"))
	_ = update(t, m, keyPress("right"))

	if len(writer.writes) != 0 {
		t.Errorf("Expected no writes in dry-run mode, got %d", len(writer.writes))
	}
}

func TestSaveFailureSetsStatus(t *testing.T) {
	m, _, writer := createTestModel(t, Options{})
	writer.err = errors.New("disk full")

	m = update(t, m, keyPress("tab"))
	m = update(t, m, keyPress("right"))

	if !strings.Contains(m.statusMsg, "disk full") {
		t.Errorf("Expected save failure in status, got %q", m.statusMsg)
	}
}

func TestExternalSettingsChange(t *testing.T) {
	m, _, writer := createTestModel(t, Options{})

	s := config.DefaultSettings()
	s.CustomSetting = true
	s.ScrollFactor = 2
	s.FlingEnabled = false

	m = update(t, m, SettingsChange{Settings: s, Update: config.FullUpdate(s)})

	e := m.engines.Engine(m.page)
	if e.Settings().ScrollFactor != 2 || e.Settings().FlingEnabled {
		t.Errorf("Expected engines to follow the file, got %+v", e.Settings())
	}
	if m.localSettings.ScrollFactor != 2 {
		t.Errorf("Expected panel to follow the file, got %v", m.localSettings.ScrollFactor)
	}
	if len(writer.writes) != 0 {
		t.Errorf("Expected no write back, got %d", len(writer.writes))
	}

	m = update(t, m, wheelAt(5, 8))
	if _, y := m.page.RootElement().ScrollOffset(); y != 240 {
		t.Errorf("Expected factor 2 scroll of 240, got %v", y)
	}
}

func TestFullscreenKey(t *testing.T) {
	m, _, _ := createTestModel(t, Options{})

	m = update(t, m, keyPress("f"))
	if !m.page.Fullscreen() {
		t.Error("Expected fullscreen on")
	}
	m = update(t, m, keyPress("f"))
	if m.page.Fullscreen() {
		t.Error("Expected fullscreen off")
	}
}

func TestView(t *testing.T) {
	m, _, _ := createTestModel(t, Options{PageName: "demo"})

	view := m.View()
	for _, want := range []string{"Settings", "Scroll Factor", "Fling Friction", "demo *", "top", "handled", "tab"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := createTestModel(t, Options{})

	next, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if m = next.(model); !m.quitting {
		t.Error("Expected quitting state")
	}
	if m.hub.Len() != 0 {
		t.Errorf("Expected engines unsubscribed, got %d", m.hub.Len())
	}
	if !strings.Contains(m.View(), "Exiting") {
		t.Error("Expected exit view")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer title", 10, "a longe..."},
		{"abcdef", 3, "abc"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

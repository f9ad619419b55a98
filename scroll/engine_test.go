// ABOUTME: Tests for the engine composition on a virtual clock
// ABOUTME: Covers pass-through rules, scaling, fling start and suppression, updates and frame forwarding

package scroll

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"scrollspeed/config"
)

type engineHarness struct {
	page       *page
	sched      *VirtualScheduler
	engine     *Engine
	dispatches []Dispatch
}

func newHarness(t *testing.T, settings config.Settings, opts ...Option) *engineHarness {
	t.Helper()

	h := &engineHarness{
		page:  newPage("example.com"),
		sched: NewVirtualScheduler(),
	}
	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithSettings(settings),
		WithDispatchHook(func(d Dispatch) { h.dispatches = append(h.dispatches, d) }),
	}, opts...)
	h.engine = NewEngine(h.page.doc, h.sched, opts...)
	return h
}

func (h *engineHarness) wheel(target Element, dx, dy float64) *WheelEvent {
	ev := &WheelEvent{DeltaX: dx, DeltaY: dy, Target: target}
	h.engine.HandleWheel(ev)
	return ev
}

func (h *engineHarness) flingDispatches() []Dispatch {
	var out []Dispatch
	for _, d := range h.dispatches {
		if d.Fling {
			out = append(out, d)
		}
	}
	return out
}

func settingsWith(factor float64, fling bool) config.Settings {
	s := config.DefaultSettings()
	s.ScrollFactor = factor
	s.FlingEnabled = fling
	return s
}

func TestEngineScalesImmediateDispatch(t *testing.T) {
	h := newHarness(t, settingsWith(0.15, true))

	ev := h.wheel(h.page.text, 0, 120)

	assert.True(t, ev.DefaultPrevented)
	require.Len(t, h.dispatches, 1)
	d := h.dispatches[0]
	assert.Same(t, h.page.panel, d.Target)
	assert.InDelta(t, 18.0, d.DY, 1e-9)
	assert.Zero(t, d.DX)
	assert.False(t, d.Fling)

	require.Len(t, h.page.panel.calls, 1)
	assert.Equal(t, BehaviorInstant, h.page.panel.calls[0].behavior)
	assert.Equal(t, 1, h.engine.HistoryLen())
}

func TestEnginePassThrough(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *engineHarness)
		event func(h *engineHarness) *WheelEvent
	}{
		{
			name: "ctrl",
			event: func(h *engineHarness) *WheelEvent {
				return &WheelEvent{DeltaY: 100, Ctrl: true, Target: h.page.text}
			},
		},
		{
			name: "already handled",
			event: func(h *engineHarness) *WheelEvent {
				return &WheelEvent{DeltaY: 100, DefaultPrevented: true, Target: h.page.text}
			},
		},
		{
			name: "navigation gesture",
			event: func(h *engineHarness) *WheelEvent {
				return &WheelEvent{DeltaX: 40, DeltaY: 5, Target: h.page.text}
			},
		},
		{
			name: "nothing scrollable",
			setup: func(h *engineHarness) {
				h.page.html.overflowY = OverflowHidden
				h.page.body.overflowY = OverflowHidden
			},
			event: func(h *engineHarness) *WheelEvent {
				return &WheelEvent{DeltaY: 100, Target: h.page.para}
			},
		},
		{
			name: "disabled",
			setup: func(h *engineHarness) {
				h.engine.ApplyUpdate(config.SettingsUpdate{DisableExtension: config.Bool(true)})
			},
			event: func(h *engineHarness) *WheelEvent {
				return &WheelEvent{DeltaY: 100, Target: h.page.text}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, config.DefaultSettings())
			if tt.setup != nil {
				tt.setup(h)
			}

			ev := tt.event(h)
			prevented := ev.DefaultPrevented
			handled := h.engine.HandleWheel(ev)

			assert.False(t, handled)
			assert.Equal(t, prevented, ev.DefaultPrevented, "pass-through leaves the event untouched")
			assert.Empty(t, h.dispatches)
			assert.Zero(t, h.engine.HistoryLen())
			assert.Equal(t, 1, h.engine.Stats().PassedThrough)
		})
	}
}

func TestEngineShiftScrollsHorizontally(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.page.panel.scrollW = 900

	ev := &WheelEvent{DeltaY: 50, Shift: true, Target: h.page.text}
	require.True(t, h.engine.HandleWheel(ev))

	require.Len(t, h.dispatches, 1)
	assert.Same(t, h.page.panel, h.dispatches[0].Target)
	assert.Equal(t, 50.0, h.dispatches[0].DX)
	assert.Zero(t, h.dispatches[0].DY)
}

func TestEngineShiftKeepsExistingHorizontalDelta(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.page.panel.scrollW = 900

	// Shift disables the navigation gesture check
	ev := &WheelEvent{DeltaX: 30, DeltaY: 50, Shift: true, Target: h.page.text}
	require.True(t, h.engine.HandleWheel(ev))
	assert.Equal(t, 30.0, h.dispatches[0].DX)
	assert.Zero(t, h.dispatches[0].DY)
}

func TestEngineShiftWithAltIsNotReinterpreted(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	ev := &WheelEvent{DeltaY: 50, Shift: true, Alt: true, Target: h.page.text}
	require.True(t, h.engine.HandleWheel(ev))
	assert.Zero(t, h.dispatches[0].DX)
	assert.Equal(t, 50.0, h.dispatches[0].DY)
}

func TestEngineSlowingHandDoesNotFling(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	h.wheel(h.page.text, 0, 100)
	h.sched.Advance(16 * time.Millisecond)
	h.wheel(h.page.text, 0, 80)
	h.sched.Advance(16 * time.Millisecond)
	h.wheel(h.page.text, 0, 60)

	h.sched.Advance(FlingDebounce)

	assert.False(t, h.engine.Flinging())
	assert.Equal(t, 0, h.engine.Stats().FlingsStarted)
	assert.Equal(t, 1, h.engine.Stats().FlingsSuppressed)

	h.sched.Advance(time.Second)
	assert.Empty(t, h.flingDispatches())
}

func TestEngineSteadyInputFlings(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	for i := 0; i < 4; i++ {
		if i > 0 {
			h.sched.Advance(16 * time.Millisecond)
		}
		h.wheel(h.page.text, 0, 50)
	}

	h.sched.Advance(FlingDebounce - time.Millisecond)
	assert.False(t, h.engine.Flinging(), "debounce has not elapsed")

	h.sched.Advance(time.Millisecond)
	require.True(t, h.engine.Flinging())
	assert.InDelta(t, 150.0/48.0, h.engine.FlingVelocity().Y, 1e-9)

	assert.True(t, h.sched.RunUntilIdle(time.Minute))
	assert.False(t, h.engine.Flinging())

	flings := h.flingDispatches()
	require.NotEmpty(t, flings)
	for _, d := range flings {
		assert.Same(t, h.page.panel, d.Target)
		assert.Positive(t, d.DY)
	}
	assert.Equal(t, 1, h.engine.Stats().FlingsStarted)
}

func TestEngineTwoSamplesDoNotFling(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	h.wheel(h.page.text, 0, 100)
	h.sched.Advance(16 * time.Millisecond)
	h.wheel(h.page.text, 0, 100)
	h.sched.RunUntilIdle(time.Minute)

	assert.Empty(t, h.flingDispatches())
}

func TestEngineDebounceRestartsOnInput(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	for i := 0; i < 3; i++ {
		h.wheel(h.page.text, 0, 50)
		h.sched.Advance(16 * time.Millisecond)
	}
	_, timers := h.sched.Pending()
	assert.Equal(t, 1, timers, "each input replaces the pending debounce")
}

func TestEngineNewInputStopsFling(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	for i := 0; i < 3; i++ {
		h.wheel(h.page.text, 0, 60)
		h.sched.Advance(16 * time.Millisecond)
	}
	h.sched.Advance(FlingDebounce + 3*NominalFrame)
	require.True(t, h.engine.Flinging())

	h.wheel(h.page.text, 0, -10)
	assert.False(t, h.engine.Flinging(), "last input wins")

	frames, _ := h.sched.Pending()
	assert.Zero(t, frames)
}

func TestEngineNavigationGestureKeepsFling(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	for i := 0; i < 3; i++ {
		h.wheel(h.page.text, 0, 60)
		h.sched.Advance(16 * time.Millisecond)
	}
	h.sched.Advance(FlingDebounce + NominalFrame)
	require.True(t, h.engine.Flinging())

	h.engine.HandleWheel(&WheelEvent{DeltaX: 80, Target: h.page.text})
	assert.True(t, h.engine.Flinging())
}

func TestEngineFlingDisabled(t *testing.T) {
	h := newHarness(t, settingsWith(1, false))

	for i := 0; i < 4; i++ {
		h.wheel(h.page.text, 0, 50)
		h.sched.Advance(16 * time.Millisecond)
	}
	h.sched.RunUntilIdle(time.Minute)

	assert.Len(t, h.dispatches, 4)
	assert.Empty(t, h.flingDispatches())
	assert.Zero(t, h.engine.HistoryLen())
}

func TestEngineApplyUpdate(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	errs := h.engine.ApplyUpdate(config.SettingsUpdate{
		ScrollFactor:  config.Float64(2),
		FlingFriction: config.Float64(1.5),
	})
	assert.Len(t, errs, 1)

	s := h.engine.Settings()
	assert.Equal(t, 2.0, s.ScrollFactor)
	assert.Equal(t, config.DefaultFlingFriction, s.FlingFriction, "invalid value keeps the prior one")

	h.wheel(h.page.text, 0, 10)
	assert.Equal(t, 20.0, h.dispatches[0].DY)
}

func TestEngineDisablingFlingStopsAnimation(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	for i := 0; i < 3; i++ {
		h.wheel(h.page.text, 0, 60)
		h.sched.Advance(16 * time.Millisecond)
	}
	h.sched.Advance(FlingDebounce + NominalFrame)
	require.True(t, h.engine.Flinging())

	h.engine.ApplyUpdate(config.SettingsUpdate{FlingEnabled: config.Bool(false)})

	assert.False(t, h.engine.Flinging())
	assert.Zero(t, h.engine.HistoryLen())
	frames, timers := h.sched.Pending()
	assert.Zero(t, frames)
	assert.Zero(t, timers)
}

func TestEngineOverrideUpdate(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	h.engine.ApplyUpdate(config.SettingsUpdate{Overrides: map[string]config.OverrideRule{
		"example.com": {Redirect: config.RedirectRoot},
	}})

	h.wheel(h.page.text, 0, 10)
	require.Len(t, h.dispatches, 1)
	assert.Same(t, h.page.html, h.dispatches[0].Target)
}

func TestEngineFlingUsesOverride(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.page.doc.host = "www.nexusmods.com"
	h.engine = NewEngine(h.page.doc, h.sched,
		WithDispatchHook(func(d Dispatch) { h.dispatches = append(h.dispatches, d) }))

	for i := 0; i < 3; i++ {
		h.wheel(h.page.text, 0, 60)
		h.sched.Advance(16 * time.Millisecond)
	}
	h.sched.RunUntilIdle(time.Minute)

	require.NotEmpty(t, h.flingDispatches())
	for _, d := range h.dispatches {
		assert.Same(t, h.page.html, d.Target)
	}
	assert.Empty(t, h.page.panel.calls)
}

func TestEngineFrameForwarding(t *testing.T) {
	parent := newHarness(t, config.DefaultSettings())

	// A frame whose document fits its viewport, embedded in the parent's panel
	child := newPage("frame.example")
	child.doc.frame = true
	child.html.clientH = 2000
	iframe := &fakeElement{name: "iframe", parent: parent.page.panel, scrollH: 150, clientH: 150}
	parent.page.doc.frames = map[Document]*fakeElement{child.doc: iframe}

	var forwarded []ForwardedWheel
	childEngine := NewEngine(child.doc, parent.sched,
		WithLogger(zaptest.NewLogger(t)),
		WithForwarder(func(msg ForwardedWheel) bool {
			forwarded = append(forwarded, msg)
			return parent.engine.HandleMessage(msg)
		}))

	ev := &WheelEvent{DeltaY: 40, Target: child.para}
	handled := childEngine.HandleWheel(ev)

	assert.True(t, handled)
	assert.True(t, ev.DefaultPrevented)
	require.Len(t, forwarded, 1)
	assert.Equal(t, ForwardMarker, forwarded[0].Marker)
	assert.Nil(t, forwarded[0].Event.Target)

	want := []Dispatch{{At: 0, Target: parent.page.panel, DY: 40}}
	if diff := cmp.Diff(want, parent.dispatches, cmp.Comparer(func(a, b Element) bool { return a == b })); diff != "" {
		t.Errorf("parent dispatches mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, childEngine.Stats().Forwarded)
}

func TestEngineHandleMessageRejects(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	other := newPage("frame.example")

	assert.False(t, h.engine.HandleMessage(ForwardedWheel{Marker: "somethingElse", Source: other.doc}))
	assert.False(t, h.engine.HandleMessage(ForwardedWheel{Marker: ForwardMarker, Source: other.doc}),
		"unknown frame source")
	assert.Empty(t, h.dispatches)
}

func TestEngineClose(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	for i := 0; i < 3; i++ {
		h.wheel(h.page.text, 0, 60)
		h.sched.Advance(16 * time.Millisecond)
	}
	h.engine.Close()

	frames, timers := h.sched.Pending()
	assert.Zero(t, frames)
	assert.Zero(t, timers)
	assert.Zero(t, h.engine.HistoryLen())
	assert.NotEqual(t, h.engine.ID(), NewEngine(h.page.doc, h.sched).ID())
}

// ABOUTME: Scroll scheduler backed by the Bubble Tea event loop
// ABOUTME: Frames and timers become tea.Tick commands so engine callbacks run inside Update

package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"scrollspeed/scroll"
)

// frameMsg fires queued animation frames
type frameMsg struct{}

// timerMsg fires one engine timer
type timerMsg struct {
	id scroll.TimerID
}

// teaScheduler implements scroll.Scheduler on top of tea.Tick
// It is only touched from Update, so it needs no locking.
type teaScheduler struct {
	now      func() time.Time
	start    time.Time
	interval time.Duration

	nextID       uint64
	frames       map[scroll.FrameID]func(time.Duration)
	frameOrder   []scroll.FrameID
	timers       map[scroll.TimerID]func()
	framePending bool

	// Commands queued by callbacks, returned from Update by drain
	cmds []tea.Cmd
}

func newTeaScheduler(now func() time.Time, interval time.Duration) *teaScheduler {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = scroll.NominalFrame
	}
	return &teaScheduler{
		now:      now,
		start:    now(),
		interval: interval,
		frames:   make(map[scroll.FrameID]func(time.Duration)),
		timers:   make(map[scroll.TimerID]func()),
	}
}

// Now returns the time since the scheduler was created
func (s *teaScheduler) Now() time.Duration {
	return s.now().Sub(s.start)
}

// RequestFrame queues cb for the next frame tick
func (s *teaScheduler) RequestFrame(cb func(now time.Duration)) scroll.FrameID {
	s.nextID++
	id := scroll.FrameID(s.nextID)
	s.frames[id] = cb
	s.frameOrder = append(s.frameOrder, id)

	if !s.framePending {
		s.framePending = true
		s.cmds = append(s.cmds, tea.Tick(s.interval, func(time.Time) tea.Msg {
			return frameMsg{}
		}))
	}
	return id
}

// CancelFrame drops a queued frame callback
func (s *teaScheduler) CancelFrame(id scroll.FrameID) {
	delete(s.frames, id)
}

// AfterFunc schedules cb after d
func (s *teaScheduler) AfterFunc(d time.Duration, cb func()) scroll.TimerID {
	s.nextID++
	id := scroll.TimerID(s.nextID)
	s.timers[id] = cb
	s.cmds = append(s.cmds, tea.Tick(d, func(time.Time) tea.Msg {
		return timerMsg{id: id}
	}))
	return id
}

// CancelTimer drops a timer; its tick still arrives and is ignored
func (s *teaScheduler) CancelTimer(id scroll.TimerID) {
	delete(s.timers, id)
}

// handleFrame runs every frame queued before this tick
func (s *teaScheduler) handleFrame() {
	s.framePending = false
	order := s.frameOrder
	s.frameOrder = nil

	now := s.Now()
	for _, id := range order {
		cb, ok := s.frames[id]
		if !ok {
			continue
		}
		delete(s.frames, id)
		cb(now)
	}
}

// handleTimer runs the timer if it is still pending
func (s *teaScheduler) handleTimer(id scroll.TimerID) {
	cb, ok := s.timers[id]
	if !ok {
		return
	}
	delete(s.timers, id)
	cb()
}

// pending reports the number of queued frames and timers
func (s *teaScheduler) pending() (frames, timers int) {
	return len(s.frames), len(s.timers)
}

// drain returns the commands queued since the last call
func (s *teaScheduler) drain() tea.Cmd {
	if len(s.cmds) == 0 {
		return nil
	}
	cmds := s.cmds
	s.cmds = nil
	return tea.Batch(cmds...)
}

// ABOUTME: Frame and timer scheduling primitives injected by the host event loop
// ABOUTME: VirtualScheduler is a manual clock with a fixed vsync cadence for tests and replay

package scroll

import (
	"sort"
	"time"
)

// NominalFrame is the frame time assumed at 60 Hz
const NominalFrame = 16666 * time.Microsecond

// FrameID identifies a requested animation frame
type FrameID uint64

// TimerID identifies a pending one-shot timer
type TimerID uint64

// Scheduler is the host event loop as seen by the engine
// Callbacks must run on the same loop that calls HandleWheel.
type Scheduler interface {
	// Now returns the time since the scheduler's origin
	Now() time.Duration
	// RequestFrame runs cb once at the next display frame
	RequestFrame(cb func(now time.Duration)) FrameID
	// CancelFrame drops a pending frame; unknown ids are ignored
	CancelFrame(id FrameID)
	// AfterFunc runs cb once after d
	AfterFunc(d time.Duration, cb func()) TimerID
	// CancelTimer drops a pending timer; unknown ids are ignored
	CancelTimer(id TimerID)
}

type virtualTimer struct {
	id  TimerID
	due time.Duration
	cb  func()
}

type virtualFrame struct {
	id  FrameID
	due time.Duration
	cb  func(now time.Duration)
}

// VirtualScheduler is a deterministic Scheduler driven by Advance
// Timers fire in due-time order (ties by id); frames fire on multiples of the frame interval.
type VirtualScheduler struct {
	now      time.Duration
	interval time.Duration
	nextID   uint64
	timers   []virtualTimer
	frames   []virtualFrame
}

// NewVirtualScheduler creates a scheduler at time zero with NominalFrame vsync
func NewVirtualScheduler() *VirtualScheduler {
	return NewVirtualSchedulerWithInterval(NominalFrame)
}

// NewVirtualSchedulerWithInterval creates a scheduler with a custom vsync interval
func NewVirtualSchedulerWithInterval(interval time.Duration) *VirtualScheduler {
	if interval <= 0 {
		interval = NominalFrame
	}
	return &VirtualScheduler{interval: interval}
}

// Now returns the virtual time
func (s *VirtualScheduler) Now() time.Duration {
	return s.now
}

// FrameInterval returns the vsync interval
func (s *VirtualScheduler) FrameInterval() time.Duration {
	return s.interval
}

// RequestFrame queues cb for the next vsync after now
func (s *VirtualScheduler) RequestFrame(cb func(now time.Duration)) FrameID {
	s.nextID++
	id := FrameID(s.nextID)
	due := (s.now/s.interval + 1) * s.interval
	s.frames = append(s.frames, virtualFrame{id: id, due: due, cb: cb})
	return id
}

// CancelFrame drops a pending frame
func (s *VirtualScheduler) CancelFrame(id FrameID) {
	for i, f := range s.frames {
		if f.id == id {
			s.frames = append(s.frames[:i], s.frames[i+1:]...)
			return
		}
	}
}

// AfterFunc queues cb to run once d has elapsed
func (s *VirtualScheduler) AfterFunc(d time.Duration, cb func()) TimerID {
	if d < 0 {
		d = 0
	}
	s.nextID++
	id := TimerID(s.nextID)
	s.timers = append(s.timers, virtualTimer{id: id, due: s.now + d, cb: cb})
	return id
}

// CancelTimer drops a pending timer
func (s *VirtualScheduler) CancelTimer(id TimerID) {
	for i, t := range s.timers {
		if t.id == id {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

// Pending returns the number of queued frames and timers
func (s *VirtualScheduler) Pending() (frames, timers int) {
	return len(s.frames), len(s.timers)
}

// Advance moves the clock forward by d, running every callback that falls due
func (s *VirtualScheduler) Advance(d time.Duration) {
	s.AdvanceTo(s.now + d)
}

// AdvanceTo moves the clock to t, running every callback due at or before t
// Callbacks scheduled while advancing also run if they fall due before t.
func (s *VirtualScheduler) AdvanceTo(t time.Duration) {
	for {
		at, isFrame, ok := s.nextEvent()
		if !ok || at > t {
			break
		}
		s.now = at

		if isFrame {
			s.runFrames()
		} else {
			s.runTimer()
		}
	}

	if t > s.now {
		s.now = t
	}
}

// RunUntilIdle advances until nothing is pending or limit time has passed
// Returns true when the scheduler went idle.
func (s *VirtualScheduler) RunUntilIdle(limit time.Duration) bool {
	deadline := s.now + limit
	for {
		at, _, ok := s.nextEvent()
		if !ok {
			return true
		}
		if at > deadline {
			s.AdvanceTo(deadline)
			return false
		}
		s.AdvanceTo(at)
	}
}

// nextEvent returns the time of the earliest pending callback
// Timers win ties with frames.
func (s *VirtualScheduler) nextEvent() (time.Duration, bool, bool) {
	var (
		best    time.Duration
		isFrame bool
		found   bool
	)

	for _, tm := range s.timers {
		if !found || tm.due < best {
			best = tm.due
			found = true
		}
	}

	for _, f := range s.frames {
		if !found || f.due < best {
			best = f.due
			isFrame = true
			found = true
		}
	}

	return best, isFrame, found
}

func (s *VirtualScheduler) runTimer() {
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due != s.timers[j].due {
			return s.timers[i].due < s.timers[j].due
		}
		return s.timers[i].id < s.timers[j].id
	})

	tm := s.timers[0]
	s.timers = s.timers[1:]
	tm.cb()
}

// runFrames runs every frame due at now in request order
// Frames requested by these callbacks are due at the next vsync.
func (s *VirtualScheduler) runFrames() {
	for {
		idx := -1
		for i, f := range s.frames {
			if f.due <= s.now {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}

		f := s.frames[idx]
		s.frames = append(s.frames[:idx], s.frames[idx+1:]...)
		f.cb(s.now)
	}
}

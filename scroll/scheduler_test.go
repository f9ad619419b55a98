// ABOUTME: Tests for the virtual scheduler used by tests and trace replay
// ABOUTME: Timer ordering, vsync alignment, cancellation and idle detection

package scroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVirtualSchedulerTimers(t *testing.T) {
	s := NewVirtualScheduler()

	var order []string
	s.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	s.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	cancelled := s.AfterFunc(20*time.Millisecond, func() { order = append(order, "x") })
	s.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })
	s.CancelTimer(cancelled)
	s.CancelTimer(TimerID(999))

	s.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 25*time.Millisecond, s.Now())

	s.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestVirtualSchedulerTimerSeesDueTime(t *testing.T) {
	s := NewVirtualScheduler()

	var firedAt time.Duration
	s.AfterFunc(50*time.Millisecond, func() { firedAt = s.Now() })
	s.Advance(time.Second)

	assert.Equal(t, 50*time.Millisecond, firedAt)
	assert.Equal(t, time.Second, s.Now())
}

func TestVirtualSchedulerFramesAlignToVsync(t *testing.T) {
	s := NewVirtualScheduler()
	s.Advance(5 * time.Millisecond)

	var seen []time.Duration
	var frame func(now time.Duration)
	frame = func(now time.Duration) {
		seen = append(seen, now)
		if len(seen) < 3 {
			s.RequestFrame(frame)
		}
	}
	s.RequestFrame(frame)

	s.Advance(100 * time.Millisecond)
	assert.Equal(t, []time.Duration{NominalFrame, 2 * NominalFrame, 3 * NominalFrame}, seen)
}

func TestVirtualSchedulerTimerBeforeFrameAtSameInstant(t *testing.T) {
	s := NewVirtualScheduler()

	var order []string
	s.RequestFrame(func(time.Duration) { order = append(order, "frame") })
	s.AfterFunc(NominalFrame, func() {
		order = append(order, "timer")
		// Requested at the vsync instant: runs on the next one
		s.RequestFrame(func(now time.Duration) {
			order = append(order, "late frame")
			assert.Equal(t, 2*NominalFrame, now)
		})
	})

	s.Advance(3 * NominalFrame)
	assert.Equal(t, []string{"timer", "frame", "late frame"}, order)
}

func TestVirtualSchedulerCancelFrame(t *testing.T) {
	s := NewVirtualScheduler()

	ran := false
	id := s.RequestFrame(func(time.Duration) { ran = true })
	s.CancelFrame(id)
	s.Advance(time.Second)

	assert.False(t, ran)
}

func TestVirtualSchedulerRunUntilIdle(t *testing.T) {
	s := NewVirtualScheduler()

	count := 0
	var frame func(time.Duration)
	frame = func(time.Duration) {
		count++
		if count < 10 {
			s.RequestFrame(frame)
		}
	}
	s.RequestFrame(frame)

	assert.True(t, s.RunUntilIdle(time.Minute))
	assert.Equal(t, 10, count)
	assert.Equal(t, 10*NominalFrame, s.Now())

	// A never-ending chain hits the limit
	var forever func(time.Duration)
	forever = func(time.Duration) { s.RequestFrame(forever) }
	s.RequestFrame(forever)

	start := s.Now()
	assert.False(t, s.RunUntilIdle(time.Second))
	assert.Equal(t, start+time.Second, s.Now())
}

// ABOUTME: Friction-decayed momentum animation driven by scheduler frames
// ABOUTME: Explicit Idle/Running state machine with sub-pixel remainder carry

package scroll

import (
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	// StopSpeed is the per-axis speed in px/ms below which a fling ends
	StopSpeed = 0.05

	// MaxFrameGap is the longest frame gap taken at face value; longer gaps
	// (a backgrounded host) are treated as one nominal frame
	MaxFrameGap = 100 * time.Millisecond
)

// nominalFrameMs is NominalFrame in ms, the unit the friction is expressed per
var nominalFrameMs = durationMs(NominalFrame)

// FlingState is the animator state
type FlingState int

const (
	Idle FlingState = iota
	Running
)

func (s FlingState) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// StepFunc receives each whole-pixel fling displacement
type StepFunc func(target Element, dx, dy float64)

// Animator runs at most one fling at a time
type Animator struct {
	sched Scheduler
	step  StepFunc

	friction  float64
	threshold float64

	state    FlingState
	target   Element
	velocity Velocity
	remX     float64
	remY     float64
	last     time.Duration
	frame    FrameID
	frames   int

	logger *zap.Logger
}

// NewAnimator creates an idle animator
func NewAnimator(sched Scheduler, step StepFunc, friction, threshold float64, logger *zap.Logger) *Animator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Animator{
		sched:     sched,
		step:      step,
		friction:  friction,
		threshold: threshold,
		logger:    logger,
	}
}

// SetParams replaces the friction and start threshold
// A running fling picks up the new friction on its next frame.
func (a *Animator) SetParams(friction, threshold float64) {
	a.friction = friction
	a.threshold = threshold
}

// State returns the current state
func (a *Animator) State() FlingState {
	return a.state
}

// Running reports whether a fling is in progress
func (a *Animator) Running() bool {
	return a.state == Running
}

// Velocity returns the current fling velocity; zero when idle
func (a *Animator) Velocity() Velocity {
	if a.state != Running {
		return Velocity{}
	}
	return a.velocity
}

// Start begins a fling on target at velocity v
// Speeds below the threshold are ignored. A running fling is replaced.
func (a *Animator) Start(target Element, v Velocity, now time.Duration) bool {
	speed := v.Speed()
	if math.IsNaN(speed) || speed < a.threshold {
		a.logger.Debug("fling below threshold",
			zap.Float64("speed", speed),
			zap.Float64("threshold", a.threshold))
		return false
	}

	a.Stop()

	a.state = Running
	a.target = target
	a.velocity = v
	a.remX, a.remY = 0, 0
	a.last = now
	a.frames = 0
	a.frame = a.sched.RequestFrame(a.tick)

	a.logger.Debug("fling started",
		zap.Float64("vx", v.X),
		zap.Float64("vy", v.Y),
		zap.Float64("friction", a.friction))

	return true
}

// Stop ends the fling immediately and cancels its pending frame
func (a *Animator) Stop() {
	if a.state != Running {
		return
	}
	a.sched.CancelFrame(a.frame)
	a.finish("stopped")
}

func (a *Animator) tick(now time.Duration) {
	if a.state != Running {
		return
	}

	elapsed := now - a.last
	a.last = now
	ms := durationMs(elapsed)
	if elapsed > MaxFrameGap || elapsed <= 0 {
		ms = nominalFrameMs
	}

	decay := math.Pow(a.friction, ms/nominalFrameMs)
	a.velocity = a.velocity.Scale(decay)

	if math.Abs(a.velocity.X) < StopSpeed && math.Abs(a.velocity.Y) < StopSpeed {
		a.finish("decayed")
		return
	}

	exactX := a.velocity.X*ms + a.remX
	exactY := a.velocity.Y*ms + a.remY
	dx := math.Trunc(exactX)
	dy := math.Trunc(exactY)
	a.remX = exactX - dx
	a.remY = exactY - dy

	a.frames++
	if dx != 0 || dy != 0 {
		a.step(a.target, dx, dy)
	}

	// The step may have stopped us
	if a.state == Running {
		a.frame = a.sched.RequestFrame(a.tick)
	}
}

func (a *Animator) finish(reason string) {
	a.logger.Debug("fling ended", zap.String("reason", reason), zap.Int("frames", a.frames))
	a.state = Idle
	a.target = nil
	a.velocity = Velocity{}
	a.remX, a.remY = 0, 0
	a.frame = 0
}

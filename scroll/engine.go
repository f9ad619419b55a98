// ABOUTME: Engine composes resolution, immediate dispatch, sample history and flings
// ABOUTME: One instance per document; all methods run on the host event loop

package scroll

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scrollspeed/config"
)

// FlingDebounce is how long input must pause before a fling is considered
const FlingDebounce = 50 * time.Millisecond

// Dispatch describes one displacement the engine applied
type Dispatch struct {
	At     time.Duration
	Target Element
	DX, DY float64
	Fling  bool
}

// Stats counts what the engine did with its input
type Stats struct {
	Handled          int
	PassedThrough    int
	Forwarded        int
	FlingsStarted    int
	FlingsSuppressed int
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSettings seeds the cached settings snapshot
func WithSettings(s config.Settings) Option {
	return func(e *Engine) {
		e.settings, _ = config.Sanitize(s)
	}
}

// WithOverrides replaces the built-in override table
func WithOverrides(t OverrideTable) Option {
	return func(e *Engine) {
		e.overrides = t
	}
}

// WithDispatchHook observes every displacement after it is applied
func WithDispatchHook(fn func(Dispatch)) Option {
	return func(e *Engine) {
		e.hook = fn
	}
}

// WithForwarder sends events this frame document cannot scroll to the embedding document
// fn returns whether the embedder handled the event.
func WithForwarder(fn func(ForwardedWheel) bool) Option {
	return func(e *Engine) {
		e.forward = fn
	}
}

// Engine is the per-document scroll engine
type Engine struct {
	id     uuid.UUID
	doc    Document
	sched  Scheduler
	logger *zap.Logger

	settings  config.Settings
	overrides OverrideTable

	resolver   *Resolver
	dispatcher *Dispatcher
	history    *History
	animator   *Animator

	debounce        TimerID
	debouncePending bool

	hook    func(Dispatch)
	forward func(ForwardedWheel) bool

	stats Stats
}

// NewEngine creates an engine for doc driven by sched
func NewEngine(doc Document, sched Scheduler, opts ...Option) *Engine {
	e := &Engine{
		id:       uuid.New(),
		doc:      doc,
		sched:    sched,
		logger:   zap.NewNop(),
		settings: config.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With(zap.Stringer("engine", e.id), zap.String("host", doc.Host()))

	if e.overrides == nil {
		table, err := OverridesFromConfig(e.settings.Overrides)
		if err != nil {
			e.logger.Warn("ignoring invalid override", zap.Error(err))
		}
		e.overrides = table
	}

	e.resolver = NewResolver(doc, e.logger)
	e.dispatcher = NewDispatcher(doc, e.overrides, e.logger)
	e.history = NewHistory(HistoryWindow)
	e.animator = NewAnimator(sched, e.flingStep, e.settings.FlingFriction, e.settings.FlingThreshold, e.logger)

	return e
}

// ID returns the engine's unique id
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Document returns the document the engine is attached to
func (e *Engine) Document() Document {
	return e.doc
}

// Settings returns the cached settings snapshot
func (e *Engine) Settings() config.Settings {
	return e.settings
}

// Stats returns the engine counters
func (e *Engine) Stats() Stats {
	return e.stats
}

// Flinging reports whether a fling is running
func (e *Engine) Flinging() bool {
	return e.animator.Running()
}

// FlingVelocity returns the running fling's velocity
func (e *Engine) FlingVelocity() Velocity {
	return e.animator.Velocity()
}

// HistoryLen returns the number of samples currently retained
func (e *Engine) HistoryLen() int {
	return e.history.Len()
}

// ApplyUpdate merges a pushed settings update into the cached snapshot
// Invalid fields keep their prior values and are returned.
func (e *Engine) ApplyUpdate(u config.SettingsUpdate) []error {
	merged, errs := u.Merge(e.settings)
	for _, err := range errs {
		e.logger.Warn("ignoring invalid setting", zap.Error(err))
	}

	wasFling := e.settings.FlingEnabled
	e.settings = merged
	e.animator.SetParams(merged.FlingFriction, merged.FlingThreshold)

	if u.Overrides != nil {
		table, err := OverridesFromConfig(merged.Overrides)
		if err != nil {
			e.logger.Warn("ignoring invalid override", zap.Error(err))
		}
		e.overrides = table
		e.dispatcher.SetOverrides(table)
	}

	if (wasFling && !merged.FlingEnabled) || merged.DisableExtension {
		e.halt()
	}

	e.logger.Debug("settings updated", zap.Stringer("update", u))
	return errs
}

// HandleWheel processes one raw wheel event
// Returns true when the engine scrolled and claimed the event.
func (e *Engine) HandleWheel(ev *WheelEvent) bool {
	if ev == nil || e.settings.DisableExtension || ev.DefaultPrevented || ev.Ctrl {
		return e.passThrough("disabled or claimed")
	}

	dx, dy := ev.DeltaX, ev.DeltaY
	if ev.Shift && !(ev.Ctrl || ev.Alt || ev.Meta) {
		if dx == 0 {
			dx = dy
		}
		dy = 0
	}

	// Horizontal swipes belong to host history navigation
	if math.Abs(dx) > 2*math.Abs(dy) && math.Abs(dx) > 10 && !ev.Shift {
		return e.passThrough("navigation gesture")
	}

	target := e.resolver.Resolve(ev.Target, dx != 0, dy != 0)
	if target == nil {
		if e.doc.IsFrame() && e.forward != nil {
			return e.forwardToEmbedder(ev)
		}
		return e.passThrough("no scrollable target")
	}

	e.halt()

	factor := e.settings.ScrollFactor
	sdx, sdy := dx*factor, dy*factor
	e.apply(target, sdx, sdy, false)

	if e.settings.FlingEnabled {
		e.history.Push(Sample{DX: sdx, DY: sdy, At: e.sched.Now(), Target: target})
		e.debounce = e.sched.AfterFunc(FlingDebounce, e.tryFling)
		e.debouncePending = true
	}

	ev.PreventDefault()
	e.stats.Handled++
	return true
}

// HandleMessage processes a wheel event forwarded by an embedded frame
// The embedding frame element becomes the event target.
func (e *Engine) HandleMessage(msg ForwardedWheel) bool {
	if msg.Marker != ForwardMarker {
		return false
	}

	frame := e.doc.FrameElement(msg.Source)
	if frame == nil {
		e.logger.Debug("forwarded event from unknown frame")
		return false
	}

	ev := msg.Event
	ev.Target = frame
	return e.HandleWheel(&ev)
}

// Close stops any fling and pending debounce
func (e *Engine) Close() {
	e.halt()
	e.history.Reset()
}

// halt stops the fling and cancels the pending debounce
func (e *Engine) halt() {
	e.animator.Stop()
	if e.debouncePending {
		e.sched.CancelTimer(e.debounce)
		e.debouncePending = false
	}
	if !e.settings.FlingEnabled || e.settings.DisableExtension {
		e.history.Reset()
	}
}

func (e *Engine) passThrough(reason string) bool {
	e.stats.PassedThrough++
	e.logger.Debug("wheel passed through", zap.String("reason", reason))
	return false
}

func (e *Engine) forwardToEmbedder(ev *WheelEvent) bool {
	fwd := *ev
	fwd.Target = nil

	e.stats.Forwarded++
	handled := e.forward(ForwardedWheel{Marker: ForwardMarker, Source: e.doc, Event: fwd})
	if handled {
		ev.PreventDefault()
	}
	return handled
}

// tryFling runs when input has paused for the debounce period
func (e *Engine) tryFling() {
	e.debouncePending = false

	if !e.settings.FlingEnabled || e.history.Len() < MinFlingSamples {
		return
	}

	v, ok := Estimate(e.history)
	if !ok {
		return
	}
	if v.Speed() < e.settings.FlingThreshold {
		return
	}
	if IsDecelerating(e.history) {
		e.stats.FlingsSuppressed++
		e.logger.Debug("fling suppressed, input was decelerating", zap.Float64("speed", v.Speed()))
		return
	}

	latest, _ := e.history.Latest()
	if e.animator.Start(latest.Target, v, e.sched.Now()) {
		e.stats.FlingsStarted++
	}
}

func (e *Engine) flingStep(target Element, dx, dy float64) {
	e.apply(target, dx, dy, true)
}

func (e *Engine) apply(target Element, dx, dy float64, fling bool) {
	el := e.dispatcher.Apply(target, dx, dy)
	if el == nil || e.hook == nil {
		return
	}
	e.hook(Dispatch{At: e.sched.Now(), Target: el, DX: dx, DY: dy, Fling: fling})
}

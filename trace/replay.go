// ABOUTME: Replays a trace against real engines on a virtual scheduler
// ABOUTME: Produces a report of dispatches, flings and final scroll offsets

package trace

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"scrollspeed/config"
	"scrollspeed/dom"
	"scrollspeed/scroll"
)

// DefaultSettle bounds how long a replay waits for flings after the last event
const DefaultSettle = 30 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures a replay
type Options struct {
	Logger   *zap.Logger
	Settings *config.Settings // base settings, defaults when nil; the trace's own settings apply on top
	Settle   time.Duration
}

// Record is one displacement applied during replay
type Record struct {
	AtMs   float64 `json:"at_ms"`
	Target string  `json:"target"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Fling  bool    `json:"fling"`
}

// Offset is the final scroll position of one scrollable element
type Offset struct {
	Target string  `json:"target"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Result is the outcome of one replay
type Result struct {
	Name             string   `json:"name"`
	Events           int      `json:"events"`
	InputMs          float64  `json:"input_ms"`
	Handled          int      `json:"handled"`
	PassedThrough    int      `json:"passed_through"`
	Forwarded        int      `json:"forwarded"`
	FlingsStarted    int      `json:"flings_started"`
	FlingsSuppressed int      `json:"flings_suppressed"`
	Dispatches       []Record `json:"dispatches"`
	Offsets          []Offset `json:"offsets"`
	EndMs            float64  `json:"end_ms"`
	Idle             bool     `json:"idle"`
}

// FlingDistance sums the displacement applied by flings
func (r *Result) FlingDistance() (dx, dy float64) {
	for _, d := range r.Dispatches {
		if d.Fling {
			dx += d.DX
			dy += d.DY
		}
	}
	return dx, dy
}

// MarshalJSON encodes results with json-iterator
func MarshalJSON(results []*Result) ([]byte, error) {
	return json.MarshalIndent(results, "", "  ")
}

// Replay runs t and reports what the engines did
// The context is checked between events.
func Replay(ctx context.Context, t *Trace, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("trace", t.Name))

	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	base := config.DefaultSettings()
	if opts.Settings != nil {
		base = *opts.Settings
	}
	settings, errs := t.Settings.Update().Merge(base)
	for _, err := range errs {
		logger.Warn("ignoring invalid trace setting", zap.Error(err))
	}

	doc, err := t.LoadPage(dom.Options{Logger: logger})
	if err != nil {
		return nil, err
	}

	sched := scroll.NewVirtualScheduler()
	result := &Result{Name: t.Name, Events: len(t.Events), InputMs: t.Duration()}

	engines := dom.AttachEngines(doc, sched, settings,
		scroll.WithDispatchHook(func(d scroll.Dispatch) {
			el, _ := d.Target.(*dom.Element)
			result.Dispatches = append(result.Dispatches, Record{
				AtMs:   msFloat(d.At),
				Target: dom.Path(el),
				DX:     d.DX,
				DY:     d.DY,
				Fling:  d.Fling,
			})
		}))
	defer engines.Close()

	for i, ev := range t.Events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sched.AdvanceTo(msDuration(ev.AtMs))

		we := scroll.WheelEvent{
			DeltaX: ev.DeltaX,
			DeltaY: ev.DeltaY,
			Shift:  ev.Shift,
			Ctrl:   ev.Ctrl,
			Alt:    ev.Alt,
			Meta:   ev.Meta,
		}

		if ev.X != nil {
			handled := engines.WheelAt(*ev.X, *ev.Y, we)
			logger.Debug("replayed event", zap.Int("index", i), zap.Bool("handled", handled))
			continue
		}

		if ev.Target != "" {
			target, err := doc.Resolve(ev.Target)
			if err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
			if target == nil {
				return nil, fmt.Errorf("event %d: no element matches %q", i, ev.Target)
			}
			we.Target = target
		}

		handled := engines.HandleWheel(&we)
		logger.Debug("replayed event", zap.Int("index", i), zap.Bool("handled", handled))
	}

	if t.RunForMs > 0 {
		if end := msDuration(t.RunForMs); end > sched.Now() {
			sched.AdvanceTo(end)
		}
		frames, timers := sched.Pending()
		result.Idle = frames == 0 && timers == 0
	} else {
		result.Idle = sched.RunUntilIdle(settle)
	}
	result.EndMs = msFloat(sched.Now())

	stats := engines.Stats()
	result.Handled = stats.Handled
	result.PassedThrough = stats.PassedThrough
	result.Forwarded = stats.Forwarded
	result.FlingsStarted = stats.FlingsStarted
	result.FlingsSuppressed = stats.FlingsSuppressed

	doc.Walk(func(el *dom.Element) {
		x, y := el.ScrollOffset()
		if x == 0 && y == 0 && !el.Overflows(scroll.AxisX) && !el.Overflows(scroll.AxisY) {
			return
		}
		result.Offsets = append(result.Offsets, Offset{Target: dom.Path(el), X: x, Y: y})
	})

	logger.Info("trace replayed",
		zap.Int("events", result.Events),
		zap.Int("dispatches", len(result.Dispatches)),
		zap.Int("flings", result.FlingsStarted))

	return result, nil
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func msFloat(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

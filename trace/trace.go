// ABOUTME: Wheel input traces: a page, settings and a timed list of wheel events
// ABOUTME: Traces are YAML files decoded strictly with goccy/go-yaml

// Package trace loads recorded wheel input and replays it against the scroll engine
// on a virtual clock, producing a deterministic report of everything that scrolled.
package trace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"

	"scrollspeed/config"
	"scrollspeed/dom"
)

var (
	// ErrEmptyTrace is returned for a trace without events
	ErrEmptyTrace = errors.New("trace has no events")

	// ErrNoPage is returned when a trace names neither a page file nor inline html
	ErrNoPage = errors.New("trace has no page")
)

// Viewport is the page viewport in px
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Event is one recorded wheel event
type Event struct {
	AtMs   float64 `yaml:"at_ms"`
	DeltaX float64 `yaml:"delta_x"`
	DeltaY float64 `yaml:"delta_y"`
	Shift  bool    `yaml:"shift"`
	Ctrl   bool    `yaml:"ctrl"`
	Alt    bool    `yaml:"alt"`
	Meta   bool    `yaml:"meta"`

	// Target is an element path ("xpath" or "iframe xpath >> xpath"); X and Y hit test instead
	Target string   `yaml:"target"`
	X      *float64 `yaml:"x"`
	Y      *float64 `yaml:"y"`
}

// SettingsPatch overrides individual settings for one trace
type SettingsPatch struct {
	ScrollFactor     *float64                       `yaml:"scroll_factor"`
	FlingEnabled     *bool                          `yaml:"fling_enabled"`
	FlingFriction    *float64                       `yaml:"fling_friction"`
	FlingThreshold   *float64                       `yaml:"fling_threshold"`
	DisableExtension *bool                          `yaml:"disable_extension"`
	SmoothScroll     *bool                          `yaml:"smooth_scroll"`
	Overrides        map[string]config.OverrideRule `yaml:"overrides"`
}

// Update converts the patch to a settings update
func (p *SettingsPatch) Update() config.SettingsUpdate {
	if p == nil {
		return config.SettingsUpdate{}
	}
	return config.SettingsUpdate{
		ScrollFactor:     p.ScrollFactor,
		FlingEnabled:     p.FlingEnabled,
		FlingFriction:    p.FlingFriction,
		FlingThreshold:   p.FlingThreshold,
		DisableExtension: p.DisableExtension,
		SmoothScroll:     p.SmoothScroll,
		Overrides:        p.Overrides,
	}
}

// Trace is a decoded trace file
type Trace struct {
	Name       string         `yaml:"name"`
	Host       string         `yaml:"host"`
	Page       string         `yaml:"page"`
	HTML       string         `yaml:"html"`
	Fullscreen bool           `yaml:"fullscreen"`
	Viewport   Viewport       `yaml:"viewport"`
	Settings   *SettingsPatch `yaml:"settings"`
	RunForMs   float64        `yaml:"run_for_ms"`
	Events     []Event        `yaml:"events"`

	// dir resolves a relative Page
	dir string
}

// Load reads and validates a trace file
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	t, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if t.Name == "" {
		t.Name = filepath.Base(path)
	}
	return t, nil
}

// Parse decodes a trace; dir is the directory relative pages are read from
func Parse(data []byte, dir string) (*Trace, error) {
	var t Trace
	if err := yaml.UnmarshalWithOptions(data, &t, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse trace\n%s", yaml.FormatError(err, false, true))
	}
	t.dir = dir

	if err := t.Validate(); err != nil {
		return nil, err
	}

	// Replay order is by time; equal times keep file order
	sort.SliceStable(t.Events, func(i, j int) bool {
		return t.Events[i].AtMs < t.Events[j].AtMs
	})
	return &t, nil
}

// Validate checks the trace is replayable
func (t *Trace) Validate() error {
	if len(t.Events) == 0 {
		return ErrEmptyTrace
	}
	if t.Page == "" && t.HTML == "" {
		return ErrNoPage
	}
	if t.Viewport.Width < 0 || t.Viewport.Height < 0 {
		return fmt.Errorf("viewport must not be negative: %vx%v", t.Viewport.Width, t.Viewport.Height)
	}
	if t.RunForMs < 0 {
		return fmt.Errorf("run_for_ms must not be negative: %v", t.RunForMs)
	}
	for i, ev := range t.Events {
		if ev.AtMs < 0 {
			return fmt.Errorf("event %d: at_ms must not be negative: %v", i, ev.AtMs)
		}
		if (ev.X == nil) != (ev.Y == nil) {
			return fmt.Errorf("event %d: x and y must be given together", i)
		}
	}
	return nil
}

// Duration returns the time of the last event in ms
func (t *Trace) Duration() float64 {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].AtMs
}

// LoadPage parses the trace's page
func (t *Trace) LoadPage(opts dom.Options) (*dom.Document, error) {
	opts.Host = t.Host
	opts.Fullscreen = t.Fullscreen
	opts.Viewport = dom.Size{Width: t.Viewport.Width, Height: t.Viewport.Height}

	if t.HTML != "" {
		return dom.ParseString(t.HTML, opts)
	}

	path := t.Page
	if !filepath.IsAbs(path) {
		path = filepath.Join(t.dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	return dom.Parse(f, opts)
}

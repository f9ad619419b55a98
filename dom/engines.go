// ABOUTME: Attaches a scroll engine to a document and to every frame it embeds
// ABOUTME: Routes wheel events to the innermost document and relays frame forwarding to the embedder

package dom

import (
	"strings"

	"go.uber.org/zap"

	"scrollspeed/config"
	"scrollspeed/scroll"
)

// EngineSet holds one engine per document of a page, top document first
type EngineSet struct {
	top     *Document
	docs    []*Document
	engines map[*Document]*scroll.Engine
	logger  *zap.Logger
}

// AttachEngines creates engines for doc and its frames sharing one scheduler
// opts apply to every engine; frame engines also get a forwarder to their embedder.
func AttachEngines(doc *Document, sched scroll.Scheduler, settings config.Settings, opts ...scroll.Option) *EngineSet {
	s := &EngineSet{
		top:     doc,
		engines: make(map[*Document]*scroll.Engine),
		logger:  doc.logger,
	}
	s.attach(doc, sched, settings, opts)

	if !settings.SmoothScroll {
		doc.DisableSmoothScrolling()
	}
	return s
}

func (s *EngineSet) attach(d *Document, sched scroll.Scheduler, settings config.Settings, opts []scroll.Option) {
	engineOpts := append([]scroll.Option{
		scroll.WithLogger(s.logger),
		scroll.WithSettings(settings),
	}, opts...)

	if parent := d.parent; parent != nil {
		engineOpts = append(engineOpts, scroll.WithForwarder(func(msg scroll.ForwardedWheel) bool {
			return s.engines[parent].HandleMessage(msg)
		}))
	}

	s.engines[d] = scroll.NewEngine(d, sched, engineOpts...)
	s.docs = append(s.docs, d)

	for _, f := range d.frames {
		if f.frameDoc != nil {
			s.attach(f.frameDoc, sched, settings, opts)
		}
	}
}

// Engine returns the engine attached to d, or nil
func (s *EngineSet) Engine(d *Document) *scroll.Engine {
	return s.engines[d]
}

// Engines returns every engine, top document first
func (s *EngineSet) Engines() []*scroll.Engine {
	out := make([]*scroll.Engine, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, s.engines[d])
	}
	return out
}

// HandleWheel delivers ev to the engine of the document that owns ev.Target
// Events without a target go to the top document's body.
func (s *EngineSet) HandleWheel(ev *scroll.WheelEvent) bool {
	d := s.top
	if el, ok := ev.Target.(*Element); ok && el != nil {
		d = el.doc
	} else {
		ev.Target = s.top.body
	}

	e := s.engines[d]
	if e == nil {
		return false
	}
	return e.HandleWheel(ev)
}

// WheelAt hit tests the viewport point and delivers a wheel event there
func (s *EngineSet) WheelAt(x, y float64, ev scroll.WheelEvent) bool {
	target := s.top.ElementAt(x, y)
	if target == nil {
		return false
	}
	ev.Target = target
	return s.HandleWheel(&ev)
}

// ApplyUpdate pushes a settings update to every engine
func (s *EngineSet) ApplyUpdate(u config.SettingsUpdate) []error {
	var errs []error
	for _, d := range s.docs {
		errs = append(errs, s.engines[d].ApplyUpdate(u)...)
	}
	if u.SmoothScroll != nil && !*u.SmoothScroll {
		s.top.DisableSmoothScrolling()
	}
	return errs
}

// Subscribe registers every engine with hub; the returned func unsubscribes them all
func (s *EngineSet) Subscribe(hub *config.Hub) func() {
	var cancels []func()
	for _, d := range s.docs {
		e := s.engines[d]
		_, cancel := hub.Subscribe(func(u config.SettingsUpdate) {
			e.ApplyUpdate(u)
			if u.SmoothScroll != nil && !*u.SmoothScroll {
				d.DisableSmoothScrolling()
			}
		})
		cancels = append(cancels, cancel)
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// Flinging reports whether any engine has a running fling
func (s *EngineSet) Flinging() bool {
	for _, e := range s.engines {
		if e.Flinging() {
			return true
		}
	}
	return false
}

// Stats sums the counters of every engine
func (s *EngineSet) Stats() scroll.Stats {
	var total scroll.Stats
	for _, e := range s.engines {
		st := e.Stats()
		total.Handled += st.Handled
		total.PassedThrough += st.PassedThrough
		total.Forwarded += st.Forwarded
		total.FlingsStarted += st.FlingsStarted
		total.FlingsSuppressed += st.FlingsSuppressed
	}
	return total
}

// Close stops every engine
func (s *EngineSet) Close() {
	for _, e := range s.engines {
		e.Close()
	}
}

// Path names el across frame boundaries, outermost document first
func Path(el *Element) string {
	if el == nil {
		return ""
	}
	path := XPath(el)
	for d := el.doc; d.frame != nil; d = d.parent {
		path = XPath(d.frame) + " >> " + path
	}
	return path
}

// Resolve finds the element named by a Path
func (d *Document) Resolve(path string) (*Element, error) {
	parts := splitPath(path)
	doc := d
	var el *Element
	for i, part := range parts {
		found, err := doc.Find(nil, part)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, nil
		}
		el = found
		if i < len(parts)-1 {
			if el.frameDoc == nil {
				return nil, nil
			}
			doc = el.frameDoc
		}
	}
	return el, nil
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ">>") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

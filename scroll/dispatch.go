// ABOUTME: Applies displacements to scroll targets, honoring per-host target overrides
// ABOUTME: Overrides are data (root or XPath redirects) looked up by document host

package scroll

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"scrollspeed/config"
)

// Override redirects scrolling away from the resolved target
type Override interface {
	// Redirect returns the element to scroll instead of target, or false to keep target
	Redirect(doc Document, target Element) (Element, bool)
}

// RootOverride always scrolls the document's scrolling element
type RootOverride struct{}

// Redirect implements Override
func (RootOverride) Redirect(doc Document, _ Element) (Element, bool) {
	el := doc.ScrollingElement()
	return el, el != nil
}

// SelectorOverride scrolls the first descendant of the target matching XPath
type SelectorOverride struct {
	XPath          string
	FullscreenOnly bool
}

// Redirect implements Override
func (o SelectorOverride) Redirect(doc Document, target Element) (Element, bool) {
	if o.FullscreenOnly && !doc.Fullscreen() {
		return nil, false
	}

	el, err := doc.Query(target, o.XPath)
	if err != nil || el == nil {
		return nil, false
	}
	return el, true
}

// OverrideTable maps host names to overrides
type OverrideTable map[string]Override

// DefaultOverrides returns the built-in site table
func DefaultOverrides() OverrideTable {
	return OverrideTable{
		"youtube.com":       SelectorOverride{XPath: "//ytd-app", FullscreenOnly: true},
		"www.nexusmods.com": RootOverride{},
	}
}

// OverridesFromConfig returns the built-in table with the configured rules layered on top
func OverridesFromConfig(rules map[string]config.OverrideRule) (OverrideTable, error) {
	table := DefaultOverrides()

	hosts := make([]string, 0, len(rules))
	for host := range rules {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		rule := rules[host]
		if err := rule.Validate(); err != nil {
			return table, fmt.Errorf("override %q: %w", host, err)
		}

		switch rule.Redirect {
		case config.RedirectRoot:
			table[host] = RootOverride{}
		case config.RedirectSelector:
			table[host] = SelectorOverride{XPath: rule.Selector, FullscreenOnly: rule.FullscreenOnly}
		}
	}

	return table, nil
}

// Lookup finds the override for host, trying the host without a "www." prefix second
func (t OverrideTable) Lookup(host string) (Override, bool) {
	host = strings.ToLower(host)
	if o, ok := t[host]; ok {
		return o, true
	}
	if bare, ok := strings.CutPrefix(host, "www."); ok {
		o, found := t[bare]
		return o, found
	}
	return nil, false
}

// Dispatcher applies displacements inside one document
type Dispatcher struct {
	doc       Document
	overrides OverrideTable
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher for doc; a nil table disables overrides
func NewDispatcher(doc Document, overrides OverrideTable, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{doc: doc, overrides: overrides, logger: logger}
}

// SetOverrides replaces the override table
func (d *Dispatcher) SetOverrides(t OverrideTable) {
	d.overrides = t
}

// Effective returns the element a displacement on target really lands on
func (d *Dispatcher) Effective(target Element) Element {
	o, ok := d.overrides.Lookup(d.doc.Host())
	if !ok {
		return target
	}

	if el, redirected := o.Redirect(d.doc, target); redirected {
		d.logger.Debug("scroll target redirected", zap.String("host", d.doc.Host()))
		return el
	}
	return target
}

// Apply moves the effective target immediately and returns it
func (d *Dispatcher) Apply(target Element, dx, dy float64) Element {
	el := d.Effective(target)
	if el == nil {
		return nil
	}

	el.ScrollBy(dx, dy, BehaviorInstant)
	return el
}

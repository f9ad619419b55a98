// ABOUTME: Inline style parsing for the page model
// ABOUTME: Only the properties that affect layout and scrolling are understood

package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/antchfx/htmlquery"

	"scrollspeed/scroll"
)

// WhiteSpace controls text wrapping
type WhiteSpace string

const (
	WhiteSpaceNormal WhiteSpace = "normal"
	WhiteSpaceNowrap WhiteSpace = "nowrap"
	WhiteSpacePre    WhiteSpace = "pre"
)

// length is a CSS length in px or percent of the containing block
type length struct {
	value   float64
	percent bool
	set     bool
}

func (l length) resolve(containing float64) (float64, bool) {
	if !l.set {
		return 0, false
	}
	if l.percent {
		return containing * l.value / 100, true
	}
	return l.value, true
}

// Style holds the computed properties of one element
type Style struct {
	OverflowX      scroll.Overflow
	OverflowY      scroll.Overflow
	WhiteSpace     WhiteSpace
	ScrollBehavior string
	Hidden         bool // display: none

	width  length
	height length
}

// declaration is one "property: value" pair
type declaration struct {
	property  string
	value     string
	important bool
}

// parseInlineStyle splits a style attribute into declarations
func parseInlineStyle(attr string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(attr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])
		important := false
		if strings.HasSuffix(strings.ToLower(val), "!important") {
			important = true
			val = strings.TrimSpace(val[:len(val)-len("!important")])
		}
		decls = append(decls, declaration{property: prop, value: strings.ToLower(val), important: important})
	}
	return decls
}

// computeStyle resolves the style of n given its parent's computed style
func computeStyle(n *html.Node, parent *Style) Style {
	s := Style{
		OverflowX:      scroll.OverflowVisible,
		OverflowY:      scroll.OverflowVisible,
		WhiteSpace:     WhiteSpaceNormal,
		ScrollBehavior: "auto",
	}
	if parent != nil {
		s.WhiteSpace = parent.WhiteSpace
	}
	if n.Data == "pre" {
		s.WhiteSpace = WhiteSpacePre
	}

	// Later declarations win unless an earlier one was !important
	important := make(map[string]bool)
	for _, d := range parseInlineStyle(htmlquery.SelectAttr(n, "style")) {
		if important[d.property] && !d.important {
			continue
		}
		if d.important {
			important[d.property] = true
		}
		s.apply(d)
	}

	// A visible axis next to a scrolling one computes to auto
	if s.OverflowX == scroll.OverflowVisible && isScrollContainer(s.OverflowY) {
		s.OverflowX = scroll.OverflowAuto
	}
	if s.OverflowY == scroll.OverflowVisible && isScrollContainer(s.OverflowX) {
		s.OverflowY = scroll.OverflowAuto
	}

	return s
}

func (s *Style) apply(d declaration) {
	switch d.property {
	case "overflow":
		fields := strings.Fields(d.value)
		switch len(fields) {
		case 1:
			if o, ok := parseOverflow(fields[0]); ok {
				s.OverflowX, s.OverflowY = o, o
			}
		case 2:
			x, okX := parseOverflow(fields[0])
			y, okY := parseOverflow(fields[1])
			if okX && okY {
				s.OverflowX, s.OverflowY = x, y
			}
		}
	case "overflow-x":
		if o, ok := parseOverflow(d.value); ok {
			s.OverflowX = o
		}
	case "overflow-y":
		if o, ok := parseOverflow(d.value); ok {
			s.OverflowY = o
		}
	case "white-space":
		switch WhiteSpace(d.value) {
		case WhiteSpaceNormal, WhiteSpaceNowrap, WhiteSpacePre:
			s.WhiteSpace = WhiteSpace(d.value)
		}
	case "scroll-behavior":
		if d.value == "auto" || d.value == "smooth" {
			s.ScrollBehavior = d.value
		}
	case "display":
		s.Hidden = d.value == "none"
	case "width":
		if l, ok := parseLength(d.value); ok {
			s.width = l
		}
	case "height":
		if l, ok := parseLength(d.value); ok {
			s.height = l
		}
	}
}

func parseOverflow(v string) (scroll.Overflow, bool) {
	switch o := scroll.Overflow(v); o {
	case scroll.OverflowVisible, scroll.OverflowHidden, scroll.OverflowAuto,
		scroll.OverflowScroll, scroll.OverflowClip:
		return o, true
	}
	return "", false
}

// isScrollContainer reports whether the value makes the box a scroll container
func isScrollContainer(o scroll.Overflow) bool {
	return o == scroll.OverflowHidden || o == scroll.OverflowAuto || o == scroll.OverflowScroll
}

func parseLength(v string) (length, bool) {
	v = strings.TrimSpace(v)
	percent := false
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "%"):
		v = strings.TrimSuffix(v, "%")
		percent = true
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 0 {
		return length{}, false
	}
	return length{value: f, percent: percent, set: true}, true
}

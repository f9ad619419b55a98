// ABOUTME: Host-facing contracts for scroll targets and the documents that own them
// ABOUTME: Hosts implement Element and Document; the engine never creates regions

// Package scroll implements the scroll-speed override and momentum ("fling") engine:
// target resolution, velocity estimation, deceleration detection, the friction-decayed
// animator and the dispatcher that applies displacements to host elements.
//
// Everything in this package runs on the host's single event loop. Blocking is
// expressed through the injected Scheduler; nothing here starts goroutines or locks.
package scroll

import "errors"

// ErrStyleAccessDenied is returned by hosts when a node's computed style cannot be read
var ErrStyleAccessDenied = errors.New("computed style access denied")

// Axis selects the scroll direction
type Axis int

const (
	AxisY Axis = iota
	AxisX
)

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// Overflow is a computed CSS overflow value
type Overflow string

const (
	OverflowVisible Overflow = "visible"
	OverflowHidden  Overflow = "hidden"
	OverflowAuto    Overflow = "auto"
	OverflowScroll  Overflow = "scroll"
	OverflowClip    Overflow = "clip"
)

// Scrolls reports whether the value lets the user scroll overflowing content
func (o Overflow) Scrolls() bool {
	return o == OverflowAuto || o == OverflowScroll
}

// Behavior selects how the host applies a displacement
type Behavior int

const (
	// BehaviorInstant moves immediately, overriding any host smooth-scroll setting
	BehaviorInstant Behavior = iota
	BehaviorSmooth
)

// Element is an opaque scroll target handle
// Implementations must be comparable; pointer types are the norm.
type Element interface {
	// Parent returns the parent element, or nil at the top of the tree
	Parent() Element
	// ScrollSize is the scrollable content extent on axis in px
	ScrollSize(axis Axis) float64
	// ClientSize is the visible box extent on axis in px
	ClientSize(axis Axis) float64
	// ComputedOverflow returns the computed overflow on axis
	ComputedOverflow(axis Axis) (Overflow, error)
	// ScrollBy moves the element's scroll offset
	ScrollBy(dx, dy float64, behavior Behavior)
}

// Document is the tree an engine instance is attached to
type Document interface {
	// Root is the document element
	Root() Element
	// Body is the root's body child, or nil
	Body() Element
	// ScrollingElement is the element that scrolls the viewport
	ScrollingElement() Element
	// IsFrame reports whether this document is embedded in another document
	IsFrame() bool
	// Host identifies the site, used to look up target overrides
	Host() string
	// Fullscreen reports whether the document is presenting fullscreen
	Fullscreen() bool
	// Query returns the first descendant of scope matching an XPath expression, or nil
	Query(scope Element, xpath string) (Element, error)
	// FrameElement returns the element embedding the frame document source, or nil
	FrameElement(source Document) Element
}

// WheelEvent is one raw wheel or trackpad input event
type WheelEvent struct {
	DeltaX, DeltaY        float64
	Shift, Ctrl, Alt, Meta bool
	Target                Element

	// DefaultPrevented is set once some handler claimed the event
	DefaultPrevented bool
}

// PreventDefault marks the event as handled
func (ev *WheelEvent) PreventDefault() {
	ev.DefaultPrevented = true
}

// ForwardMarker tags wheel payloads forwarded from an embedded frame
const ForwardMarker = "ChangeScrollSpeed"

// ForwardedWheel carries a wheel event from a frame document to its embedder
type ForwardedWheel struct {
	Marker string
	Source Document
	Event  WheelEvent
}

// ABOUTME: HTML page model that implements the scroll engine's Document and Element contracts
// ABOUTME: Parses with x/net/html, answers XPath queries with htmlquery and nests iframe srcdoc frames

// Package dom is a small, deterministic HTML page model: block layout in pixels,
// per-element scroll offsets and hit testing. It is what the terminal host and the
// trace replayer scroll.
package dom

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"scrollspeed/scroll"
)

// ErrNoBody is returned when a page has no body element
var ErrNoBody = errors.New("document has no body")

// Cell geometry used to turn text into pixels
const (
	CellWidth  = 8.0
	CellHeight = 16.0

	// DefaultFrameHeight is the height of an iframe without an explicit height
	DefaultFrameHeight = 150.0
)

// Size is a width/height pair in px
type Size struct {
	Width, Height float64
}

// Options configures parsing
type Options struct {
	Host       string
	Viewport   Size
	Fullscreen bool
	Logger     *zap.Logger
}

// Document is a parsed and laid out page
type Document struct {
	node     *html.Node
	root     *Element
	body     *Element
	byNode   map[*html.Node]*Element
	elements []*Element

	host       string
	viewport   Size
	fullscreen bool

	parent *Document
	frame  *Element // embedding iframe element in parent
	frames []*Element

	logger *zap.Logger
}

// Element is one rendered element
type Element struct {
	doc      *Document
	node     *html.Node
	parent   *Element
	children []*Element
	style    Style

	// Box relative to the parent's content origin, before the parent's scroll
	x, y, w, h float64
	// Extent of the laid out content
	contentW, contentH float64
	scrollX, scrollY   float64

	texts      []textBlock
	restricted bool
	frameDoc   *Document
}

// textBlock is a run of wrapped lines at a vertical offset inside its element
type textBlock struct {
	y     float64
	lines []string
}

// Parse reads an HTML page and lays it out in the viewport
func Parse(r io.Reader, opts Options) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = Size{Width: 800, Height: 600}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return build(node, opts, nil)
}

// ParseString is Parse over a string
func ParseString(s string, opts Options) (*Document, error) {
	return Parse(strings.NewReader(s), opts)
}

func build(node *html.Node, opts Options, parent *Document) (*Document, error) {
	d := &Document{
		node:       node,
		byNode:     make(map[*html.Node]*Element),
		host:       opts.Host,
		viewport:   opts.Viewport,
		fullscreen: opts.Fullscreen,
		parent:     parent,
		logger:     opts.Logger,
	}

	htmlNode := htmlquery.FindOne(node, "/html")
	if htmlNode == nil {
		return nil, fmt.Errorf("page has no root element")
	}
	d.root = d.buildElement(htmlNode, nil, computeStyle(htmlNode, nil))

	bodyNode := htmlquery.FindOne(htmlNode, "./body")
	if bodyNode == nil {
		return nil, ErrNoBody
	}
	d.body = d.byNode[bodyNode]
	if d.body == nil {
		return nil, ErrNoBody
	}

	if err := d.buildFrames(); err != nil {
		return nil, err
	}

	// Frame documents are laid out by their embedder once the iframe box is known
	if parent == nil {
		d.layout()
	}
	return d, nil
}

// skipped elements never render
var skipped = map[string]bool{
	"head": true, "script": true, "style": true, "title": true,
	"meta": true, "link": true, "template": true, "noscript": true,
}

func (d *Document) buildElement(n *html.Node, parent *Element, style Style) *Element {
	el := &Element{
		doc:        d,
		node:       n,
		parent:     parent,
		style:      style,
		restricted: hasAttr(n, "data-restricted"),
	}
	d.byNode[n] = el
	d.elements = append(d.elements, el)

	if n.Data == "iframe" {
		return el
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || skipped[c.Data] {
			continue
		}
		childStyle := computeStyle(c, &el.style)
		if childStyle.Hidden {
			continue
		}
		el.children = append(el.children, d.buildElement(c, el, childStyle))
	}

	return el
}

func (d *Document) buildFrames() error {
	for _, el := range d.elements {
		if el.node.Data != "iframe" {
			continue
		}
		d.frames = append(d.frames, el)

		src := htmlquery.SelectAttr(el.node, "srcdoc")
		if src == "" {
			continue
		}

		host := htmlquery.SelectAttr(el.node, "data-host")
		if host == "" {
			host = d.host
		}

		node, err := html.Parse(strings.NewReader(src))
		if err != nil {
			return fmt.Errorf("failed to parse frame: %w", err)
		}

		child, err := build(node, Options{Host: host, Logger: d.logger}, d)
		if err != nil {
			return fmt.Errorf("frame %s: %w", XPath(el), err)
		}
		child.frame = el
		el.frameDoc = child
	}
	return nil
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Root implements scroll.Document
func (d *Document) Root() scroll.Element { return d.root }

// Body implements scroll.Document
func (d *Document) Body() scroll.Element { return d.body }

// ScrollingElement implements scroll.Document
func (d *Document) ScrollingElement() scroll.Element { return d.root }

// IsFrame implements scroll.Document
func (d *Document) IsFrame() bool { return d.parent != nil }

// Host implements scroll.Document
func (d *Document) Host() string { return d.host }

// Fullscreen implements scroll.Document
func (d *Document) Fullscreen() bool {
	if d.parent != nil {
		return d.parent.Fullscreen()
	}
	return d.fullscreen
}

// SetFullscreen changes the fullscreen state
func (d *Document) SetFullscreen(on bool) {
	d.fullscreen = on
}

// Viewport returns the viewport size
func (d *Document) Viewport() Size {
	return d.viewport
}

// Parent returns the embedding document of a frame, or nil
func (d *Document) Parent() *Document {
	return d.parent
}

// EmbeddingElement returns the iframe element hosting this frame document, or nil
func (d *Document) EmbeddingElement() *Element {
	return d.frame
}

// Frames returns the iframe elements of this document in document order
func (d *Document) Frames() []*Element {
	return d.frames
}

// RootElement returns the html element
func (d *Document) RootElement() *Element {
	return d.root
}

// BodyElement returns the body element
func (d *Document) BodyElement() *Element {
	return d.body
}

// Query implements scroll.Document
// An expression starting with "//" searches the descendants of scope.
func (d *Document) Query(scope scroll.Element, xpath string) (scroll.Element, error) {
	el, err := d.Find(scope, xpath)
	if el == nil || err != nil {
		return nil, err
	}
	return el, nil
}

// Find is Query returning the concrete element
func (d *Document) Find(scope scroll.Element, xpath string) (*Element, error) {
	top := d.node
	if e, ok := scope.(*Element); ok && e != nil && e.doc == d {
		top = e.node
		if strings.HasPrefix(xpath, "//") {
			xpath = "." + xpath
		}
	}

	n, err := htmlquery.Query(top, xpath)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", xpath, err)
	}
	if n == nil {
		return nil, nil
	}
	return d.byNode[n], nil
}

// FrameElement implements scroll.Document
func (d *Document) FrameElement(source scroll.Document) scroll.Element {
	src, ok := source.(*Document)
	if !ok || src == nil {
		return nil
	}
	for _, f := range d.frames {
		if f.frameDoc == src {
			return f
		}
	}
	return nil
}

// DisableSmoothScrolling forces instant scroll behavior on the root and body
func (d *Document) DisableSmoothScrolling() {
	d.root.style.ScrollBehavior = "auto"
	d.body.style.ScrollBehavior = "auto"
	for _, f := range d.frames {
		if f.frameDoc != nil {
			f.frameDoc.DisableSmoothScrolling()
		}
	}
}

// Scrollables returns every element whose content overflows its box, in document order
func (d *Document) Scrollables() []*Element {
	var out []*Element
	for _, el := range d.elements {
		if el.Overflows(scroll.AxisX) || el.Overflows(scroll.AxisY) {
			out = append(out, el)
		}
	}
	return out
}

// Walk visits every element of the document and its frames, parents first
func (d *Document) Walk(fn func(*Element)) {
	for _, el := range d.elements {
		fn(el)
		if el.frameDoc != nil {
			el.frameDoc.Walk(fn)
		}
	}
}

// Parent implements scroll.Element
func (e *Element) Parent() scroll.Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// ScrollSize implements scroll.Element
func (e *Element) ScrollSize(axis scroll.Axis) float64 {
	if axis == scroll.AxisX {
		return math.Max(e.w, e.contentW)
	}
	return math.Max(e.h, e.contentH)
}

// ClientSize implements scroll.Element
func (e *Element) ClientSize(axis scroll.Axis) float64 {
	if axis == scroll.AxisX {
		return e.w
	}
	return e.h
}

// ComputedOverflow implements scroll.Element
func (e *Element) ComputedOverflow(axis scroll.Axis) (scroll.Overflow, error) {
	if e.restricted {
		return "", scroll.ErrStyleAccessDenied
	}
	if axis == scroll.AxisX {
		return e.style.OverflowX, nil
	}
	return e.style.OverflowY, nil
}

// ScrollBy implements scroll.Element
// The page model has no smooth scrolling animation, every behavior lands immediately.
func (e *Element) ScrollBy(dx, dy float64, _ scroll.Behavior) {
	e.scrollX = clamp(e.scrollX+dx, 0, e.ScrollSize(scroll.AxisX)-e.w)
	e.scrollY = clamp(e.scrollY+dy, 0, e.ScrollSize(scroll.AxisY)-e.h)
}

// ScrollOffset returns the current scroll offset
func (e *Element) ScrollOffset() (x, y float64) {
	return e.scrollX, e.scrollY
}

// SetScrollOffset moves the element to an absolute offset, clamped
func (e *Element) SetScrollOffset(x, y float64) {
	e.scrollX = clamp(x, 0, e.ScrollSize(scroll.AxisX)-e.w)
	e.scrollY = clamp(y, 0, e.ScrollSize(scroll.AxisY)-e.h)
}

// Overflows reports whether the content exceeds the box on axis
func (e *Element) Overflows(axis scroll.Axis) bool {
	return e.ScrollSize(axis) > e.ClientSize(axis)
}

// Document returns the owning document
func (e *Element) Document() *Document {
	return e.doc
}

// FrameDocument returns the document inside an iframe element, or nil
func (e *Element) FrameDocument() *Document {
	return e.frameDoc
}

// Tag returns the element name
func (e *Element) Tag() string {
	return e.node.Data
}

// ID returns the id attribute
func (e *Element) ID() string {
	return htmlquery.SelectAttr(e.node, "id")
}

// Style returns the computed style
func (e *Element) Style() Style {
	return e.style
}

// String names the element for logs
func (e *Element) String() string {
	return XPath(e)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// XPath returns a stable XPath for el, anchored on the nearest id
func XPath(el *Element) string {
	if el == nil {
		return ""
	}

	var path []string
	for n := el.node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}

		if id := htmlquery.SelectAttr(n, "id"); id != "" {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, id))
			break
		}

		// XPath indices are 1-based
		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && prev.Data == n.Data {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", n.Data, index))
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//*[@id=") {
		xpath = "/" + xpath
	}
	return xpath
}

// ABOUTME: In-memory Element and Document fakes shared by the scroll package tests
// ABOUTME: Sizes and overflow values are set directly; ScrollBy records every call

package scroll

type scrollCall struct {
	dx, dy   float64
	behavior Behavior
}

type fakeElement struct {
	name   string
	parent *fakeElement

	scrollW, scrollH float64
	clientW, clientH float64
	overflowX        Overflow
	overflowY        Overflow
	styleErr         error

	// parentOverride makes Parent return an arbitrary element, for cycle tests
	parentOverride Element

	calls []scrollCall
}

func (e *fakeElement) Parent() Element {
	if e.parentOverride != nil {
		return e.parentOverride
	}
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *fakeElement) ScrollSize(axis Axis) float64 {
	if axis == AxisX {
		return e.scrollW
	}
	return e.scrollH
}

func (e *fakeElement) ClientSize(axis Axis) float64 {
	if axis == AxisX {
		return e.clientW
	}
	return e.clientH
}

func (e *fakeElement) ComputedOverflow(axis Axis) (Overflow, error) {
	if e.styleErr != nil {
		return "", e.styleErr
	}
	if axis == AxisX {
		return e.overflowX, nil
	}
	return e.overflowY, nil
}

func (e *fakeElement) ScrollBy(dx, dy float64, behavior Behavior) {
	e.calls = append(e.calls, scrollCall{dx: dx, dy: dy, behavior: behavior})
}

func (e *fakeElement) total() (dx, dy float64) {
	for _, c := range e.calls {
		dx += c.dx
		dy += c.dy
	}
	return dx, dy
}

type fakeDoc struct {
	root, body *fakeElement
	frame      bool
	host       string
	fullscreen bool
	queries    map[string]*fakeElement
	frames     map[Document]*fakeElement
}

func (d *fakeDoc) Root() Element { return d.root }

func (d *fakeDoc) Body() Element {
	if d.body == nil {
		return nil
	}
	return d.body
}

func (d *fakeDoc) ScrollingElement() Element { return d.root }
func (d *fakeDoc) IsFrame() bool             { return d.frame }
func (d *fakeDoc) Host() string              { return d.host }
func (d *fakeDoc) Fullscreen() bool          { return d.fullscreen }

func (d *fakeDoc) Query(_ Element, xpath string) (Element, error) {
	if el, ok := d.queries[xpath]; ok {
		return el, nil
	}
	return nil, nil
}

func (d *fakeDoc) FrameElement(source Document) Element {
	if el, ok := d.frames[source]; ok {
		return el
	}
	return nil
}

// page is a typical document: a tall viewport-scrolling body holding a
// fixed-height scrollable panel with a line of text inside it
type page struct {
	doc   *fakeDoc
	html  *fakeElement
	body  *fakeElement
	panel *fakeElement
	text  *fakeElement
	para  *fakeElement
}

func newPage(host string) *page {
	html := &fakeElement{
		name:    "html",
		scrollW: 800, scrollH: 2000,
		clientW: 800, clientH: 600,
		overflowX: OverflowVisible, overflowY: OverflowVisible,
	}
	body := &fakeElement{
		name: "body", parent: html,
		scrollW: 800, scrollH: 2000,
		clientW: 800, clientH: 2000,
		overflowX: OverflowVisible, overflowY: OverflowVisible,
	}
	panel := &fakeElement{
		name: "panel", parent: body,
		scrollW: 400, scrollH: 1000,
		clientW: 400, clientH: 200,
		overflowX: OverflowAuto, overflowY: OverflowAuto,
	}
	text := &fakeElement{
		name: "text", parent: panel,
		scrollW: 400, scrollH: 16,
		clientW: 400, clientH: 16,
		overflowX: OverflowVisible, overflowY: OverflowVisible,
	}
	para := &fakeElement{
		name: "para", parent: body,
		scrollW: 800, scrollH: 48,
		clientW: 800, clientH: 48,
		overflowX: OverflowVisible, overflowY: OverflowVisible,
	}

	return &page{
		doc:   &fakeDoc{root: html, body: body, host: host},
		html:  html,
		body:  body,
		panel: panel,
		text:  text,
		para:  para,
	}
}

// ABOUTME: Tests for hit testing and character-cell painting
// ABOUTME: Uses a 10x4 cell viewport so whole canvases can be compared as text

package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paintPage = `<html><body>
<p id="hi">hi</p>
<div id="box" style="overflow-y: scroll; height: 32px"><p id="a">a</p><p id="b">b</p><p id="c">c</p></div>
<div id="filler" style="height: 100px"></div>
</body></html>`

func smallViewport() Options {
	return Options{Viewport: Size{Width: 10 * CellWidth, Height: 4 * CellHeight}}
}

func TestPaint(t *testing.T) {
	doc := parseTest(t, paintPage, smallViewport())
	canvas := NewCanvas(10, 4)

	doc.Paint(canvas)
	want := strings.Join([]string{
		"hi       █",
		"a        █",
		"b        │",
		"         │",
	}, "\n") + "\n"
	assert.Equal(t, want, canvas.String())

	assert.Equal(t, CellText, canvas.At(0, 0).Kind)
	assert.Equal(t, CellScrollThumb, canvas.At(9, 1).Kind)
	assert.Equal(t, CellScrollTrack, canvas.At(9, 3).Kind)
	assert.Equal(t, CellEmpty, canvas.At(4, 3).Kind)

	find(t, doc, "//*[@id='box']").ScrollBy(0, 16, 0)
	doc.Paint(canvas)
	want = strings.Join([]string{
		"hi       █",
		"b        │",
		"c        █",
		"         │",
	}, "\n") + "\n"
	assert.Equal(t, want, canvas.String())
}

func TestPaintFollowsRootScroll(t *testing.T) {
	doc := parseTest(t, paintPage, smallViewport())
	canvas := NewCanvas(10, 4)

	doc.RootElement().ScrollBy(0, 16, 0)
	doc.Paint(canvas)

	assert.Equal(t, 'a', canvas.At(0, 0).Ch)
	assert.Equal(t, 'b', canvas.At(0, 1).Ch)
	assert.Equal(t, ' ', canvas.At(0, 2).Ch, "box content below its box is clipped")
}

func TestElementAt(t *testing.T) {
	tests := []struct {
		name   string
		scroll float64
		x, y   float64
		want   string
	}{
		{name: "plain text", x: 4, y: 4, want: "hi"},
		{name: "inside scroll box", x: 4, y: 20, want: "a"},
		{name: "scroll box moves its content", scroll: 16, x: 4, y: 20, want: "b"},
		{name: "clipped content is not hit", x: 4, y: 52, want: "filler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseTest(t, paintPage, smallViewport())
			find(t, doc, "//*[@id='box']").ScrollBy(0, tt.scroll, 0)

			el := doc.ElementAt(tt.x, tt.y)
			require.NotNil(t, el)
			assert.Equal(t, tt.want, el.ID())
		})
	}

	doc := parseTest(t, paintPage, smallViewport())
	assert.Nil(t, doc.ElementAt(100, 0))
	assert.Nil(t, doc.ElementAt(-1, 0))
}

func TestElementAtAndPaintInsideFrame(t *testing.T) {
	page := `<html><body><iframe style="height: 32px" srcdoc="&lt;p id=&quot;in&quot;&gt;x&lt;/p&gt;"></iframe><p id="out">y</p></body></html>`
	doc := parseTest(t, page, smallViewport())

	el := doc.ElementAt(4, 4)
	require.NotNil(t, el)
	assert.Equal(t, "in", el.ID())
	assert.True(t, el.Document().IsFrame())

	el = doc.ElementAt(4, 36)
	require.NotNil(t, el)
	assert.Equal(t, "out", el.ID())

	canvas := NewCanvas(10, 4)
	doc.Paint(canvas)
	assert.Equal(t, Cell{Ch: 'x', Kind: CellText, Frame: 1}, canvas.At(0, 0))
	assert.Equal(t, Cell{Ch: 'y', Kind: CellText}, canvas.At(0, 2))
}

func TestCanvasBounds(t *testing.T) {
	c := NewCanvas(-1, 2)
	assert.Equal(t, 0, c.Cols)
	assert.Nil(t, c.Row(5))
	assert.Equal(t, Cell{Ch: ' '}, c.At(3, 3))
}

func TestRectIntersect(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	assert.Equal(t, Rect{X: 5, Y: 5, W: 5, H: 5}, a.Intersect(Rect{X: 5, Y: 5, W: 10, H: 10}))
	assert.True(t, a.Intersect(Rect{X: 20, Y: 0, W: 5, H: 5}).Empty())
	assert.True(t, a.Contains(0, 9.5))
	assert.False(t, a.Contains(10, 0))
}

// ABOUTME: Block layout for the page model: children stack vertically, text wraps in fixed cells
// ABOUTME: Visible overflow of a child contributes to its parent's scrollable extent

package dom

import (
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"scrollspeed/scroll"
)

// Resize lays the document out again for a new viewport; scroll offsets are kept where possible
func (d *Document) Resize(viewport Size) {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		return
	}
	d.viewport = viewport
	d.layout()
}

func (d *Document) layout() {
	root := d.root
	root.x, root.y = 0, 0
	root.w, root.h = d.viewport.Width, d.viewport.Height
	root.contentW, root.contentH = d.layoutContent(root)

	for _, el := range d.elements {
		el.SetScrollOffset(el.scrollX, el.scrollY)
	}
}

// layoutBox sizes el inside a containing block of width availW
func (d *Document) layoutBox(el *Element, availW float64) {
	el.w = availW
	if v, ok := el.style.width.resolve(availW); ok {
		el.w = v
	}

	if el.node.Data == "iframe" {
		el.h = DefaultFrameHeight
		if v, ok := el.style.height.resolve(d.viewport.Height); ok {
			el.h = v
		}
		el.contentW, el.contentH = el.w, el.h
		if el.frameDoc != nil {
			el.frameDoc.viewport = Size{Width: el.w, Height: el.h}
			el.frameDoc.layout()
		}
		return
	}

	el.contentW, el.contentH = d.layoutContent(el)

	el.h = el.contentH
	// Percent heights resolve against the viewport
	if v, ok := el.style.height.resolve(d.viewport.Height); ok {
		el.h = v
	}
}

// layoutContent places text and child boxes of el and returns the content extent
func (d *Document) layoutContent(el *Element) (w, h float64) {
	el.texts = el.texts[:0]
	y := 0.0

	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			lines := wrapText(c.Data, el.w, el.style.WhiteSpace)
			if len(lines) == 0 {
				continue
			}
			el.texts = append(el.texts, textBlock{y: y, lines: lines})
			for _, line := range lines {
				w = math.Max(w, float64(utf8.RuneCountInString(line))*CellWidth)
			}
			y += float64(len(lines)) * CellHeight
			h = math.Max(h, y)

		case html.ElementNode:
			child := d.byNode[c]
			if child == nil || child.parent != el {
				continue
			}
			child.x, child.y = 0, y
			d.layoutBox(child, el.w)
			y += child.h

			extentW, extentH := child.w, child.h
			if child.style.OverflowX == scroll.OverflowVisible {
				extentW = child.ScrollSize(scroll.AxisX)
			}
			if child.style.OverflowY == scroll.OverflowVisible {
				extentH = child.ScrollSize(scroll.AxisY)
			}
			w = math.Max(w, child.x+extentW)
			h = math.Max(h, math.Max(y, child.y+extentH))
		}
	}

	return w, h
}

// wrapText breaks text into lines that fit width at CellWidth per rune
func wrapText(text string, width float64, ws WhiteSpace) []string {
	switch ws {
	case WhiteSpacePre:
		text = strings.ReplaceAll(text, "\t", "    ")
		lines := strings.Split(text, "\n")
		if n := len(lines); n > 1 && lines[n-1] == "" {
			lines = lines[:n-1]
		}
		return lines

	case WhiteSpaceNowrap:
		words := strings.Fields(text)
		if len(words) == 0 {
			return nil
		}
		return []string{strings.Join(words, " ")}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	cols := int(width / CellWidth)
	if cols < 1 {
		cols = 1
	}

	var lines []string
	var line []rune
	for _, word := range words {
		runes := []rune(word)

		if len(line) > 0 && len(line)+1+len(runes) > cols {
			lines = append(lines, string(line))
			line = line[:0]
		}
		if len(line) > 0 {
			line = append(line, ' ')
		}

		// Words longer than a line are broken at the edge
		for len(line)+len(runes) > cols {
			take := cols - len(line)
			line = append(line, runes[:take]...)
			lines = append(lines, string(line))
			line = line[:0]
			runes = runes[take:]
		}
		line = append(line, runes...)
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}

	return lines
}

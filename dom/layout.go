package dom

import (
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"typewise/render"
)

// Rect is a screen rectangle in terminal cells, right and bottom exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns the horizontal extent.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Union returns the smallest rectangle covering r and o. Empty rectangles
// are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

const (
	defaultInputSize    = 20
	defaultTextareaCols = 20
	defaultTextareaRows = 2
)

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Ul: true,
}

var skippedElements = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Template: true,
	atom.Noscript: true, atom.Title: true, atom.Select: true, atom.Datalist: true,
}

// layout places every visible glyph of the page on a grid of the
// document's width. Whitespace occupies cells but leaves no ink, so its
// glyph rectangles are empty.
type layout struct {
	width  int
	x, y   int
	space  bool // last placed glyph was collapsible white space
	glyphs map[*html.Node][]Rect
	boxes  map[*html.Node]Rect
}

func (d *Document) layout() *layout {
	l := &layout{
		width:  d.width,
		space:  true,
		glyphs: make(map[*html.Node][]Rect),
		boxes:  make(map[*html.Node]Rect),
	}
	l.walk(d.root, false)
	return l
}

func (l *layout) newline() {
	if l.x > 0 {
		l.x = 0
		l.y++
	}
	l.space = true
}

func (l *layout) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		l.text(n, pre)
		return
	case html.ElementNode:
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			l.walk(c, pre)
		}
		return
	default:
		return
	}

	if skippedElements[n.DataAtom] || hasAttr(n, "hidden") {
		return
	}

	switch n.DataAtom {
	case atom.Br:
		l.x = 0
		l.y++
		l.space = true
		return
	case atom.Input:
		if InputType(n) == "hidden" {
			return
		}
		w := intAttr(n, "size", defaultInputSize) + 2
		if l.x > 0 && l.x+w > l.width {
			l.newline()
		}
		l.boxes[n] = Rect{Left: l.x, Top: l.y, Right: l.x + w, Bottom: l.y + 1}
		l.x += w
		l.space = false
		return
	case atom.Textarea:
		l.newline()
		cols := intAttr(n, "cols", defaultTextareaCols) + 2
		rows := intAttr(n, "rows", defaultTextareaRows)
		l.boxes[n] = Rect{Left: 0, Top: l.y, Right: cols, Bottom: l.y + rows}
		l.y += rows
		l.space = true
		return
	}

	block := blockElements[n.DataAtom]
	if block {
		l.newline()
	}
	inPre := pre || n.DataAtom == atom.Pre
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		l.walk(c, inPre)
	}
	if block {
		l.newline()
	}
}

func (l *layout) text(n *html.Node, pre bool) {
	runes := []rune(n.Data)
	rects := make([]Rect, len(runes))

	for i, r := range runes {
		if unicode.IsSpace(r) {
			rects[i] = Rect{Left: l.x, Top: l.y, Right: l.x, Bottom: l.y + 1}
			switch {
			case pre && r == '\n':
				l.x = 0
				l.y++
			case pre:
				l.x++
			case !l.space:
				l.x++
				l.space = true
			}
			continue
		}

		if l.space && l.x > 0 && l.x+wordWidth(runes[i:]) > l.width {
			l.newline()
		}
		w := render.UnicodeWidth(r)
		if l.x+w > l.width {
			l.newline()
		}
		rects[i] = Rect{Left: l.x, Top: l.y, Right: l.x + w, Bottom: l.y + 1}
		l.x += w
		l.space = false
	}
	l.glyphs[n] = rects
}

func wordWidth(runes []rune) int {
	w := 0
	for _, r := range runes {
		if unicode.IsSpace(r) {
			break
		}
		w += render.UnicodeWidth(r)
	}
	return w
}

// BoundingRect returns the screen rectangle covering n's rendered content.
// Form controls report their box. Nodes with nothing visible, or that are
// detached, report an empty rectangle.
func (d *Document) BoundingRect(n *html.Node) Rect {
	if !d.Contains(n) {
		return Rect{}
	}
	l := d.layout()
	var out Rect
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if box, ok := l.boxes[n]; ok {
			out = out.Union(box)
			return
		}
		for _, g := range l.glyphs[n] {
			out = out.Union(g)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// RangeRect returns the rectangle covering the inked glyphs and form
// control boxes inside r.
func (d *Document) RangeRect(r *Range) Rect {
	if r == nil || !r.Valid(d) {
		return Rect{}
	}
	l := d.layout()
	var out Rect
	r.eachText(func(n *html.Node, _ []rune, start, end int) {
		glyphs := l.glyphs[n]
		for i := start; i < end && i < len(glyphs); i++ {
			out = out.Union(glyphs[i])
		}
	})
	for n, box := range l.boxes {
		if isInclusiveAncestor(r.CommonAncestor(), n) && r.containsNode(n) {
			out = out.Union(box)
		}
	}
	return out
}

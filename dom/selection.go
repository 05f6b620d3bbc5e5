package dom

import (
	"fmt"

	"golang.org/x/net/html"
)

// Selection is the page selection. It holds at most one range, and the
// range it hands out is live: later selection changes modify it in place.
type Selection struct {
	doc *Document
	rng *Range
}

// Selection returns the page selection.
func (d *Document) Selection() *Selection {
	return d.selection
}

// RangeCount returns 0 or 1.
func (s *Selection) RangeCount() int {
	if s.rng == nil {
		return 0
	}
	return 1
}

// RangeAt returns the live range at index i, or nil.
func (s *Selection) RangeAt(i int) *Range {
	if i != 0 {
		return nil
	}
	return s.rng
}

// AddRange adds r to the selection. Like browsers that support a single
// range, it is ignored when a range is already selected.
func (s *Selection) AddRange(r *Range) {
	if s.rng != nil || r == nil {
		return
	}
	s.rng = r
}

// RemoveAllRanges clears the selection.
func (s *Selection) RemoveAllRanges() {
	s.rng = nil
}

// IsCollapsed reports whether nothing is selected.
func (s *Selection) IsCollapsed() bool {
	return s.rng == nil || s.rng.Collapsed()
}

// String returns the selected text.
func (s *Selection) String() string {
	if s.rng == nil {
		return ""
	}
	return s.rng.String()
}

// Collapse places a caret at b, reusing the current range when there is
// one.
func (s *Selection) Collapse(b Boundary) {
	if s.rng == nil {
		s.rng = &Range{Start: b, End: b}
		return
	}
	s.rng.Start, s.rng.End = b, b
}

// CollapseToEnd moves the caret to the end of the current range.
func (s *Selection) CollapseToEnd() {
	if s.rng != nil {
		s.rng.Collapse(false)
	}
}

// Select replaces the selection with r.
func (d *Document) Select(r *Range) {
	d.selection.RemoveAllRanges()
	d.selection.AddRange(r)
}

// SelectText selects the characters [start, end) of n's text content,
// counting runes across its descendant text nodes.
func (d *Document) SelectText(n *html.Node, start, end int) error {
	if start < 0 || end < start {
		return fmt.Errorf("select text: invalid range [%d, %d)", start, end)
	}
	var texts []*html.Node
	collectText(n, &texts)

	total := 0
	for _, t := range texts {
		total += nodeLength(t)
	}
	if end > total {
		return fmt.Errorf("select text: range [%d, %d) exceeds %d characters", start, end, total)
	}

	d.Select(NewRange(locate(n, texts, start, true), locate(n, texts, end, false)))
	return nil
}

func collectText(n *html.Node, out *[]*html.Node) {
	if n.Type == html.TextNode {
		*out = append(*out, n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, out)
	}
}

// locate maps a text offset to a boundary. At a node seam a start
// boundary goes to the following node and an end boundary stays in the
// preceding one.
func locate(host *html.Node, texts []*html.Node, offset int, isStart bool) Boundary {
	if len(texts) == 0 {
		return Boundary{Node: host}
	}
	cum := 0
	for _, t := range texts {
		l := nodeLength(t)
		if (isStart && offset < cum+l) || (!isStart && offset <= cum+l) {
			if offset >= cum {
				return Boundary{Node: t, Offset: offset - cum}
			}
		}
		cum += l
	}
	last := texts[len(texts)-1]
	return Boundary{Node: last, Offset: nodeLength(last)}
}

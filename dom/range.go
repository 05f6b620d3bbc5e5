package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Boundary is a point in the tree. For text nodes Offset counts runes,
// for other nodes it counts children.
type Boundary struct {
	Node   *html.Node
	Offset int
}

// Range is a contiguous span between two boundaries.
type Range struct {
	Start Boundary
	End   Boundary
}

// NewRange returns a range over [start, end).
func NewRange(start, end Boundary) *Range {
	return &Range{Start: start, End: end}
}

// Clone returns an independent copy of r.
func (r *Range) Clone() *Range {
	c := *r
	return &c
}

// Collapsed reports whether the range is empty.
func (r *Range) Collapsed() bool {
	return r.Start == r.End
}

// Collapse moves both boundaries to the start or end.
func (r *Range) Collapse(toStart bool) {
	if toStart {
		r.End = r.Start
	} else {
		r.Start = r.End
	}
}

// SetStartAfter places the start just after n. An end that would precede
// the new start collapses onto it.
func (r *Range) SetStartAfter(n *html.Node) error {
	if n.Parent == nil {
		return fmt.Errorf("set start after detached node")
	}
	r.Start = Boundary{Node: n.Parent, Offset: childIndex(n) + 1}
	if comparePoints(r.Start, r.End) > 0 {
		r.End = r.Start
	}
	return nil
}

// Valid reports whether both boundaries are attached to d, their offsets
// fit their nodes and start does not come after end.
func (r *Range) Valid(d *Document) bool {
	for _, b := range []Boundary{r.Start, r.End} {
		if !d.Contains(b.Node) || b.Offset < 0 || b.Offset > nodeLength(b.Node) {
			return false
		}
	}
	return comparePoints(r.Start, r.End) <= 0
}

// CommonAncestor returns the deepest node containing both boundaries.
func (r *Range) CommonAncestor() *html.Node {
	for a := r.Start.Node; a != nil; a = a.Parent {
		if isInclusiveAncestor(a, r.End.Node) {
			return a
		}
	}
	return nil
}

// String returns the text covered by the range.
func (r *Range) String() string {
	var sb strings.Builder
	r.eachText(func(n *html.Node, runes []rune, start, end int) {
		sb.WriteString(string(runes[start:end]))
	})
	return sb.String()
}

// eachText calls fn for every text node overlapping the range with the
// covered rune interval.
func (r *Range) eachText(fn func(n *html.Node, runes []rune, start, end int)) {
	ca := r.CommonAncestor()
	if ca == nil {
		return
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			runes := []rune(n.Data)
			start, end := 0, len(runes)
			if n == r.Start.Node {
				start = r.Start.Offset
			} else if comparePoints(Boundary{Node: n}, r.Start) < 0 {
				return
			}
			if n == r.End.Node {
				end = r.End.Offset
			} else if comparePoints(Boundary{Node: n}, r.End) >= 0 {
				return
			}
			start, end = clampInt(start, 0, len(runes)), clampInt(end, 0, len(runes))
			if start < end {
				fn(n, runes, start, end)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(ca)
}

// containsNode reports whether n lies entirely inside the range.
func (r *Range) containsNode(n *html.Node) bool {
	return comparePoints(Boundary{Node: n}, r.Start) > 0 &&
		comparePoints(Boundary{Node: n, Offset: nodeLength(n)}, r.End) < 0
}

// DeleteContents removes the covered content and collapses the range to
// where it was.
func (r *Range) DeleteContents() {
	if r.Collapsed() {
		return
	}
	start, end := r.Start, r.End

	if start.Node == end.Node && start.Node.Type == html.TextNode {
		replaceText(start.Node, start.Offset, end.Offset, "")
		r.End = r.Start
		return
	}

	var contained []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if r.containsNode(c) {
				contained = append(contained, c)
				continue
			}
			walk(c)
		}
	}
	walk(r.CommonAncestor())

	// Where the collapsed range ends up: the start itself when it contains
	// the end, otherwise just after the start's partially covered branch.
	var ref *html.Node
	if !isInclusiveAncestor(start.Node, end.Node) {
		ref = start.Node
		for ref.Parent != nil && !isInclusiveAncestor(ref.Parent, end.Node) {
			ref = ref.Parent
		}
	}

	if start.Node.Type == html.TextNode {
		replaceText(start.Node, start.Offset, nodeLength(start.Node), "")
	}
	for _, n := range contained {
		n.Parent.RemoveChild(n)
	}
	if end.Node.Type == html.TextNode {
		replaceText(end.Node, 0, end.Offset, "")
	}

	point := start
	if ref != nil {
		point = Boundary{Node: ref.Parent, Offset: childIndex(ref) + 1}
	}
	r.Start, r.End = point, point
}

// InsertNode inserts n at the start of the range, splitting a text node if
// the start falls inside one. A collapsed range grows to cover n.
func (r *Range) InsertNode(n *html.Node) error {
	if n.Parent != nil {
		return fmt.Errorf("insert node: node already attached")
	}
	collapsed := r.Collapsed()
	start := r.Start

	var parent *html.Node
	if start.Node.Type == html.TextNode {
		parent = start.Node.Parent
		if parent == nil {
			return fmt.Errorf("insert node: text node is detached")
		}
		runes := []rune(start.Node.Data)
		switch {
		case start.Offset <= 0:
			parent.InsertBefore(n, start.Node)
		case start.Offset >= len(runes):
			parent.InsertBefore(n, start.Node.NextSibling)
		default:
			tail := &html.Node{Type: html.TextNode, Data: string(runes[start.Offset:])}
			start.Node.Data = string(runes[:start.Offset])
			parent.InsertBefore(tail, start.Node.NextSibling)
			parent.InsertBefore(n, tail)
			if r.End.Node == start.Node && r.End.Offset > start.Offset {
				r.End = Boundary{Node: tail, Offset: r.End.Offset - start.Offset}
			}
		}
	} else {
		parent = start.Node
		parent.InsertBefore(n, childAt(parent, start.Offset))
	}

	idx := childIndex(n)
	if !collapsed && r.End.Node == parent && r.End.Offset > idx {
		r.End.Offset++
	}
	if collapsed {
		r.End = Boundary{Node: parent, Offset: idx + 1}
	}
	return nil
}

func replaceText(n *html.Node, start, end int, s string) {
	runes := []rune(n.Data)
	start, end = clampInt(start, 0, len(runes)), clampInt(end, 0, len(runes))
	n.Data = string(runes[:start]) + s + string(runes[end:])
}

func nodeLength(n *html.Node) int {
	switch n.Type {
	case html.TextNode, html.CommentNode:
		return len([]rune(n.Data))
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func childIndex(n *html.Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

func childAt(n *html.Node, i int) *html.Node {
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

func isInclusiveAncestor(a, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == a {
			return true
		}
	}
	return false
}

// indexPath lists child indexes from the root down to b, followed by the
// boundary offset.
func indexPath(b Boundary) []int {
	var path []int
	for cur := b.Node; cur != nil && cur.Parent != nil; cur = cur.Parent {
		path = append(path, childIndex(cur))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return append(path, b.Offset)
}

// comparePoints orders boundaries in document order.
func comparePoints(a, b Boundary) int {
	if a.Node == b.Node {
		return compareInt(a.Offset, b.Offset)
	}
	pa, pb := indexPath(a), indexPath(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if c := compareInt(pa[i], pb[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(pa), len(pb))
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

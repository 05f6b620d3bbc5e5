// Package selection captures the user's text selection from an editable
// surface and later writes a replacement back into exactly that spot.
package selection

import (
	"golang.org/x/net/html"

	"typewise/dom"
)

// Kind tells which addressing a snapshot uses.
type Kind int

const (
	// KindOffsetRange addresses rune offsets in a text control value.
	KindOffsetRange Kind = iota + 1
	// KindDOMRange addresses a range in a contenteditable region.
	KindDOMRange
)

func (k Kind) String() string {
	switch k {
	case KindOffsetRange:
		return "offsetRange"
	case KindDOMRange:
		return "domRange"
	default:
		return "unknown"
	}
}

// Snapshot is one captured selection. It does not change after capture.
type Snapshot struct {
	kind   Kind
	source *html.Node
	text   string
	start  int
	end    int
	rng    *dom.Range
	rect   dom.Rect
}

// Kind returns the addressing variant.
func (s *Snapshot) Kind() Kind { return s.kind }

// Source returns the element the selection belongs to: the text control,
// or the nearest content-editable element.
func (s *Snapshot) Source() *html.Node { return s.source }

// Text returns the captured text.
func (s *Snapshot) Text() string { return s.text }

// Offsets returns the captured rune offsets. Only meaningful for
// KindOffsetRange.
func (s *Snapshot) Offsets() (start, end int) { return s.start, s.end }

// Range returns a copy of the captured range, or nil for offset ranges.
func (s *Snapshot) Range() *dom.Range {
	if s.rng == nil {
		return nil
	}
	return s.rng.Clone()
}

// AnchorRect returns where the selection was on screen at capture time.
func (s *Snapshot) AnchorRect() dom.Rect { return s.rect }

package selection

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/net/html"

	"typewise/dom"
	"typewise/lineedit"
)

var (
	ErrNoSelection       = errors.New("no text selected")
	ErrNotEditable       = errors.New("selection is not in an editable field")
	ErrNothingPending    = errors.New("no pending replacement")
	ErrReplacementFailed = errors.New("replacement failed")
)

// Engine captures selections on one document and applies replacements to
// them. It holds at most one pending snapshot. Not safe for concurrent use.
type Engine struct {
	doc     *dom.Document
	pending *Snapshot
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for capture and apply diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine for doc.
func New(doc *dom.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:    doc,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pending returns the snapshot awaiting Apply, or nil.
func (e *Engine) Pending() *Snapshot {
	return e.pending
}

// Discard drops the pending snapshot.
func (e *Engine) Discard() {
	e.pending = nil
}

// Capture snapshots the current selection: the native selection of a
// focused text control, otherwise the page selection inside a
// content-editable region. Any previous pending snapshot is dropped, even
// when capture fails.
func (e *Engine) Capture() (*Snapshot, error) {
	e.pending = nil

	var (
		s   *Snapshot
		err error
	)
	if active := e.doc.ActiveElement(); e.doc.IsTextControl(active) {
		s, err = e.captureControl(active)
	} else {
		s, err = e.captureRange()
	}
	if err != nil {
		e.logger.Debug("capture failed", "error", err)
		return nil, err
	}

	e.pending = s
	e.logger.Debug("captured selection", "kind", s.kind, "length", len([]rune(s.text)))
	return s, nil
}

func (e *Engine) captureControl(el *html.Node) (*Snapshot, error) {
	start, end, ok := e.doc.SelectionRange(el)
	if !ok || start == end {
		return nil, ErrNoSelection
	}
	return &Snapshot{
		kind:   KindOffsetRange,
		source: el,
		text:   e.doc.Control(el).SelectedText(),
		start:  start,
		end:    end,
		rect:   e.doc.BoundingRect(el),
	}, nil
}

func (e *Engine) captureRange() (*Snapshot, error) {
	sel := e.doc.Selection()
	if sel.RangeCount() == 0 || sel.IsCollapsed() {
		return nil, ErrNoSelection
	}

	rng := sel.RangeAt(0).Clone()
	host := dom.EditableElement(rng.CommonAncestor())
	if host == nil {
		return nil, ErrNotEditable
	}

	s := &Snapshot{
		kind:   KindDOMRange,
		source: host,
		text:   rng.String(),
		rng:    rng,
	}
	s.rect = e.Rect(s)
	return s, nil
}

// Rect returns the screen rectangle for anchoring UI next to s. DOM
// ranges with no visible ink fall back to their editable element.
func (e *Engine) Rect(s *Snapshot) dom.Rect {
	switch s.kind {
	case KindOffsetRange:
		return e.doc.BoundingRect(s.source)
	case KindDOMRange:
		if r := e.doc.RangeRect(s.rng); !r.Empty() {
			return r
		}
		return e.doc.BoundingRect(s.source)
	}
	return dom.Rect{}
}

// Apply replaces the pending snapshot's text with text, then fires input
// and change events on the source element. The snapshot is consumed on
// success. If the source is gone the document is left untouched and the
// snapshot stays pending.
func (e *Engine) Apply(text string) error {
	s := e.pending
	if s == nil {
		return ErrNothingPending
	}

	var err error
	switch s.kind {
	case KindOffsetRange:
		err = e.applyControl(s, text)
	case KindDOMRange:
		err = e.applyRange(s, text)
	default:
		err = fmt.Errorf("%w: unknown snapshot kind %d", ErrReplacementFailed, s.kind)
	}
	if err != nil {
		e.logger.Debug("apply failed", "kind", s.kind, "error", err)
		return err
	}

	e.pending = nil
	e.doc.Dispatch(s.source, "input", true)
	e.doc.Dispatch(s.source, "change", true)
	e.logger.Debug("applied replacement", "kind", s.kind, "length", len([]rune(text)))
	return nil
}

func (e *Engine) applyControl(s *Snapshot, text string) error {
	if !e.doc.Contains(s.source) {
		return fmt.Errorf("%w: field is no longer on the page", ErrReplacementFailed)
	}
	ed := e.doc.Control(s.source)
	if ed == nil || s.end > ed.Len() {
		return fmt.Errorf("%w: field value changed", ErrReplacementFailed)
	}

	e.doc.Focus(s.source)
	ed.SetSelectionRange(s.start, s.end)
	ed.SetRangeText(text, s.start, s.end, lineedit.SelectEnd)
	return nil
}

func (e *Engine) applyRange(s *Snapshot, text string) error {
	if !e.doc.Contains(s.source) {
		return fmt.Errorf("%w: editable region is no longer on the page", ErrReplacementFailed)
	}
	if !s.rng.Valid(e.doc) {
		return fmt.Errorf("%w: selected text is no longer on the page", ErrReplacementFailed)
	}
	// Boundaries are fixed offsets; edits around them shift what they cover.
	if s.rng.String() != s.text {
		return fmt.Errorf("%w: selected text changed", ErrReplacementFailed)
	}

	rng := s.rng.Clone()
	sel := e.doc.Selection()
	sel.RemoveAllRanges()
	sel.AddRange(rng)

	rng.DeleteContents()
	node := e.doc.CreateTextNode(text)
	if err := rng.InsertNode(node); err != nil {
		return fmt.Errorf("%w: %v", ErrReplacementFailed, err)
	}

	after := dom.NewRange(rng.Start, rng.Start)
	if err := after.SetStartAfter(node); err != nil {
		return fmt.Errorf("%w: %v", ErrReplacementFailed, err)
	}
	after.Collapse(true)
	sel.RemoveAllRanges()
	sel.AddRange(after)
	return nil
}

package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"typewise/lineedit"
)

// Input types whose value is free text.
var textInputTypes = map[string]bool{
	"text":     true,
	"search":   true,
	"email":    true,
	"url":      true,
	"tel":      true,
	"password": true,
}

// Input types that expose selectionStart/selectionEnd. Email inputs hold
// text but report no selection.
var selectableInputTypes = map[string]bool{
	"text":     true,
	"search":   true,
	"url":      true,
	"tel":      true,
	"password": true,
}

var knownInputTypes = map[string]bool{
	"hidden": true, "text": true, "search": true, "tel": true, "url": true,
	"email": true, "password": true, "date": true, "month": true, "week": true,
	"time": true, "datetime-local": true, "number": true, "range": true,
	"color": true, "checkbox": true, "radio": true, "file": true,
	"submit": true, "image": true, "reset": true, "button": true,
}

// InputType returns the normalized type of an input element. Missing or
// unknown types are "text".
func InputType(n *html.Node) string {
	t, _ := Attr(n, "type")
	t = strings.ToLower(strings.TrimSpace(t))
	if !knownInputTypes[t] {
		return "text"
	}
	return t
}

// IsTextControl reports whether n is an enabled, writable textarea or
// text-like input.
func (d *Document) IsTextControl(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Textarea:
	case atom.Input:
		if !textInputTypes[InputType(n)] {
			return false
		}
	default:
		return false
	}
	return !hasAttr(n, "disabled") && !hasAttr(n, "readonly")
}

func isValueControl(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom == atom.Textarea {
		return true
	}
	return n.DataAtom == atom.Input && textInputTypes[InputType(n)]
}

// Control returns the value buffer of a textarea or text-like input, or
// nil for any other node. The buffer starts from the markup value.
func (d *Document) Control(n *html.Node) *lineedit.Editor {
	if !isValueControl(n) {
		return nil
	}
	if ed, ok := d.controls[n]; ok {
		return ed
	}

	ed := lineedit.New()
	if n.DataAtom == atom.Textarea {
		ed.Set(TextContent(n))
	} else {
		v, _ := Attr(n, "value")
		ed.Set(strings.NewReplacer("\r", "", "\n", "").Replace(v))
	}
	ed.SetCursor(0)
	ed.ClearHistory()
	d.controls[n] = ed
	return ed
}

// SelectionRange returns a control's selection offsets. ok is false when
// n is not a control or its type has no selection API.
func (d *Document) SelectionRange(n *html.Node) (start, end int, ok bool) {
	if !isValueControl(n) {
		return 0, 0, false
	}
	if n.DataAtom == atom.Input && !selectableInputTypes[InputType(n)] {
		return 0, 0, false
	}
	start, end = d.Control(n).Selection()
	return start, end, true
}

// SetValue replaces a control's value, leaving the cursor at the end.
func (d *Document) SetValue(n *html.Node, value string) {
	if ed := d.Control(n); ed != nil {
		ed.Set(value)
	}
}

// Undo reverts the last edit to a control's value and fires a bubbling
// input event. It reports whether there was an edit to revert.
func (d *Document) Undo(n *html.Node) bool {
	ed := d.Control(n)
	if ed == nil || !ed.Undo() {
		return false
	}
	d.Dispatch(n, "input", true)
	return true
}

// Redo reapplies the last undone edit to a control's value.
func (d *Document) Redo(n *html.Node) bool {
	ed := d.Control(n)
	if ed == nil || !ed.Redo() {
		return false
	}
	d.Dispatch(n, "input", true)
	return true
}

// Focus makes n the active element.
func (d *Document) Focus(n *html.Node) {
	d.active = n
}

// Blur clears focus.
func (d *Document) Blur() {
	d.active = nil
}

// ActiveElement returns the focused element. When nothing attached has
// focus the body is active.
func (d *Document) ActiveElement() *html.Node {
	if d.active != nil && d.Contains(d.active) {
		return d.active
	}
	return d.Body()
}

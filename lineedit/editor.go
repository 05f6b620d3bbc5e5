// Package lineedit provides the text buffer behind form text controls:
// a rune-addressed value with a native selection and undo history.
package lineedit

// SelectMode controls where the selection lands after SetRangeText.
type SelectMode int

const (
	// SelectPreserve keeps the selection, adjusted for the replaced range.
	SelectPreserve SelectMode = iota
	// SelectStart collapses the selection to the start of the inserted text.
	SelectStart
	// SelectEnd collapses the selection to just after the inserted text.
	SelectEnd
	// SelectAll selects the inserted text.
	SelectAll
)

// editorState represents a snapshot of editor state for undo.
type editorState struct {
	text     []rune
	selStart int
	selEnd   int
}

// Editor is a text control value with a selection.
// Offsets are rune indexes; selStart <= selEnd always holds and the cursor
// sits at selEnd.
type Editor struct {
	text        []rune
	selStart    int
	selEnd      int
	history     []editorState // Undo history stack
	redoHistory []editorState // Redo history stack
}

// New creates a new empty Editor.
func New() *Editor {
	return &Editor{}
}

// Text returns the current value.
func (e *Editor) Text() string {
	return string(e.text)
}

// Len returns the length of the value in runes.
func (e *Editor) Len() int {
	return len(e.text)
}

// SetCursor collapses the selection at pos, clamped to the value.
func (e *Editor) SetCursor(pos int) {
	pos = e.clamp(pos)
	e.selStart, e.selEnd = pos, pos
}

// Selection returns the selected range.
func (e *Editor) Selection() (start, end int) {
	return e.selStart, e.selEnd
}

// SelectedText returns the text between the selection bounds.
func (e *Editor) SelectedText() string {
	return string(e.text[e.selStart:e.selEnd])
}

// SetSelectionRange selects [start, end). Offsets past the end clamp to
// the value length and an end before start collapses to end, matching
// HTMLInputElement.setSelectionRange.
func (e *Editor) SetSelectionRange(start, end int) {
	end = e.clamp(end)
	start = e.clamp(start)
	if start > end {
		start = end
	}
	e.selStart, e.selEnd = start, end
}

// Set replaces the value and moves the cursor to the end.
func (e *Editor) Set(text string) {
	e.text = []rune(text)
	e.SetCursor(len(e.text))
}

// SetRangeText replaces [start, end) with text and updates the selection
// according to mode, following HTMLInputElement.setRangeText. The previous
// state is pushed onto the undo history.
func (e *Editor) SetRangeText(text string, start, end int, mode SelectMode) {
	start = e.clamp(start)
	end = e.clamp(end)
	if start > end {
		start = end
	}

	e.SaveState()

	insert := []rune(text)
	next := make([]rune, 0, len(e.text)-(end-start)+len(insert))
	next = append(next, e.text[:start]...)
	next = append(next, insert...)
	next = append(next, e.text[end:]...)

	oldLen := end - start
	newEnd := start + len(insert)
	selStart, selEnd := e.selStart, e.selEnd
	e.text = next

	switch mode {
	case SelectStart:
		e.selStart, e.selEnd = start, start
	case SelectEnd:
		e.selStart, e.selEnd = newEnd, newEnd
	case SelectAll:
		e.selStart, e.selEnd = start, newEnd
	default:
		delta := len(insert) - oldLen
		e.selStart = preserveOffset(selStart, start, end, start, delta)
		e.selEnd = preserveOffset(selEnd, start, end, newEnd, delta)
	}
}

// preserveOffset maps a selection offset across a replacement of
// [start, end). Offsets inside the replaced range snap to inside.
func preserveOffset(pos, start, end, inside, delta int) int {
	switch {
	case pos > end:
		return pos + delta
	case pos > start:
		return inside
	default:
		return pos
	}
}

// SaveState saves the current state to the undo history.
// Call this before making changes that should be undoable.
func (e *Editor) SaveState() {
	// Don't save if state is identical to last saved state
	if len(e.history) > 0 {
		last := e.history[len(e.history)-1]
		if last.selStart == e.selStart && last.selEnd == e.selEnd && string(last.text) == string(e.text) {
			return
		}
	}

	e.history = append(e.history, e.state())

	// Clear redo history - new change invalidates redo
	e.redoHistory = e.redoHistory[:0]
}

func (e *Editor) state() editorState {
	textCopy := make([]rune, len(e.text))
	copy(textCopy, e.text)
	return editorState{text: textCopy, selStart: e.selStart, selEnd: e.selEnd}
}

func (e *Editor) restore(s editorState) {
	e.text = s.text
	e.selStart, e.selEnd = s.selStart, s.selEnd
}

// Undo restores the previous state from the undo history.
// Returns true if undo was performed, false if history is empty.
func (e *Editor) Undo() bool {
	if len(e.history) == 0 {
		return false
	}

	e.redoHistory = append(e.redoHistory, e.state())

	last := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	e.restore(last)
	return true
}

// Redo restores the next state from the redo history.
// Returns true if redo was performed, false if redo history is empty.
func (e *Editor) Redo() bool {
	if len(e.redoHistory) == 0 {
		return false
	}

	e.history = append(e.history, e.state())

	last := e.redoHistory[len(e.redoHistory)-1]
	e.redoHistory = e.redoHistory[:len(e.redoHistory)-1]
	e.restore(last)
	return true
}

// ClearHistory clears the undo and redo history.
func (e *Editor) ClearHistory() {
	e.history = e.history[:0]
	e.redoHistory = e.redoHistory[:0]
}

func (e *Editor) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(e.text) {
		return len(e.text)
	}
	return pos
}

package lineedit

import "testing"

func TestRunesNotBytes(t *testing.T) {
	e := New()
	e.Set("café noir")
	if e.Len() != 9 {
		t.Errorf("expected length 9, got %d", e.Len())
	}
	e.SetSelectionRange(0, 4)
	if e.SelectedText() != "café" {
		t.Errorf("expected 'café', got %q", e.SelectedText())
	}
}

func TestSetSelectionRangeClamps(t *testing.T) {
	tests := []struct {
		name               string
		start, end         int
		wantStart, wantEnd int
	}{
		{"in range", 1, 3, 1, 3},
		{"end past value", 2, 99, 2, 5},
		{"both past value", 10, 20, 5, 5},
		{"start after end", 4, 2, 2, 2},
		{"negative start", -3, 2, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			e.Set("hello")
			e.SetSelectionRange(tt.start, tt.end)
			start, end := e.Selection()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("expected [%d,%d), got [%d,%d)", tt.wantStart, tt.wantEnd, start, end)
			}
		})
	}
}

func TestSetRangeTextModes(t *testing.T) {
	tests := []struct {
		name               string
		mode               SelectMode
		wantStart, wantEnd int
	}{
		{"end", SelectEnd, 7, 7},
		{"start", SelectStart, 2, 2},
		{"select", SelectAll, 2, 7},
		{"preserve", SelectPreserve, 2, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			e.Set("hello world")
			e.SetSelectionRange(2, 5)
			e.SetRangeText("fixed", 2, 5, tt.mode)

			if e.Text() != "hefixed world" {
				t.Fatalf("expected 'hefixed world', got %q", e.Text())
			}
			start, end := e.Selection()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("expected [%d,%d), got [%d,%d)", tt.wantStart, tt.wantEnd, start, end)
			}
		})
	}
}

func TestSetRangeTextPreserveShiftsLaterSelection(t *testing.T) {
	e := New()
	e.Set("hello world")
	e.SetSelectionRange(6, 11)
	e.SetRangeText("HEY", 0, 5, SelectPreserve)
	if e.Text() != "HEY world" {
		t.Fatalf("expected 'HEY world', got %q", e.Text())
	}
	if e.SelectedText() != "world" {
		t.Errorf("expected selection to follow 'world', got %q", e.SelectedText())
	}
}

func TestUndoRedoAfterSetRangeText(t *testing.T) {
	e := New()
	e.Set("hello world")
	e.SetSelectionRange(2, 5)
	e.SetRangeText("fixed", 2, 5, SelectEnd)

	if !e.Undo() {
		t.Fatal("expected undo to succeed")
	}
	if e.Text() != "hello world" {
		t.Errorf("expected 'hello world' after undo, got %q", e.Text())
	}
	if start, end := e.Selection(); start != 2 || end != 5 {
		t.Errorf("expected selection [2,5) after undo, got [%d,%d)", start, end)
	}

	if !e.Redo() {
		t.Fatal("expected redo to succeed")
	}
	if e.Text() != "hefixed world" {
		t.Errorf("expected 'hefixed world' after redo, got %q", e.Text())
	}
}

func TestUndoRedoEmpty(t *testing.T) {
	e := New()
	e.Set("hello")
	if e.Undo() {
		t.Error("expected no undo without an edit")
	}
	if e.Redo() {
		t.Error("expected no redo without an undo")
	}
}

func TestEditClearsRedo(t *testing.T) {
	e := New()
	e.Set("hello")
	e.SetRangeText("J", 0, 1, SelectEnd)
	e.Undo()
	e.SetRangeText("y", 0, 1, SelectEnd)

	if e.Redo() {
		t.Error("expected a new edit to drop the redo history")
	}
	if e.Text() != "yello" {
		t.Errorf("expected 'yello', got %q", e.Text())
	}
	if !e.Undo() || e.Text() != "hello" {
		t.Errorf("expected undo back to 'hello', got %q", e.Text())
	}
}

func TestClearHistory(t *testing.T) {
	e := New()
	e.Set("hello")
	e.SetRangeText("J", 0, 1, SelectEnd)
	e.ClearHistory()
	if e.Undo() {
		t.Error("expected no undo after ClearHistory")
	}
}

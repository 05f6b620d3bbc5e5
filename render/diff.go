package render

import (
	"strings"

	"typewise/diff"
)

var (
	RemoveStyle = Style{FgColor: 31, Strike: true}
	AddStyle    = Style{FgColor: 32, Bold: true}
)

// Spans renders a diff inline. With color, removed text is struck through
// in red and added text is bold green; without, removals read [-old-] and
// additions {+new+}.
func Spans(spans []diff.Span, color bool) string {
	var sb strings.Builder
	for _, s := range spans {
		switch s.Type {
		case diff.Same:
			sb.WriteString(s.Old)
		case diff.Remove:
			sb.WriteString(removed(s.Old, color))
		case diff.Add:
			sb.WriteString(added(s.New, color))
		case diff.Change:
			sb.WriteString(removed(s.Old, color))
			sb.WriteString(added(s.New, color))
		}
	}
	return sb.String()
}

func removed(text string, color bool) string {
	if color {
		return RemoveStyle.Apply(text)
	}
	return "[-" + text + "-]"
}

func added(text string, color bool) string {
	if color {
		return AddStyle.Apply(text)
	}
	return "{+" + text + "+}"
}

// SpanCells flattens a diff into styled cells for drawing on a canvas.
func SpanCells(spans []diff.Span) []Cell {
	var cells []Cell
	appendText := func(text string, style Style) {
		for _, r := range text {
			cells = append(cells, Cell{Rune: r, Style: style})
		}
	}
	for _, s := range spans {
		switch s.Type {
		case diff.Same:
			appendText(s.Old, Style{})
		case diff.Remove:
			appendText(s.Old, RemoveStyle)
		case diff.Add:
			appendText(s.New, AddStyle)
		case diff.Change:
			appendText(s.Old, RemoveStyle)
			appendText(s.New, AddStyle)
		}
	}
	return cells
}

// WrapCells breaks styled cells into lines of at most width display
// cells, preferring to break after a space. Newlines always break.
func WrapCells(cells []Cell, width int) [][]Cell {
	if width <= 0 {
		return nil
	}

	var lines [][]Cell
	var line []Cell
	lineWidth := 0
	lastSpace := -1

	for _, cell := range cells {
		if cell.Rune == '\n' {
			lines = append(lines, line)
			line, lineWidth, lastSpace = nil, 0, -1
			continue
		}

		w := UnicodeWidth(cell.Rune)
		if lineWidth+w > width && len(line) > 0 {
			if lastSpace >= 0 {
				rest := append([]Cell(nil), line[lastSpace+1:]...)
				lines = append(lines, line[:lastSpace])
				line = rest
			} else {
				lines = append(lines, line)
				line = nil
			}
			lineWidth = cellsWidth(line)
			lastSpace = lastSpaceIndex(line)
		}

		line = append(line, cell)
		lineWidth += w
		if cell.Rune == ' ' {
			lastSpace = len(line) - 1
		}
	}
	if len(line) > 0 || len(lines) == 0 {
		lines = append(lines, line)
	}
	return lines
}

func lastSpaceIndex(cells []Cell) int {
	for i := len(cells) - 1; i >= 0; i-- {
		if cells[i].Rune == ' ' {
			return i
		}
	}
	return -1
}

func cellsWidth(cells []Cell) int {
	w := 0
	for _, c := range cells {
		w += UnicodeWidth(c.Rune)
	}
	return w
}

package render

import (
	"strings"

	"typewise/diff"
)

// Panel is the correction panel drawn under the edited field.
type Panel struct {
	Title      string
	Modes      []string
	Selected   int // index into Modes
	Spans      []diff.Span
	Status     string
	Confidence string
	Quota      string
	Footer     string
	Box        BoxStyle
}

// Draw lays the panel out in a canvas width cells wide. The height grows
// with the diff.
func (p Panel) Draw(width int) *Canvas {
	if width < 10 {
		width = 10
	}
	inner := width - 4
	box := p.Box
	if box == (BoxStyle{}) {
		box = RoundedBox
	}

	modeLine := p.modeCells()
	body := WrapCells(SpanCells(p.Spans), inner)
	status := WrapText(p.Status, inner)
	meta := strings.TrimSpace(p.Confidence + "   " + p.Quota)

	var rows [][]Cell
	if len(modeLine) > 0 {
		rows = append(rows, WrapCells(modeLine, inner)...)
		rows = append(rows, nil)
	}
	if len(p.Spans) > 0 {
		rows = append(rows, body...)
		rows = append(rows, nil)
	}
	for _, line := range status {
		rows = append(rows, plainCells(line, Style{Bold: true}))
	}
	if meta != "" {
		rows = append(rows, plainCells(meta, Style{Dim: true}))
	}
	if p.Footer != "" {
		rows = append(rows, nil)
		rows = append(rows, plainCells(TruncateToWidth(p.Footer, inner), Style{Dim: true}))
	}

	c := NewCanvas(width, len(rows)+2)
	c.DrawBoxWithTitle(0, 0, width, len(rows)+2, p.Title, box, Style{}, Style{Bold: true})
	for i, row := range rows {
		c.WriteCells(2, i+1, row, inner)
	}
	return c
}

func (p Panel) modeCells() []Cell {
	var cells []Cell
	for i, m := range p.Modes {
		if i > 0 {
			cells = append(cells, Cell{Rune: ' '})
		}
		style := Style{}
		if i == p.Selected {
			style = Style{Reverse: true}
		}
		cells = append(cells, plainCells(" "+m+" ", style)...)
	}
	return cells
}

func plainCells(s string, style Style) []Cell {
	cells := make([]Cell, 0, len(s))
	for _, r := range s {
		cells = append(cells, Cell{Rune: r, Style: style})
	}
	return cells
}

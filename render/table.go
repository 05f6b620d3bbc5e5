package render

import "strings"

// Table lays out rows of text in a box, for field lists, the profile and
// history.
type Table struct {
	Box      BoxStyle
	MaxWidth int // total width limit; 0 means unlimited

	headers []string
	rows    [][]string
	align   []Alignment
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{
		Box:     SingleBox,
		headers: headers,
		align:   make([]Alignment, len(headers)),
	}
}

// AddRow appends a row. Missing cells are blank and extra cells dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// SetAlignment sets the alignment of column col.
func (t *Table) SetAlignment(col int, align Alignment) {
	if col >= 0 && col < len(t.align) {
		t.align[col] = align
	}
}

// widths returns the column widths, narrowing the widest column until the
// table fits MaxWidth. Columns never shrink below their header.
func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], StringWidth(cell))
		}
	}

	if t.MaxWidth <= 0 {
		return widths
	}
	for tableWidth(widths) > t.MaxWidth {
		widest := 0
		for i := range widths {
			if widths[i]-StringWidth(t.headers[i]) > widths[widest]-StringWidth(t.headers[widest]) {
				widest = i
			}
		}
		if widths[widest] <= StringWidth(t.headers[widest]) {
			break
		}
		widths[widest]--
	}
	return widths
}

// tableWidth counts each column plus its padding and the borders.
func tableWidth(widths []int) int {
	total := 1
	for _, w := range widths {
		total += w + 3
	}
	return total
}

// Width returns the width the table occupies.
func (t *Table) Width() int {
	return tableWidth(t.widths())
}

// Draw renders the table onto c at (x, y) and returns the number of lines
// used.
func (t *Table) Draw(c *Canvas, x, y int) int {
	if len(t.headers) == 0 {
		return 0
	}
	widths := t.widths()
	b := t.Box

	lines := 0
	rule := func(left, mid, right rune) {
		t.drawRule(c, x, y+lines, widths, left, mid, right)
		lines++
	}
	row := func(cells []string, style Style) {
		t.drawRow(c, x, y+lines, cells, widths, style)
		lines++
	}

	rule(b.TopLeft, b.TopTee, b.TopRight)
	row(t.headers, Style{Bold: true})
	rule(b.LeftTee, b.Cross, b.RightTee)
	for _, r := range t.rows {
		row(r, Style{})
	}
	rule(b.BottomLeft, b.BottomTee, b.BottomRight)
	return lines
}

func (t *Table) drawRule(c *Canvas, x, y int, widths []int, left, mid, right rune) {
	c.Set(x, y, left, Style{})
	x++
	for i, w := range widths {
		for j := 0; j < w+2; j++ {
			c.Set(x, y, t.Box.Horizontal, Style{})
			x++
		}
		edge := mid
		if i == len(widths)-1 {
			edge = right
		}
		c.Set(x, y, edge, Style{})
		x++
	}
}

func (t *Table) drawRow(c *Canvas, x, y int, cells []string, widths []int, style Style) {
	c.Set(x, y, t.Box.Vertical, Style{})
	x++
	for i, w := range widths {
		cell := cells[i]
		if StringWidth(cell) > w {
			cell = Truncate(cell, w)
		}
		c.WriteString(x+1, y, AlignText(cell, w, t.align[i]), style)
		x += w + 2
		c.Set(x, y, t.Box.Vertical, Style{})
		x++
	}
}

// RenderToString renders the table without styling.
func (t *Table) RenderToString() string {
	canvas := NewCanvas(t.Width(), len(t.rows)+4)
	t.Draw(canvas, 0, 0)
	return strings.TrimSuffix(canvas.PlainText(), "\n")
}

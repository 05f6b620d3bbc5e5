package render

import "strings"

// Canvas is a drawable buffer of styled cells.
type Canvas struct {
	width  int
	height int
	cells  [][]Cell
}

// NewCanvas creates a new canvas with the given dimensions.
func NewCanvas(width, height int) *Canvas {
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
		for x := range cells[y] {
			cells[y][x] = Cell{Rune: ' '}
		}
	}
	return &Canvas{width: width, height: height, cells: cells}
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// Set places a rune at the given position with the given style.
func (c *Canvas) Set(x, y int, r rune, style Style) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.cells[y][x] = Cell{Rune: r, Style: style}
}

// Get returns the cell at the given position.
func (c *Canvas) Get(x, y int) Cell {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return Cell{Rune: ' '}
	}
	return c.cells[y][x]
}

// WriteString writes a string starting at the given position.
// Returns the number of terminal cells used (not runes).
func (c *Canvas) WriteString(x, y int, s string, style Style) int {
	pos := 0
	for _, r := range s {
		w := UnicodeWidth(r)
		if x+pos+w > c.width {
			break
		}
		c.Set(x+pos, y, r, style)
		pos += w
	}
	return pos
}

// WriteCells copies styled cells starting at the given position, stopping
// at maxWidth cells.
func (c *Canvas) WriteCells(x, y int, cells []Cell, maxWidth int) int {
	pos := 0
	for _, cell := range cells {
		w := UnicodeWidth(cell.Rune)
		if pos+w > maxWidth {
			break
		}
		c.Set(x+pos, y, cell.Rune, cell.Style)
		pos += w
	}
	return pos
}

// DrawBox draws a box on the canvas.
func (c *Canvas) DrawBox(x, y, width, height int, box BoxStyle, style Style) {
	if width < 2 || height < 2 {
		return
	}

	c.Set(x, y, box.TopLeft, style)
	c.Set(x+width-1, y, box.TopRight, style)
	c.Set(x, y+height-1, box.BottomLeft, style)
	c.Set(x+width-1, y+height-1, box.BottomRight, style)

	for i := 1; i < width-1; i++ {
		c.Set(x+i, y, box.Horizontal, style)
		c.Set(x+i, y+height-1, box.Horizontal, style)
	}

	for i := 1; i < height-1; i++ {
		c.Set(x, y+i, box.Vertical, style)
		c.Set(x+width-1, y+i, box.Vertical, style)
	}
}

// DrawBoxWithTitle draws a box with a title in the top border.
func (c *Canvas) DrawBoxWithTitle(x, y, width, height int, title string, box BoxStyle, style Style, titleStyle Style) {
	c.DrawBox(x, y, width, height, box, style)

	if len(title) > 0 && width > 4 {
		title = TruncateToWidth(title, width-4)
		titleX := x + 2
		c.Set(titleX-1, y, ' ', style)
		n := c.WriteString(titleX, y, title, titleStyle)
		c.Set(titleX+n, y, ' ', style)
	}
}

// Render outputs the canvas as lines with ANSI escape codes. Wide
// characters occupy two cells; the second is skipped.
func (c *Canvas) Render() string {
	var sb strings.Builder
	var current Style

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			cell := c.cells[y][x]
			if cell.Style != current {
				sb.WriteString(cell.Style.Sequence())
				current = cell.Style
			}
			sb.WriteRune(cell.Rune)
			if UnicodeWidth(cell.Rune) == 2 {
				x++
			}
		}
		if current != (Style{}) {
			sb.WriteString(Reset)
			current = Style{}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PlainText returns the canvas content without styling, trailing spaces
// trimmed from each line.
func (c *Canvas) PlainText() string {
	lines := strings.Split(StripANSI(c.Render()), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

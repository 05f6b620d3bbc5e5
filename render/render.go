// Package render draws typewise's terminal output: inline diffs, the
// correction panel and history tables.
package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Alignment specifies text alignment within a given width.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// Cell represents a single character cell in the terminal.
type Cell struct {
	Rune  rune
	Style Style
}

// Style represents text styling for a cell.
type Style struct {
	Bold      bool
	Dim       bool
	Underline bool
	Reverse   bool
	Strike    bool
	FgColor   int // ANSI foreground color code (0 = default, 31 = red, 32 = green, etc.)
}

// Sequence returns the SGR escape sequence selecting s.
func (s Style) Sequence() string {
	codes := []string{"0"}
	if s.Bold {
		codes = append(codes, "1")
	}
	if s.Dim {
		codes = append(codes, "2")
	}
	if s.Underline {
		codes = append(codes, "4")
	}
	if s.Reverse {
		codes = append(codes, "7")
	}
	if s.Strike {
		codes = append(codes, "9")
	}
	if s.FgColor > 0 {
		codes = append(codes, fmt.Sprintf("%d", s.FgColor))
	}
	return fmt.Sprintf("\033[%sm", strings.Join(codes, ";"))
}

// Apply wraps text in s, resetting afterwards. The zero style returns
// text unchanged.
func (s Style) Apply(text string) string {
	if s == (Style{}) || text == "" {
		return text
	}
	return s.Sequence() + text + Reset
}

// Reset clears all styling.
const Reset = "\033[0m"

// BoxStyle defines the characters used for drawing boxes.
type BoxStyle struct {
	TopLeft     rune
	TopRight    rune
	BottomLeft  rune
	BottomRight rune
	Horizontal  rune
	Vertical    rune
	TopTee      rune
	BottomTee   rune
	LeftTee     rune
	RightTee    rune
	Cross       rune
}

var (
	SingleBox = BoxStyle{
		TopLeft: '┌', TopRight: '┐', BottomLeft: '└', BottomRight: '┘',
		Horizontal: '─', Vertical: '│',
		TopTee: '┬', BottomTee: '┴', LeftTee: '├', RightTee: '┤', Cross: '┼',
	}

	RoundedBox = BoxStyle{
		TopLeft: '╭', TopRight: '╮', BottomLeft: '╰', BottomRight: '╯',
		Horizontal: '─', Vertical: '│',
		TopTee: '┬', BottomTee: '┴', LeftTee: '├', RightTee: '┤', Cross: '┼',
	}

	ASCIIBox = BoxStyle{
		TopLeft: '+', TopRight: '+', BottomLeft: '+', BottomRight: '+',
		Horizontal: '-', Vertical: '|',
		TopTee: '+', BottomTee: '+', LeftTee: '+', RightTee: '+', Cross: '+',
	}
)

// widths measures runes with East Asian ambiguous characters as narrow,
// whatever the locale says.
var widths = &runewidth.Condition{}

// UnicodeWidth returns the display width of a rune in terminal cells.
// Control characters and combining marks take no cell.
func UnicodeWidth(r rune) int {
	return widths.RuneWidth(r)
}

// StringWidth returns the display width of a string in terminal cells.
func StringWidth(s string) int {
	width := 0
	for _, r := range s {
		width += UnicodeWidth(r)
	}
	return width
}

// WrapText wraps text at spaces to fit width cells. Newlines start a new
// line, runs of spaces collapse, and words wider than width are split.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			if line != "" {
				if StringWidth(line)+1+StringWidth(word) <= width {
					line += " " + word
					continue
				}
				lines = append(lines, line)
			}
			pieces := splitWidth(word, width)
			lines = append(lines, pieces[:len(pieces)-1]...)
			line = pieces[len(pieces)-1]
		}
		lines = append(lines, line)
	}
	return lines
}

// splitWidth cuts s into pieces of at most width cells. A rune wider than
// width gets a piece of its own.
func splitWidth(s string, width int) []string {
	var pieces []string
	var cur strings.Builder
	w := 0
	for _, r := range s {
		rw := UnicodeWidth(r)
		if w+rw > width && cur.Len() > 0 {
			pieces = append(pieces, cur.String())
			cur.Reset()
			w = 0
		}
		cur.WriteRune(r)
		w += rw
	}
	return append(pieces, cur.String())
}

// AlignText pads or truncates text to exactly width cells.
func AlignText(text string, width int, align Alignment) string {
	textWidth := StringWidth(text)
	if textWidth >= width {
		return TruncateToWidth(text, width)
	}

	switch align {
	case AlignRight:
		return strings.Repeat(" ", width-textWidth) + text
	case AlignCenter:
		left := (width - textWidth) / 2
		right := width - textWidth - left
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
	default:
		return text + strings.Repeat(" ", width-textWidth)
	}
}

// TruncateToWidth truncates a string to fit within the specified width.
func TruncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	width := 0
	for i, r := range s {
		charWidth := UnicodeWidth(r)
		if width+charWidth > maxWidth {
			return s[:i]
		}
		width += charWidth
	}

	return s
}

// Truncate truncates a string adding ellipsis if needed.
func Truncate(s string, width int) string {
	sWidth := StringWidth(s)
	if sWidth <= width {
		return s
	}
	if width <= 3 {
		return TruncateToWidth(s, width)
	}
	return TruncateToWidth(s, width-3) + "..."
}

// StripANSI removes ANSI escape sequences from a string.
func StripANSI(s string) string {
	var sb strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		sb.WriteRune(r)
	}

	return sb.String()
}

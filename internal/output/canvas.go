package output

import (
	"strings"
)

// BoxStyle defines the character set for drawing boxes
type BoxStyle struct {
	TopLeft     rune
	TopRight    rune
	BottomLeft  rune
	BottomRight rune
	Horizontal  rune
	Vertical    rune
}

var (
	// ASCIIStyle uses simple ASCII characters for box drawing
	ASCIIStyle = BoxStyle{'+', '+', '+', '+', '-', '|'}

	// UnicodeStyle uses Unicode box drawing characters
	UnicodeStyle = BoxStyle{'┌', '┐', '└', '┘', '─', '│'}
)

// Canvas represents a 2D character buffer for drawing
type Canvas struct {
	Width  int
	Height int
	buffer [][]rune
	style  BoxStyle
}

// NewCanvas creates a blank canvas with the specified dimensions
func NewCanvas(width, height int, useUnicode bool) *Canvas {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = []rune(strings.Repeat(" ", width))
	}

	style := ASCIIStyle
	if useUnicode {
		style = UnicodeStyle
	}
	return &Canvas{Width: width, Height: height, buffer: buffer, style: style}
}

// SetCell sets a character at the specified position
func (c *Canvas) SetCell(x, y int, r rune) {
	if x >= 0 && x < c.Width && y >= 0 && y < c.Height {
		c.buffer[y][x] = r
	}
}

// Cell returns the character at the specified position
func (c *Canvas) Cell(x, y int) rune {
	if x >= 0 && x < c.Width && y >= 0 && y < c.Height {
		return c.buffer[y][x]
	}
	return ' '
}

// DrawBox draws a box outline. Boxes sharing an edge overlap on it, so
// glued windows render with a single dividing line.
func (c *Canvas) DrawBox(x, y, width, height int) {
	if width < 2 || height < 2 {
		return
	}
	right, bottom := x+width-1, y+height-1

	for i := x + 1; i < right; i++ {
		c.SetCell(i, y, c.style.Horizontal)
		c.SetCell(i, bottom, c.style.Horizontal)
	}
	for i := y + 1; i < bottom; i++ {
		c.SetCell(x, i, c.style.Vertical)
		c.SetCell(right, i, c.style.Vertical)
	}

	c.SetCell(x, y, c.style.TopLeft)
	c.SetCell(right, y, c.style.TopRight)
	c.SetCell(x, bottom, c.style.BottomLeft)
	c.SetCell(right, bottom, c.style.BottomRight)
}

// DrawText writes text at the specified position, clipped to maxLen runes
func (c *Canvas) DrawText(x, y int, text string, maxLen int) {
	i := 0
	for _, r := range text {
		if i >= maxLen {
			return
		}
		c.SetCell(x+i, y, r)
		i++
	}
}

// String renders the canvas with trailing spaces trimmed
func (c *Canvas) String() string {
	lines := make([]string, len(c.buffer))
	for i, row := range c.buffer {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return strings.Join(lines, "\n")
}

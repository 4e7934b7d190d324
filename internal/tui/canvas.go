package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/thereceipt/label-designer/internal/editor"
	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// Terminal cells are about twice as tall as wide, so a column covers
// 1/8 inch and a row 1/4 inch.
const (
	CellWidth  = 0.125
	CellHeight = 0.25
)

const emptyCell = '·'

type cellMark uint8

const (
	markNone cellMark = iota
	markElement
	markSelected
	markLocked
	markHandle
)

// Canvas draws a label document as a grid of terminal cells
type Canvas struct {
	Size geometry.Size
}

// Dims returns the canvas size in cells
func (c Canvas) Dims() (cols, rows int) {
	cols = cellCeil(c.Size.Width / CellWidth)
	rows = cellCeil(c.Size.Height / CellHeight)
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

// PointerAt converts a cell position to an editor pointer at the cell's
// top-left corner
func PointerAt(col, row int, shift bool) editor.Pointer {
	return editor.Pointer{
		X:     float64(col) * CellWidth * geometry.DPI,
		Y:     float64(row) * CellHeight * geometry.DPI,
		Shift: shift,
	}
}

func cellCeil(v float64) int {
	return int(math.Ceil(v - 1e-9))
}

func cellFloor(v float64) int {
	return int(math.Floor(v + 1e-9))
}

type grid struct {
	cols, rows int
	runes      [][]rune
	marks      [][]cellMark
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows}
	g.runes = make([][]rune, rows)
	g.marks = make([][]cellMark, rows)
	for r := range g.runes {
		g.runes[r] = []rune(strings.Repeat(string(emptyCell), cols))
		g.marks[r] = make([]cellMark, cols)
	}
	return g
}

func (g *grid) set(col, row int, ch rune, mark cellMark) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	g.runes[row][col] = ch
	g.marks[row][col] = mark
}

// span returns the cells covered by an element, inclusive
func span(el labelformat.Element) (c0, r0, c1, r1 int) {
	c0 = cellFloor(el.X / CellWidth)
	r0 = cellFloor(el.Y / CellHeight)
	c1 = cellCeil(el.Right()/CellWidth) - 1
	r1 = cellCeil(el.Bottom()/CellHeight) - 1
	if c1 < c0 {
		c1 = c0
	}
	if r1 < r0 {
		r1 = r0
	}
	return
}

// Lines draws doc and returns one plain string per row
func (c Canvas) Lines(doc labelformat.Document, selection []string) []string {
	g := c.draw(doc, selection)
	lines := make([]string, g.rows)
	for r := range g.runes {
		lines[r] = string(g.runes[r])
	}
	return lines
}

// View draws doc with selection and lock highlighting
func (c Canvas) View(doc labelformat.Document, selection []string) string {
	g := c.draw(doc, selection)

	var b strings.Builder
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for col := 1; col <= g.cols; col++ {
			if col < g.cols && g.marks[r][col] == g.marks[r][start] {
				continue
			}
			b.WriteString(markStyle(g.marks[r][start]).Render(string(g.runes[r][start:col])))
			start = col
		}
	}
	return b.String()
}

func markStyle(m cellMark) lipgloss.Style {
	switch m {
	case markElement:
		return CanvasElementStyle
	case markSelected:
		return CanvasSelectedStyle
	case markLocked:
		return CanvasLockedStyle
	case markHandle:
		return CanvasHandleStyle
	}
	return CanvasStyle
}

func (c Canvas) draw(doc labelformat.Document, selection []string) *grid {
	cols, rows := c.Dims()
	g := newGrid(cols, rows)

	selected := make(map[string]bool, len(selection))
	for _, id := range selection {
		selected[id] = true
	}

	for _, el := range doc.Elements {
		if el.Hidden {
			continue
		}
		mark := markElement
		switch {
		case el.ID != "" && selected[el.ID]:
			mark = markSelected
		case el.Locked:
			mark = markLocked
		}
		drawElement(g, el, mark)
	}

	if len(selection) == 1 {
		if el, ok := doc.Find(selection[0]); ok && !el.Hidden && !el.Locked && el.Type != labelformat.TypeLine {
			c0, r0, c1, r1 := span(el)
			for _, p := range [][2]int{{c0, r0}, {c1, r0}, {c0, r1}, {c1, r1}} {
				g.set(p[0], p[1], '■', markHandle)
			}
		}
	}
	return g
}

func drawElement(g *grid, el labelformat.Element, mark cellMark) {
	c0, r0, c1, r1 := span(el)

	switch el.Type {
	case labelformat.TypeShape:
		drawBox(g, c0, r0, c1, r1, mark)
	case labelformat.TypeText:
		fill(g, c0, r0, c1, r1, ' ', mark)
		if el.ShowBorder {
			drawBox(g, c0, r0, c1, r1, mark)
		}
		drawText(g, el, c0, r0, c1, r1, mark)
	case labelformat.TypeBarcode:
		bars := []rune("▍▌▎▋")
		for r := r0; r <= r1; r++ {
			for col := c0; col <= c1; col++ {
				g.set(col, r, bars[(col*7)%len(bars)], mark)
			}
		}
	case labelformat.TypeQRCode:
		fill(g, c0, r0, c1, r1, '▚', mark)
	case labelformat.TypeImage:
		fill(g, c0, r0, c1, r1, '░', mark)
	case labelformat.TypeLine:
		drawLine(g, el, mark)
	}
}

func fill(g *grid, c0, r0, c1, r1 int, ch rune, mark cellMark) {
	for r := r0; r <= r1; r++ {
		for col := c0; col <= c1; col++ {
			g.set(col, r, ch, mark)
		}
	}
}

func drawBox(g *grid, c0, r0, c1, r1 int, mark cellMark) {
	switch {
	case r0 == r1:
		fill(g, c0, r0, c1, r1, '─', mark)
		return
	case c0 == c1:
		fill(g, c0, r0, c1, r1, '│', mark)
		return
	}

	fill(g, c0+1, r0+1, c1-1, r1-1, ' ', mark)
	for col := c0 + 1; col < c1; col++ {
		g.set(col, r0, '─', mark)
		g.set(col, r1, '─', mark)
	}
	for r := r0 + 1; r < r1; r++ {
		g.set(c0, r, '│', mark)
		g.set(c1, r, '│', mark)
	}
	g.set(c0, r0, '┌', mark)
	g.set(c1, r0, '┐', mark)
	g.set(c0, r1, '└', mark)
	g.set(c1, r1, '┘', mark)
}

// drawText writes the raw element text, token braces included, wrapped
// to the element width and aligned per text_align
func drawText(g *grid, el labelformat.Element, c0, r0, c1, r1 int, mark cellMark) {
	text := el.TextContent
	if text == "" && el.VariableField != "" {
		text = "{" + el.VariableField + "}"
	}
	if text == "" {
		return
	}

	inset := 0
	if el.ShowBorder && c1-c0 >= 2 && r1-r0 >= 2 {
		inset = 1
	}
	width := c1 - c0 + 1 - 2*inset
	if width < 1 {
		return
	}

	var rows []string
	for _, line := range strings.Split(text, "\n") {
		rows = append(rows, wrapText(line, width)...)
	}

	for i, line := range rows {
		r := r0 + inset + i
		if r > r1-inset {
			break
		}
		runes := []rune(line)
		if len(runes) > width {
			runes = runes[:width]
		}
		start := c0 + inset
		switch el.TextAlign {
		case "center":
			start += (width - len(runes)) / 2
		case "right":
			start += width - len(runes)
		}
		for j, ch := range runes {
			g.set(start+j, r, ch, mark)
		}
	}
}

func drawLine(g *grid, el labelformat.Element, mark cellMark) {
	c0, r0, c1, r1 := span(el)

	switch {
	case el.Height <= geometry.FlatLine && el.Width > geometry.FlatLine:
		r := clampInt(cellFloor((el.Y+el.Height/2)/CellHeight), r0, r1)
		fill(g, c0, r, c1, r, '─', mark)
	case el.Width <= geometry.FlatLine:
		col := clampInt(cellFloor((el.X+el.Width/2)/CellWidth), c0, c1)
		fill(g, col, r0, col, r1, '│', mark)
	default:
		ch, from, to := '╲', r0, r1
		if el.LineDirection == labelformat.LineUp {
			ch, from, to = '╱', r1, r0
		}
		steps := maxInt(c1-c0, r1-r0)
		if steps == 0 {
			g.set(c0, r0, ch, mark)
			return
		}
		for i := 0; i <= steps; i++ {
			t := float64(i) / float64(steps)
			col := c0 + int(math.Round(t*float64(c1-c0)))
			r := from + int(math.Round(t*float64(to-from)))
			g.set(col, r, ch, mark)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

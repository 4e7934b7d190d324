// Package geometry converts between physical inches and rendered pixels
// and resolves label dimensions from stock records.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// DPI is the canvas resolution in pixels per inch
const DPI = 96

// ErrDegenerateStock is returned when a page grid yields no usable label cell
var ErrDegenerateStock = errors.New("stock page grid has no usable label cell")

// InchesToPixels converts inches to whole canvas pixels
func InchesToPixels(inches float64) int {
	return int(math.Round(inches * DPI))
}

// PixelsToInches converts canvas pixels to inches rounded to 3 decimals
func PixelsToInches(pixels float64) float64 {
	return Round3(pixels / DPI)
}

// ScaledPixels converts inches to fractional pixels at the given scale.
// Renderers use it so sub-pixel placement survives zooming.
func ScaledPixels(inches, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return inches * DPI * scale
}

// Round3 rounds to 3 decimal places
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Snap rounds v to the nearest multiple of step
func Snap(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return Round3(math.Round(v/step) * step)
}

// Size is a width/height pair in inches
type Size struct {
	Width  float64
	Height float64
}

// LabelSize resolves the physical label dimensions of a stock. Direct
// label dimensions win; otherwise one cell of the page grid is used.
func LabelSize(s labelformat.Stock) (Size, error) {
	if s.LabelWidth > 0 && s.LabelHeight > 0 {
		return Size{Width: s.LabelWidth, Height: s.LabelHeight}, nil
	}

	if s.ColsPerPage <= 0 || s.RowsPerPage <= 0 {
		return Size{}, fmt.Errorf("%w: %d columns x %d rows", ErrDegenerateStock, s.ColsPerPage, s.RowsPerPage)
	}

	cols := float64(s.ColsPerPage)
	rows := float64(s.RowsPerPage)
	width := (s.PageWidth - 2*s.LeftMargin - (cols-1)*s.ColSpacing) / cols
	height := (s.PageHeight - 2*s.TopMargin - (rows-1)*s.RowSpacing) / rows

	size := Size{Width: Round3(width), Height: Round3(height)}
	if size.Width <= 0 || size.Height <= 0 {
		return Size{}, fmt.Errorf("%w: cell %.3fx%.3f in", ErrDegenerateStock, size.Width, size.Height)
	}
	return size, nil
}

// Rect is an axis-aligned rectangle in inches
type Rect struct {
	X, Y, W, H float64
}

// RectOf returns the bounding rectangle of an element
func RectOf(e labelformat.Element) Rect {
	return Rect{X: e.X, Y: e.Y, W: e.Width, H: e.Height}
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Contains reports whether the point lies inside r, edges included
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// Point is a position in pixels
type Point struct {
	X, Y float64
}

// ToInches converts a pixel point to inches
func (p Point) ToInches() (float64, float64) {
	return PixelsToInches(p.X), PixelsToInches(p.Y)
}

// SegmentDistance returns the distance from p to the segment a-b
func SegmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx == 0 && dy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// FlatLine is the minor-axis size, in inches, at or below which a line
// element is drawn perfectly horizontal or vertical
const FlatLine = 0.05

// LineEndpoints returns the pixel endpoints of a line element at scale 1.
// Flattened lines run through the middle of their bounding box; others
// follow the diagonal picked by lineDirection.
func LineEndpoints(e labelformat.Element) (Point, Point) {
	return ScaledLineEndpoints(e, 1)
}

// ScaledLineEndpoints is LineEndpoints at a render scale
func ScaledLineEndpoints(e labelformat.Element, scale float64) (Point, Point) {
	x1 := ScaledPixels(e.X, scale)
	y1 := ScaledPixels(e.Y, scale)
	x2 := ScaledPixels(e.Right(), scale)
	y2 := ScaledPixels(e.Bottom(), scale)

	switch {
	case e.Height <= FlatLine && e.Width > FlatLine:
		mid := (y1 + y2) / 2
		return Point{x1, mid}, Point{x2, mid}
	case e.Width <= FlatLine && e.Height > FlatLine:
		mid := (x1 + x2) / 2
		return Point{mid, y1}, Point{mid, y2}
	case e.LineDirection == labelformat.LineUp:
		return Point{x1, y2}, Point{x2, y1}
	}
	return Point{x1, y1}, Point{x2, y2}
}

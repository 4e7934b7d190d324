package editor

import (
	"math"

	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

const (
	// ClickThreshold is the pixel travel under which a create gesture counts as a click
	ClickThreshold = 5.0
	// AxisLockThreshold is the cross-axis pixel travel under which a line gesture straightens
	AxisLockThreshold = 10.0
	// MinCreateSize is the inch floor for dimensions that round to zero on creation
	MinCreateSize = 0.05
)

// DefaultSize returns the width and height, in inches, of an element
// created by a click rather than a drag
func DefaultSize(t labelformat.ElementType) (float64, float64) {
	switch t {
	case labelformat.TypeText:
		return 2, 1
	case labelformat.TypeBarcode:
		return 2, 0.75
	case labelformat.TypeQRCode:
		return 1, 1
	case labelformat.TypeImage:
		return 1, 1
	case labelformat.TypeShape:
		return 1.5, 1
	case labelformat.TypeLine:
		return 2, MinCreateSize
	}
	return 1, 1
}

// NewElement returns an element of type t with default content and style
func NewElement(t labelformat.ElementType, id string) labelformat.Element {
	e := labelformat.Element{ID: id, Type: t}
	e.Width, e.Height = DefaultSize(t)

	switch t {
	case labelformat.TypeText:
		e.TextContent = "Text"
		e.FontFamily = "default"
		e.FontSize = 12
		e.FontWeight = "normal"
		e.FontStyle = "normal"
		e.TextAlign = "left"
		e.VerticalAlign = "top"
	case labelformat.TypeBarcode:
		e.TextContent = "{AssetTag}"
		e.BarcodeType = labelformat.DefaultBarcodeType
	case labelformat.TypeQRCode:
		e.TextContent = "{AssetTag}"
	case labelformat.TypeImage:
		e.VariableField = "CompanyLogo"
	case labelformat.TypeShape:
		e.StrokeColor = "#000000"
		e.StrokeWidth = 2
	case labelformat.TypeLine:
		e.StrokeColor = "#000000"
		e.StrokeWidth = 2
		e.LineDirection = labelformat.LineDown
	}
	return e
}

// BuildElement converts a finished drawing gesture into a new element.
// clicked reports that the gesture was a click and the element has the
// default size centered on the click point.
func BuildElement(t labelformat.ElementType, g Gesture, id string) (e labelformat.Element, clicked bool) {
	e = NewElement(t, id)

	endX, endY := g.CurrentX, g.CurrentY
	dx, dy := endX-g.StartX, endY-g.StartY

	if t == labelformat.TypeLine && shouldLockAxis(dx, dy, g.Shift) {
		if math.Abs(dx) >= math.Abs(dy) {
			endY, dy = g.StartY, 0
		} else {
			endX, dx = g.StartX, 0
		}
	}

	widthPx, heightPx := math.Abs(dx), math.Abs(dy)

	if widthPx < ClickThreshold && heightPx < ClickThreshold {
		cx, cy := geometry.Point{X: g.StartX, Y: g.StartY}.ToInches()
		e.X = math.Max(0, geometry.Round3(cx-e.Width/2))
		e.Y = math.Max(0, geometry.Round3(cy-e.Height/2))
		return e, true
	}

	e.X = geometry.PixelsToInches(math.Min(g.StartX, endX))
	e.Y = geometry.PixelsToInches(math.Min(g.StartY, endY))
	e.Width = geometry.PixelsToInches(widthPx)
	e.Height = geometry.PixelsToInches(heightPx)
	if e.Width <= 0 {
		e.Width = MinCreateSize
	}
	if e.Height <= 0 {
		e.Height = MinCreateSize
	}
	e.X = math.Max(0, e.X)
	e.Y = math.Max(0, e.Y)

	if t == labelformat.TypeLine {
		e.LineDirection = lineDirection(dx, dy)
	}
	return e, false
}

// shouldLockAxis reports whether a line gesture should become purely
// horizontal or vertical
func shouldLockAxis(dx, dy float64, shift bool) bool {
	if shift {
		return true
	}
	primary := math.Max(math.Abs(dx), math.Abs(dy))
	cross := math.Min(math.Abs(dx), math.Abs(dy))
	return cross < AxisLockThreshold && primary > 2*cross
}

// lineDirection maps the gesture's sign relationship onto a diagonal:
// opposite signs run bottom-left to top-right
func lineDirection(dx, dy float64) labelformat.LineDirection {
	if (dx > 0 && dy < 0) || (dx < 0 && dy > 0) {
		return labelformat.LineUp
	}
	return labelformat.LineDown
}

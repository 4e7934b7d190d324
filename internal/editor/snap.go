package editor

import (
	"math"

	"github.com/thereceipt/label-designer/internal/geometry"
)

const (
	// GridStep is the grid snap increment in inches
	GridStep = 0.125
	// SnapThreshold is the inch distance under which object snapping engages
	SnapThreshold = 0.05
)

// SnapResult is the outcome of object snapping a moving rectangle.
// GuideX and GuideY hold the aligned edge coordinate when an axis snapped.
type SnapResult struct {
	X, Y     float64
	SnappedX bool
	SnappedY bool
	GuideX   float64
	GuideY   float64
}

// SnapToGrid quantizes a coordinate to the grid
func SnapToGrid(v float64) float64 {
	return geometry.Snap(v, GridStep)
}

// SnapToObjects aligns the moving rectangle's edges with the edges of the
// anchors. Each axis is resolved on its own: left and right edges of the
// moving rectangle are compared with left and right edges of every anchor,
// the single closest pair strictly under threshold wins, and the
// rectangle shifts so that pair coincides. Top and bottom likewise.
func SnapToObjects(moving geometry.Rect, anchors []geometry.Rect, threshold float64) SnapResult {
	res := SnapResult{X: moving.X, Y: moving.Y}

	bestX, bestY := threshold, threshold
	for _, a := range anchors {
		// X axis: left-left, left-right, right-left, right-right
		for _, pair := range [][2]float64{
			{moving.Left(), a.Left()},
			{moving.Left(), a.Right()},
			{moving.Right(), a.Left()},
			{moving.Right(), a.Right()},
		} {
			if d := math.Abs(pair[0] - pair[1]); d < bestX {
				bestX = d
				res.X = geometry.Round3(moving.X + pair[1] - pair[0])
				res.SnappedX = true
				res.GuideX = pair[1]
			}
		}

		// Y axis: top-top, top-bottom, bottom-top, bottom-bottom
		for _, pair := range [][2]float64{
			{moving.Top(), a.Top()},
			{moving.Top(), a.Bottom()},
			{moving.Bottom(), a.Top()},
			{moving.Bottom(), a.Bottom()},
		} {
			if d := math.Abs(pair[0] - pair[1]); d < bestY {
				bestY = d
				res.Y = geometry.Round3(moving.Y + pair[1] - pair[0])
				res.SnappedY = true
				res.GuideY = pair[1]
			}
		}
	}

	return res
}

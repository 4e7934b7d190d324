package editor

import (
	"math"

	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

const (
	// HandleRadius is the pixel distance from a corner that grabs a resize handle
	HandleRadius = 5.0
	// LineHitSlop widens the clickable region around a line, in pixels
	LineHitSlop = 6.0
)

// Select makes id the only selected element
func (e *Editor) Select(id string) {
	if e.Document().Index(id) < 0 {
		return
	}
	e.state.Selection = []string{id}
}

// ToggleSelect adds id to the selection or removes it
func (e *Editor) ToggleSelect(id string) {
	for i, s := range e.state.Selection {
		if s == id {
			e.state.Selection = append(e.state.Selection[:i:i], e.state.Selection[i+1:]...)
			return
		}
	}
	if e.Document().Index(id) >= 0 {
		e.state.Selection = append(e.state.Selection, id)
	}
}

// SetSelection replaces the selection, dropping unknown ids
func (e *Editor) SetSelection(ids []string) {
	e.state.Selection = nil
	doc := e.Document()
	seen := make(map[string]bool)
	for _, id := range ids {
		if !seen[id] && doc.Index(id) >= 0 {
			seen[id] = true
			e.state.Selection = append(e.state.Selection, id)
		}
	}
}

// SelectAll selects every visible element
func (e *Editor) SelectAll() {
	e.state.Selection = nil
	for _, el := range e.Document().Elements {
		if !el.Hidden {
			e.state.Selection = append(e.state.Selection, el.ID)
		}
	}
}

// ClearSelection empties the selection
func (e *Editor) ClearSelection() {
	e.state.Selection = nil
}

// IsSelected reports whether id is selected
func (e *Editor) IsSelected(id string) bool {
	for _, s := range e.state.Selection {
		if s == id {
			return true
		}
	}
	return false
}

// Selected returns the selected elements in stacking order
func (e *Editor) Selected() []labelformat.Element {
	var out []labelformat.Element
	for _, el := range e.Document().Elements {
		if e.IsSelected(el.ID) {
			out = append(out, el)
		}
	}
	return out
}

// pruneSelection drops selected ids missing from the current document
func (e *Editor) pruneSelection() {
	if len(e.state.Selection) == 0 {
		return
	}
	doc := e.Document()
	kept := e.state.Selection[:0:0]
	for _, id := range e.state.Selection {
		if doc.Index(id) >= 0 {
			kept = append(kept, id)
		}
	}
	e.state.Selection = kept
}

// HitTest finds what lies under the pointer: a resize handle of the single
// selected element first, then the top-most visible element.
func (e *Editor) HitTest(p Pointer) Hit {
	doc := e.Document()

	if len(e.state.Selection) == 1 {
		if el, ok := doc.Find(e.state.Selection[0]); ok && !el.Locked && !el.Hidden {
			if h := handleAt(el, p); h != HandleNone {
				return Hit{ID: el.ID, Handle: h}
			}
		}
	}

	for i := len(doc.Elements) - 1; i >= 0; i-- {
		el := doc.Elements[i]
		if el.Hidden {
			continue
		}
		if hits(el, p) {
			return Hit{ID: el.ID}
		}
	}
	return Hit{}
}

func hits(el labelformat.Element, p Pointer) bool {
	pt := geometry.Point{X: p.X, Y: p.Y}
	if el.Type == labelformat.TypeLine {
		a, b := geometry.LineEndpoints(el)
		return geometry.SegmentDistance(pt, a, b) <= LineHitSlop
	}
	x, y := pt.ToInches()
	return geometry.RectOf(el).Contains(x, y)
}

func handleAt(el labelformat.Element, p Pointer) Handle {
	left := geometry.ScaledPixels(el.X, 1)
	top := geometry.ScaledPixels(el.Y, 1)
	right := geometry.ScaledPixels(el.Right(), 1)
	bottom := geometry.ScaledPixels(el.Bottom(), 1)

	corners := []struct {
		h    Handle
		x, y float64
	}{
		{HandleNW, left, top},
		{HandleNE, right, top},
		{HandleSW, left, bottom},
		{HandleSE, right, bottom},
	}
	for _, c := range corners {
		if math.Hypot(p.X-c.x, p.Y-c.y) <= HandleRadius {
			return c.h
		}
	}
	return HandleNone
}

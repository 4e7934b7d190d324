package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

const (
	// MinSize is the smallest width or height a resize may leave, in inches
	MinSize = 0.01
	// LineFlattenThreshold is the line dimension under which resize flattens the line
	LineFlattenThreshold = 0.15
	// PasteOffset is the inch offset applied to duplicated and pasted elements
	PasteOffset = 0.25
	// NudgeStep and NudgeStepCoarse are the arrow-key move distances in inches
	NudgeStep       = 0.01
	NudgeStepCoarse = 0.1
)

// ErrElementNotFound is returned when an operation names an unknown element
var ErrElementNotFound = errors.New("element not found")

// Direction is an arrow-key direction
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// AlignEdge selects the edge or centre line Align lines elements up on
type AlignEdge string

const (
	AlignLeft   AlignEdge = "left"
	AlignRight  AlignEdge = "right"
	AlignTop    AlignEdge = "top"
	AlignBottom AlignEdge = "bottom"
	AlignCenter AlignEdge = "center" // horizontal centres
	AlignMiddle AlignEdge = "middle" // vertical centres
)

// MoveElement moves id to the candidate position (x, y), applying grid and
// object snapping, and moves every other selected unlocked element by the
// same delta. Reports whether anything moved.
func (e *Editor) MoveElement(id string, x, y float64) bool {
	doc, ok := e.planMove(id, x, y)
	if ok {
		e.commit("move", doc)
	}
	return ok
}

// ResizeElement sets the bounding box of id. Sizes are floored at MinSize
// and line dimensions under LineFlattenThreshold flatten to a straight line.
func (e *Editor) ResizeElement(id string, x, y, width, height float64) bool {
	doc, ok := e.planResize(id, geometry.Rect{X: x, Y: y, W: width, H: height})
	if ok {
		e.commit("resize", doc)
	}
	return ok
}

func (e *Editor) planDrag(g Gesture) (labelformat.Document, bool) {
	el, ok := e.Document().Find(g.TargetID)
	if !ok {
		return labelformat.Document{}, false
	}
	dx, dy := g.Delta()
	if dx == 0 && dy == 0 {
		return labelformat.Document{}, false
	}
	return e.planMove(el.ID, el.X+geometry.PixelsToInches(dx), el.Y+geometry.PixelsToInches(dy))
}

// moving returns the ids that travel with a drag of id
func (e *Editor) moving(doc labelformat.Document, id string) map[string]bool {
	set := map[string]bool{id: true}
	for _, el := range doc.Elements {
		if !el.Locked && e.IsSelected(el.ID) {
			set[el.ID] = true
		}
	}
	return set
}

func (e *Editor) planMove(id string, x, y float64) (labelformat.Document, bool) {
	doc := e.Document()
	i := doc.Index(id)
	if i < 0 || doc.Elements[i].Locked {
		return doc, false
	}
	el := doc.Elements[i]
	group := e.moving(doc, id)

	x, y = math.Max(0, x), math.Max(0, y)
	if e.state.ObjectSnap {
		var anchors []geometry.Rect
		for _, other := range doc.Elements {
			if !other.Hidden && !group[other.ID] {
				anchors = append(anchors, geometry.RectOf(other))
			}
		}
		res := SnapToObjects(geometry.Rect{X: x, Y: y, W: el.Width, H: el.Height}, anchors, SnapThreshold)
		x, y = math.Max(0, res.X), math.Max(0, res.Y)
	}
	// Grid runs last so it wins over object snap when both are on
	if e.state.GridSnap {
		x, y = SnapToGrid(x), SnapToGrid(y)
	}

	// The whole group stops at the origin together
	minX, minY := x, y
	for _, other := range doc.Elements {
		if other.ID != id && group[other.ID] {
			minX = math.Min(minX, other.X+(x-el.X))
			minY = math.Min(minY, other.Y+(y-el.Y))
		}
	}
	if minX < 0 {
		x = geometry.Round3(x - minX)
	}
	if minY < 0 {
		y = geometry.Round3(y - minY)
	}

	dx, dy := x-el.X, y-el.Y
	if dx == 0 && dy == 0 {
		return doc, false
	}

	for j := range doc.Elements {
		other := &doc.Elements[j]
		if j == i {
			other.X, other.Y = x, y
			continue
		}
		if group[other.ID] {
			other.X = math.Max(0, geometry.Round3(other.X+dx))
			other.Y = math.Max(0, geometry.Round3(other.Y+dy))
		}
	}
	return doc, true
}

func (e *Editor) planResizeGesture(g Gesture) (labelformat.Document, bool) {
	el, ok := e.Document().Find(g.TargetID)
	if !ok {
		return labelformat.Document{}, false
	}
	dx, dy := g.Delta()
	ddx, ddy := geometry.PixelsToInches(dx), geometry.PixelsToInches(dy)

	left, top, right, bottom := el.X, el.Y, el.Right(), el.Bottom()
	movesLeft := g.Handle == HandleNW || g.Handle == HandleSW
	movesTop := g.Handle == HandleNW || g.Handle == HandleNE

	if movesLeft {
		left += ddx
	} else {
		right += ddx
	}
	if movesTop {
		top += ddy
	} else {
		bottom += ddy
	}

	if e.state.GridSnap {
		if movesLeft {
			left = SnapToGrid(left)
		} else {
			right = SnapToGrid(right)
		}
		if movesTop {
			top = SnapToGrid(top)
		} else {
			bottom = SnapToGrid(bottom)
		}
	}

	// The edge opposite the handle stays put
	if movesLeft {
		left = math.Max(0, math.Min(left, right-MinSize))
	} else {
		right = math.Max(right, left+MinSize)
	}
	if movesTop {
		top = math.Max(0, math.Min(top, bottom-MinSize))
	} else {
		bottom = math.Max(bottom, top+MinSize)
	}

	return e.planResize(el.ID, geometry.Rect{X: left, Y: top, W: right - left, H: bottom - top})
}

func (e *Editor) planResize(id string, r geometry.Rect) (labelformat.Document, bool) {
	doc := e.Document()
	i := doc.Index(id)
	if i < 0 || doc.Elements[i].Locked {
		return doc, false
	}
	el := &doc.Elements[i]

	x := geometry.Round3(math.Max(0, r.X))
	y := geometry.Round3(math.Max(0, r.Y))
	w := geometry.Round3(math.Max(MinSize, r.W))
	h := geometry.Round3(math.Max(MinSize, r.H))

	if el.Type == labelformat.TypeLine {
		if w < LineFlattenThreshold {
			w = geometry.FlatLine
		}
		if h < LineFlattenThreshold {
			h = geometry.FlatLine
		}
	}

	if el.X == x && el.Y == y && el.Width == w && el.Height == h {
		return doc, false
	}
	el.X, el.Y, el.Width, el.Height = x, y, w, h
	return doc, true
}

// Nudge moves every selected unlocked element one step, clamped to the
// label origin. Coarse uses the larger step.
func (e *Editor) Nudge(dir Direction, coarse bool) bool {
	step := NudgeStep
	if coarse {
		step = NudgeStepCoarse
	}
	var dx, dy float64
	switch dir {
	case DirUp:
		dy = -step
	case DirDown:
		dy = step
	case DirLeft:
		dx = -step
	case DirRight:
		dx = step
	}

	doc := e.Document()
	changed := false
	for i := range doc.Elements {
		el := &doc.Elements[i]
		if el.Locked || !e.IsSelected(el.ID) {
			continue
		}
		x := math.Max(0, geometry.Round3(el.X+dx))
		y := math.Max(0, geometry.Round3(el.Y+dy))
		if x != el.X || y != el.Y {
			el.X, el.Y = x, y
			changed = true
		}
	}

	if changed {
		e.commit("nudge", doc)
	}
	return changed
}

// Align lines up the selected elements on a common edge or centre. It
// needs at least two selected elements; sizes never change and locked
// elements count towards the target without moving.
func (e *Editor) Align(edge AlignEdge) bool {
	selected := e.Selected()
	if len(selected) < 2 {
		return false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxRight, maxBottom := math.Inf(-1), math.Inf(-1)
	for _, el := range selected {
		minX = math.Min(minX, el.X)
		minY = math.Min(minY, el.Y)
		maxRight = math.Max(maxRight, el.Right())
		maxBottom = math.Max(maxBottom, el.Bottom())
	}

	doc := e.Document()
	changed := false
	for i := range doc.Elements {
		el := &doc.Elements[i]
		if el.Locked || !e.IsSelected(el.ID) {
			continue
		}
		x, y := el.X, el.Y
		switch edge {
		case AlignLeft:
			x = minX
		case AlignRight:
			x = maxRight - el.Width
		case AlignTop:
			y = minY
		case AlignBottom:
			y = maxBottom - el.Height
		case AlignCenter:
			x = (minX+maxRight)/2 - el.Width/2
		case AlignMiddle:
			y = (minY+maxBottom)/2 - el.Height/2
		}
		x, y = math.Max(0, geometry.Round3(x)), math.Max(0, geometry.Round3(y))
		if x != el.X || y != el.Y {
			el.X, el.Y = x, y
			changed = true
		}
	}

	if changed {
		e.commit("align "+string(edge), doc)
	}
	return changed
}

// Duplicate clones the selected elements with new ids, offset by
// PasteOffset, and selects the clones. Returns the new ids.
func (e *Editor) Duplicate() []string {
	return e.insertClones("duplicate", e.Selected())
}

// insertClones appends offset copies of src with fresh ids and selects them
func (e *Editor) insertClones(action string, src []labelformat.Element) []string {
	if len(src) == 0 {
		return nil
	}

	doc := e.Document()
	ids := make([]string, 0, len(src))
	for _, el := range src {
		clone := el
		clone.ID = e.newID()
		clone.X = geometry.Round3(el.X + PasteOffset)
		clone.Y = geometry.Round3(el.Y + PasteOffset)
		doc.Elements = append(doc.Elements, clone)
		ids = append(ids, clone.ID)
	}

	e.commit(action, doc)
	e.state.Selection = ids
	return ids
}

// DeleteSelected removes every selected unlocked element. Locked elements
// stay selected.
func (e *Editor) DeleteSelected() int {
	doc := e.Document()
	kept := doc.Elements[:0]
	removed := 0
	for _, el := range doc.Elements {
		if !el.Locked && e.IsSelected(el.ID) {
			removed++
			continue
		}
		kept = append(kept, el)
	}
	if removed == 0 {
		return 0
	}
	doc.Elements = kept
	e.commit("delete", doc)
	return removed
}

// DeleteElement removes one explicitly targeted element, locked or not
func (e *Editor) DeleteElement(id string) bool {
	doc := e.Document()
	i := doc.Index(id)
	if i < 0 {
		return false
	}
	doc.Elements = append(doc.Elements[:i], doc.Elements[i+1:]...)
	e.commit("delete", doc)
	return true
}

// UpdateElement applies a property edit to one element as a single
// undoable step. The id cannot be changed.
func (e *Editor) UpdateElement(id string, fn func(*labelformat.Element)) error {
	doc := e.Document()
	i := doc.Index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}

	before := doc.Elements[i]
	after := before
	fn(&after)
	after.ID = before.ID

	if err := labelformat.ValidateElements([]labelformat.Element{after}, false); err != nil {
		return fmt.Errorf("invalid element edit: %w", err)
	}
	if after == before {
		return nil
	}

	doc.Elements[i] = after
	e.commit("edit", doc)
	return nil
}

// SetLocked locks or unlocks the selected elements
func (e *Editor) SetLocked(locked bool) bool {
	return e.setFlag("lock", func(el *labelformat.Element) bool {
		if el.Locked == locked {
			return false
		}
		el.Locked = locked
		return true
	})
}

// SetHidden hides or shows the selected elements
func (e *Editor) SetHidden(hidden bool) bool {
	return e.setFlag("hide", func(el *labelformat.Element) bool {
		if el.Hidden == hidden {
			return false
		}
		el.Hidden = hidden
		return true
	})
}

func (e *Editor) setFlag(action string, fn func(*labelformat.Element) bool) bool {
	doc := e.Document()
	changed := false
	for i := range doc.Elements {
		if e.IsSelected(doc.Elements[i].ID) && fn(&doc.Elements[i]) {
			changed = true
		}
	}
	if changed {
		e.commit(action, doc)
	}
	return changed
}

// BringToFront moves the selected elements to the top of the stack,
// keeping their relative order
func (e *Editor) BringToFront() bool {
	return e.restack("bring to front", true)
}

// SendToBack moves the selected elements to the bottom of the stack
func (e *Editor) SendToBack() bool {
	return e.restack("send to back", false)
}

func (e *Editor) restack(action string, front bool) bool {
	doc := e.Document()
	var picked, rest []labelformat.Element
	for _, el := range doc.Elements {
		if e.IsSelected(el.ID) {
			picked = append(picked, el)
		} else {
			rest = append(rest, el)
		}
	}
	if len(picked) == 0 {
		return false
	}

	var order []labelformat.Element
	if front {
		order = append(rest, picked...)
	} else {
		order = append(picked, rest...)
	}

	same := true
	for i := range order {
		if order[i].ID != doc.Elements[i].ID {
			same = false
			break
		}
	}
	if same {
		return false
	}

	doc.Elements = order
	e.commit(action, doc)
	return true
}

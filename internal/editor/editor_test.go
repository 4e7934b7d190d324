package editor

import (
	"fmt"
	"math"
	"testing"

	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// newTestEditor returns an editor with predictable element ids new-1, new-2...
func newTestEditor(elements ...labelformat.Element) *Editor {
	n := 0
	doc := labelformat.Document{Name: "Test", Category: "General", Elements: elements}
	return New(doc, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}))
}

func px(inches float64) float64 {
	return float64(geometry.InchesToPixels(inches))
}

func box(id string, x, y, w, h float64) labelformat.Element {
	return labelformat.Element{
		ID: id, Type: labelformat.TypeShape,
		X: x, Y: y, Width: w, Height: h,
		StrokeColor: "#000000", StrokeWidth: 2,
	}
}

func at(x, y float64) Pointer {
	return Pointer{X: px(x), Y: px(y)}
}

func mustFind(t *testing.T, e *Editor, id string) labelformat.Element {
	t.Helper()
	el, ok := e.Document().Find(id)
	if !ok {
		t.Fatalf("Element %s not found", id)
	}
	return el
}

func TestNew_Defaults(t *testing.T) {
	e := New(labelformat.Document{Name: "Empty"})

	s := e.State()
	if s.Tool != ToolSelect || s.Gesture.Mode != ModeIdle {
		t.Errorf("Expected idle select tool, got %s/%s", s.Tool, s.Gesture.Mode)
	}
	if e.Document().Elements == nil {
		t.Error("Expected non-nil element slice")
	}
	if e.CanUndo() || e.CanRedo() || e.Dirty() {
		t.Error("Expected fresh editor to have no history and no changes")
	}
}

func TestNew_UUIDIDs(t *testing.T) {
	e := New(labelformat.Document{Name: "Empty"})
	e.SetTool(ToolQRCode)
	e.PointerDown(at(2, 2))
	e.PointerUp(at(2, 2))

	id := e.Document().Elements[0].ID
	if len(id) != 36 {
		t.Errorf("Expected uuid element id, got %q", id)
	}
}

func TestDrawFlow_SingleCommit(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolText)

	e.PointerDown(at(1, 1))
	for i := 1; i <= 10; i++ {
		e.PointerMove(Pointer{X: px(1) + float64(i)*19.2, Y: px(1) + float64(i)*4.8})
	}

	if e.CanUndo() || len(e.Document().Elements) != 0 {
		t.Fatal("Expected pointer moves to leave the document untouched")
	}
	if live := e.LiveDocument(); len(live.Elements) != 1 || live.Elements[0].ID != "" {
		t.Errorf("Expected draft element in live document, got %+v", live.Elements)
	}

	e.PointerUp(at(3, 1.5))

	doc := e.Document()
	if len(doc.Elements) != 1 {
		t.Fatalf("Expected 1 element, got %d", len(doc.Elements))
	}
	el := doc.Elements[0]
	if el.X != 1 || el.Y != 1 || el.Width != 2 || el.Height != 0.5 {
		t.Errorf("Expected 1,1 2x0.5, got %g,%g %gx%g", el.X, el.Y, el.Width, el.Height)
	}

	s := e.State()
	if s.Tool != ToolSelect {
		t.Errorf("Expected select tool after creation, got %s", s.Tool)
	}
	if len(s.Selection) != 1 || s.Selection[0] != "new-1" {
		t.Errorf("Expected new element selected, got %v", s.Selection)
	}

	if !e.Undo() {
		t.Fatal("Expected undo to succeed")
	}
	if len(e.Document().Elements) != 0 {
		t.Error("Expected one undo to remove the whole creation")
	}
}

func TestDrawFlow_EscapeMidGesture(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolShape)

	e.PointerDown(at(1, 1))
	e.PointerMove(at(2, 2))
	e.Escape()
	e.PointerUp(at(2, 2))

	if len(e.Document().Elements) != 0 || e.CanUndo() {
		t.Error("Expected cancelled gesture to create nothing")
	}
	if s := e.State(); s.Tool != ToolSelect || s.Gesture.Mode != ModeIdle {
		t.Errorf("Expected idle select tool, got %s/%s", s.Tool, s.Gesture.Mode)
	}
}

func TestEscape_DiscardsClickCreatedElement(t *testing.T) {
	e := newTestEditor(box("a", 3, 3, 1, 1))
	e.SetTool(ToolText)
	e.PointerDown(at(1, 1))
	e.PointerUp(at(1, 1))

	if len(e.Document().Elements) != 2 {
		t.Fatal("Expected click to create an element")
	}

	e.Escape()

	doc := e.Document()
	if len(doc.Elements) != 1 || doc.Elements[0].ID != "a" {
		t.Errorf("Expected click-created element discarded, got %+v", doc.Elements)
	}
	if e.CanUndo() || e.CanRedo() {
		t.Error("Expected discard to leave no history behind")
	}
	if len(e.State().Selection) != 0 {
		t.Error("Expected empty selection")
	}
}

func TestEscape_KeepsEditedClickCreatedElement(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolText)
	e.PointerDown(at(2, 2))
	e.PointerUp(at(2, 2))
	e.Nudge(DirRight, false)

	e.Escape()

	if len(e.Document().Elements) != 1 {
		t.Error("Expected element kept once it has been edited")
	}
}

func TestEscape_KeepsDragCreatedElement(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolShape)
	e.PointerDown(at(1, 1))
	e.PointerUp(at(2, 2))

	e.Escape()

	if len(e.Document().Elements) != 1 {
		t.Error("Expected drag-created element to survive escape")
	}
}

func TestDragMove_SingleCommit(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))

	e.PointerDown(at(1.5, 1.5))
	if e.State().Gesture.Mode != ModeDragging {
		t.Fatalf("Expected dragging, got %s", e.State().Gesture.Mode)
	}
	e.PointerMove(at(1.75, 1.5))
	e.PointerMove(at(2, 1.5))

	if e.CanUndo() {
		t.Fatal("Expected no commit before pointer-up")
	}
	if live := e.LiveDocument(); live.Elements[0].X != 1.5 {
		t.Errorf("Expected live preview at 1.5, got %g", live.Elements[0].X)
	}

	e.PointerUp(at(2, 1.5))

	el := mustFind(t, e, "a")
	if el.X != 1.5 || el.Y != 1 {
		t.Errorf("Expected 1.5,1, got %g,%g", el.X, el.Y)
	}

	e.Undo()
	if el := mustFind(t, e, "a"); el.X != 1 {
		t.Errorf("Expected one undo to restore x=1, got %g", el.X)
	}
}

func TestDragMove_MultiSelectRigid(t *testing.T) {
	e := newTestEditor(
		box("a", 1, 1, 1, 1),
		box("b", 3, 1, 0.5, 0.5),
		labelformat.Element{ID: "c", Type: labelformat.TypeShape, X: 3, Y: 3, Width: 1, Height: 1, Locked: true},
	)

	e.PointerDown(at(1.5, 1.5))
	e.PointerUp(at(1.5, 1.5))
	e.PointerDown(Pointer{X: px(3.25), Y: px(1.25), Shift: true})
	e.PointerUp(Pointer{X: px(3.25), Y: px(1.25), Shift: true})
	e.PointerDown(Pointer{X: px(3.5), Y: px(3.5), Shift: true})
	e.PointerUp(Pointer{X: px(3.5), Y: px(3.5), Shift: true})

	if got := e.State().Selection; len(got) != 3 {
		t.Fatalf("Expected 3 selected, got %v", got)
	}

	e.PointerDown(at(1.5, 1.5))
	e.PointerUp(at(1.5, 2))

	a, b, c := mustFind(t, e, "a"), mustFind(t, e, "b"), mustFind(t, e, "c")
	if a.Y != 1.5 || b.Y != 1.5 {
		t.Errorf("Expected a and b moved by 0.5, got %g and %g", a.Y, b.Y)
	}
	if a.Y-1 != b.Y-1 || a.X != 1 || b.X != 3 {
		t.Error("Expected identical deltas for the moved group")
	}
	if c.Y != 3 {
		t.Errorf("Expected locked element to stay, got y=%g", c.Y)
	}
}

func TestDragMove_GroupStopsAtOrigin(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1), box("b", 0.2, 3, 0.5, 0.5))
	e.SetSelection([]string{"a", "b"})

	e.PointerDown(at(1.5, 1.5))
	e.PointerUp(at(1.0, 1.5))

	a, b := mustFind(t, e, "a"), mustFind(t, e, "b")
	if a.X != 0.8 || b.X != 0 {
		t.Errorf("Expected a at 0.8 and b at 0, got %g and %g", a.X, b.X)
	}
	if geometry.Round3(a.X-1) != geometry.Round3(b.X-0.2) {
		t.Errorf("Expected identical deltas, got %g and %g", a.X-1, b.X-0.2)
	}
	if a.Y != 1 || b.Y != 3 {
		t.Errorf("Expected y untouched, got %g and %g", a.Y, b.Y)
	}
}

func TestPointerUp_PlainClickNarrowsSelection(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1), box("b", 3, 1, 0.5, 0.5))
	e.SetSelection([]string{"a", "b"})

	e.PointerDown(at(1.5, 1.5))
	e.PointerUp(at(1.5, 1.5))

	if got := e.State().Selection; len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected selection [a], got %v", got)
	}
	if e.CanUndo() {
		t.Error("Expected a click not to commit")
	}
	if a := mustFind(t, e, "a"); a.X != 1 || a.Y != 1 {
		t.Errorf("Expected a to stay, got %g,%g", a.X, a.Y)
	}
}

func TestPointerUp_DragKeepsSelection(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1), box("b", 3, 1, 0.5, 0.5))
	e.SetSelection([]string{"a", "b"})

	e.PointerDown(at(1.5, 1.5))
	e.PointerUp(at(1.5, 2))

	if got := e.State().Selection; len(got) != 2 {
		t.Errorf("Expected both still selected after a drag, got %v", got)
	}
}

func TestDrag_LockedElementSelectsWithoutGesture(t *testing.T) {
	e := newTestEditor(labelformat.Element{ID: "a", Type: labelformat.TypeShape, X: 1, Y: 1, Width: 1, Height: 1, Locked: true})

	e.PointerDown(at(1.5, 1.5))

	s := e.State()
	if s.Gesture.Mode != ModeIdle {
		t.Errorf("Expected no gesture on locked element, got %s", s.Gesture.Mode)
	}
	if len(s.Selection) != 1 || s.Selection[0] != "a" {
		t.Errorf("Expected locked element selected, got %v", s.Selection)
	}
}

func TestResizeHandle(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	e.Select("a")

	hit := e.HitTest(at(2, 2))
	if hit.ID != "a" || hit.Handle != HandleSE {
		t.Fatalf("Expected SE handle, got %+v", hit)
	}

	e.PointerDown(at(2, 2))
	e.PointerUp(at(2.5, 2.5))

	el := mustFind(t, e, "a")
	if el.X != 1 || el.Y != 1 || el.Width != 1.5 || el.Height != 1.5 {
		t.Errorf("Expected 1,1 1.5x1.5, got %g,%g %gx%g", el.X, el.Y, el.Width, el.Height)
	}
}

func TestResizeHandle_OppositeEdgeFixed(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	e.Select("a")

	e.PointerDown(at(1, 1))
	e.PointerUp(at(3, 3))

	el := mustFind(t, e, "a")
	if math.Abs(el.Right()-2) > 1e-9 || math.Abs(el.Bottom()-2) > 1e-9 {
		t.Errorf("Expected SE corner to stay at 2,2, got %g,%g", el.Right(), el.Bottom())
	}
	if el.Width < MinSize || el.Height < MinSize {
		t.Errorf("Expected minimum size, got %gx%g", el.Width, el.Height)
	}
}

func TestPointerDown_BackgroundClearsSelection(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	e.Select("a")

	e.PointerDown(at(4, 4))
	e.PointerUp(at(4, 4))

	if len(e.State().Selection) != 0 {
		t.Error("Expected background click to clear the selection")
	}
}

func TestPointerDown_ShiftToggles(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1), box("b", 3, 1, 1, 1))
	e.Select("a")

	e.PointerDown(Pointer{X: px(3.5), Y: px(1.5), Shift: true})
	if !e.IsSelected("a") || !e.IsSelected("b") {
		t.Fatal("Expected shift-click to add to the selection")
	}

	e.PointerDown(Pointer{X: px(1.5), Y: px(1.5), Shift: true})
	if e.IsSelected("a") || !e.IsSelected("b") {
		t.Error("Expected shift-click to remove from the selection")
	}
}

func TestUndoRedo_SelectionPruned(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	e.SetTool(ToolShape)
	e.PointerDown(at(3, 3))
	e.PointerUp(at(4, 4))

	e.SetSelection([]string{"a", "new-1"})
	e.Undo()

	if got := e.State().Selection; len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected selection pruned to [a], got %v", got)
	}

	e.Redo()
	if got := e.State().Selection; len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected redo to keep selection [a], got %v", got)
	}
	if len(e.Document().Elements) != 2 {
		t.Error("Expected redo to restore the element")
	}
}

func TestUndo_BlockedDuringGesture(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	e.Nudge(DirRight, false)
	e.Select("a")
	e.Nudge(DirRight, false)

	e.PointerDown(at(1.5, 1.5))
	if e.Undo() {
		t.Error("Expected undo to be ignored mid-gesture")
	}
}

func TestUndoRedo_NewEditClearsRedo(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	e.Select("a")
	e.Nudge(DirRight, true)
	e.Undo()

	if !e.CanRedo() {
		t.Fatal("Expected redo available")
	}
	e.Nudge(DirDown, true)
	if e.CanRedo() {
		t.Error("Expected new edit to clear the redo branch")
	}
}

func TestDirty(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	if e.Dirty() {
		t.Fatal("Expected clean editor")
	}

	e.SetName("Renamed")
	if !e.Dirty() {
		t.Error("Expected dirty after rename")
	}

	e.Undo()
	if e.Dirty() {
		t.Error("Expected clean after undoing back to the saved state")
	}
}

func TestSetName_NoopDoesNotCommit(t *testing.T) {
	e := newTestEditor()
	e.SetName("Test")
	e.SetCategory("General")
	e.SetStock("")

	if e.CanUndo() {
		t.Error("Expected unchanged properties not to commit")
	}

	e.SetStock("avery-5160")
	if e.Document().StockID != "avery-5160" || !e.CanUndo() {
		t.Error("Expected stock change to commit")
	}
}

func TestSetTool_IgnoredDuringGesture(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolBarcode)
	e.PointerDown(at(1, 1))
	e.SetTool(ToolLine)

	if e.State().Tool != ToolBarcode {
		t.Errorf("Expected barcode tool kept, got %s", e.State().Tool)
	}

	e.PointerUp(at(3, 2))
	el := e.Document().Elements[0]
	if el.Type != labelformat.TypeBarcode || el.BarcodeType != labelformat.DefaultBarcodeType {
		t.Errorf("Expected default barcode, got %s/%s", el.Type, el.BarcodeType)
	}
}

func TestHitTest(t *testing.T) {
	line := labelformat.Element{
		ID: "line", Type: labelformat.TypeLine,
		X: 0, Y: 3, Width: 2, Height: 0.05,
		StrokeColor: "#000000", StrokeWidth: 2, LineDirection: labelformat.LineDown,
	}
	hidden := box("hidden", 0, 0, 4, 4)
	hidden.Hidden = true

	e := newTestEditor(box("bottom", 1, 1, 2, 2), box("top", 2, 2, 2, 2), line, hidden)

	tests := []struct {
		name string
		p    Pointer
		want string
	}{
		{"topmost wins overlap", at(2.5, 2.5), "top"},
		{"bottom only", at(1.2, 1.2), "bottom"},
		{"line within slop", Pointer{X: px(1), Y: px(3.025) + 4}, "line"},
		{"line outside slop", Pointer{X: px(1), Y: px(3.025) + 12}, ""},
		{"background", at(5, 5), ""},
		{"hidden ignored", at(0.5, 0.5), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.HitTest(tt.p); got.ID != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got.ID)
			}
		})
	}
}

func TestSelectAll_SkipsHidden(t *testing.T) {
	hidden := box("h", 0, 0, 1, 1)
	hidden.Hidden = true
	e := newTestEditor(box("a", 1, 1, 1, 1), hidden, box("b", 2, 2, 1, 1))

	e.SelectAll()

	if got := e.State().Selection; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected [a b], got %v", got)
	}
}

func TestState_ReturnsCopy(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	e.Select("a")

	s := e.State()
	s.Selection[0] = "mutated"

	if !e.IsSelected("a") {
		t.Error("Expected State to return an independent selection")
	}
}

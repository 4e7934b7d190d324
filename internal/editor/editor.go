// Package editor implements the label canvas editing engine: the drawing
// tool state machine, selection and transforms, snapping, clipboard and
// undo/redo over document snapshots. It is single-threaded and performs no
// I/O of its own; persistence goes through a TemplateStore.
package editor

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/thereceipt/label-designer/internal/history"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// Editor edits one label document
type Editor struct {
	history   *history.History
	state     State
	clipboard []labelformat.Element

	newID  func() string
	logger *slog.Logger
	store  TemplateStore

	templateID string
	savedRev   int

	// click-created element that may still be discarded by Escape
	pendingID  string
	pendingRev int
}

// Option configures an Editor
type Option func(*Editor)

// WithLogger sets the logger used for editor events
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithIDGenerator replaces the uuid element id generator
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) { e.newID = fn }
}

// WithStore sets the template persistence backend
func WithStore(s TemplateStore) Option {
	return func(e *Editor) { e.store = s }
}

// WithHistoryLimit caps the number of undo snapshots
func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.history = history.New(e.history.Current(), n) }
}

// WithSnapping sets the initial grid and object snap toggles
func WithSnapping(grid, object bool) Option {
	return func(e *Editor) {
		e.state.GridSnap = grid
		e.state.ObjectSnap = object
	}
}

// New creates an editor over doc
func New(doc labelformat.Document, opts ...Option) *Editor {
	if doc.Elements == nil {
		doc.Elements = []labelformat.Element{}
	}

	e := &Editor{
		history: history.New(doc, 0),
		state:   State{Tool: ToolSelect},
		newID:   func() string { return uuid.New().String() },
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.savedRev = e.history.Revision()
	return e
}

// Document returns a copy of the current document
func (e *Editor) Document() labelformat.Document {
	return e.history.Current()
}

// State returns a copy of the UI state
func (e *Editor) State() State {
	s := e.state
	s.Selection = append([]string(nil), e.state.Selection...)
	return s
}

// TemplateID returns the persisted id of the document, empty until saved or loaded
func (e *Editor) TemplateID() string { return e.templateID }

// Dirty reports whether the document changed since it was last saved or loaded
func (e *Editor) Dirty() bool { return e.history.Revision() != e.savedRev }

// CanUndo reports whether Undo would change the document
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would change the document
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// Undo restores the previous snapshot. The selection is kept, minus ids
// that no longer exist.
func (e *Editor) Undo() bool {
	if e.state.Gesture.Mode != ModeIdle || !e.history.Undo() {
		return false
	}
	e.pendingID = ""
	e.pruneSelection()
	e.logger.Debug("undo", "index", e.history.Index())
	return true
}

// Redo reapplies the next snapshot with the same selection rule as Undo
func (e *Editor) Redo() bool {
	if e.state.Gesture.Mode != ModeIdle || !e.history.Redo() {
		return false
	}
	e.pendingID = ""
	e.pruneSelection()
	e.logger.Debug("redo", "index", e.history.Index())
	return true
}

// commit stores doc as one undoable step
func (e *Editor) commit(action string, doc labelformat.Document) {
	e.history.Commit(doc)
	e.pendingID = ""
	e.pruneSelection()
	e.logger.Debug("commit", "action", action, "elements", len(doc.Elements), "index", e.history.Index())
}

// SetTool switches the active tool. Ignored while a gesture is in progress.
func (e *Editor) SetTool(t Tool) {
	e.state, _ = Transition(e.state, Event{Kind: EventSetTool, Tool: t})
}

// SetGridSnap toggles grid snapping
func (e *Editor) SetGridSnap(on bool) { e.state.GridSnap = on }

// SetObjectSnap toggles object snapping
func (e *Editor) SetObjectSnap(on bool) { e.state.ObjectSnap = on }

// SetName renames the document
func (e *Editor) SetName(name string) {
	doc := e.Document()
	if doc.Name == name {
		return
	}
	doc.Name = name
	e.commit("rename", doc)
}

// SetCategory changes the document category
func (e *Editor) SetCategory(category string) {
	doc := e.Document()
	if doc.Category == category {
		return
	}
	doc.Category = category
	e.commit("category", doc)
}

// SetStock changes the stock the document is designed for
func (e *Editor) SetStock(stockID string) {
	doc := e.Document()
	if doc.StockID == stockID {
		return
	}
	doc.StockID = stockID
	e.commit("stock", doc)
}

// PointerDown starts a gesture: drawing with a creation tool on the
// background, dragging or resizing when an element or handle is hit.
func (e *Editor) PointerDown(p Pointer) {
	if e.state.Gesture.Mode != ModeIdle {
		return
	}

	hit := e.HitTest(p)
	if hit.ID == "" {
		if e.state.Tool == ToolSelect && !p.Shift {
			e.ClearSelection()
		}
		e.state, _ = Transition(e.state, Event{Kind: EventPointerDown, Pointer: p})
		return
	}

	if p.Shift && hit.Handle == HandleNone {
		e.ToggleSelect(hit.ID)
		return
	}
	if !e.IsSelected(hit.ID) {
		e.Select(hit.ID)
	}

	el, _ := e.Document().Find(hit.ID)
	if el.Locked {
		return
	}
	e.state, _ = Transition(e.state, Event{Kind: EventPointerDown, Pointer: p, Hit: hit})
}

// PointerMove tracks the active gesture. It never commits.
func (e *Editor) PointerMove(p Pointer) {
	e.state, _ = Transition(e.state, Event{Kind: EventPointerMove, Pointer: p})
}

// PointerUp finishes the active gesture with a single commit
func (e *Editor) PointerUp(p Pointer) {
	var done *Gesture
	e.state, done = Transition(e.state, Event{Kind: EventPointerUp, Pointer: p})
	if done == nil {
		return
	}

	switch done.Mode {
	case ModeDrawing:
		e.finishDrawing(*done)
	case ModeDragging:
		if dx, dy := done.Delta(); dx == 0 && dy == 0 {
			// A plain click on a member of a multi-selection narrows it
			if !done.Shift {
				e.Select(done.TargetID)
			}
			return
		}
		if doc, ok := e.planDrag(*done); ok {
			e.commit("move", doc)
		}
	case ModeResizing:
		if doc, ok := e.planResizeGesture(*done); ok {
			e.commit("resize", doc)
		}
	}
}

// Escape cancels the gesture in progress. When idle it discards an
// untouched click-created element, clears the selection and returns to
// the select tool.
func (e *Editor) Escape() {
	mode := e.state.Gesture.Mode
	e.state, _ = Transition(e.state, Event{Kind: EventEscape})
	if mode != ModeIdle {
		e.logger.Debug("gesture cancelled", "mode", mode.String())
		return
	}

	if e.pendingID != "" && e.pendingRev == e.history.Revision() && e.history.Rollback() {
		e.logger.Debug("discarded new element", "id", e.pendingID)
		e.pendingID = ""
	}
	e.ClearSelection()
}

func (e *Editor) finishDrawing(g Gesture) {
	t, ok := e.state.Tool.ElementType()
	if !ok {
		return
	}

	el, clicked := BuildElement(t, g, e.newID())
	doc := e.Document()
	doc.Elements = append(doc.Elements, el)
	e.commit("create", doc)

	e.state.Selection = []string{el.ID}
	e.state.Tool = ToolSelect
	if clicked {
		e.pendingID = el.ID
		e.pendingRev = e.history.Revision()
	}
	e.logger.Debug("element created", "id", el.ID, "type", string(el.Type), "clicked", clicked)
}

// LiveDocument returns the document as it would look if the gesture in
// progress ended now. Drawing gestures append a draft element with an
// empty id.
func (e *Editor) LiveDocument() labelformat.Document {
	g := e.state.Gesture
	switch g.Mode {
	case ModeDrawing:
		doc := e.Document()
		if t, ok := e.state.Tool.ElementType(); ok {
			draft, _ := BuildElement(t, g, "")
			doc.Elements = append(doc.Elements, draft)
		}
		return doc
	case ModeDragging:
		if doc, ok := e.planDrag(g); ok {
			return doc
		}
	case ModeResizing:
		if doc, ok := e.planResizeGesture(g); ok {
			return doc
		}
	}
	return e.Document()
}

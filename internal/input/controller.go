// Package input maps keyboard events onto editor operations
package input

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/thereceipt/label-designer/internal/editor"
)

// Outcome describes what a handled key did
type Outcome struct {
	Action  string
	Changed bool
	Message string
}

// Controller routes key presses to an editor. While a text field has
// focus every shortcut is ignored so typing reaches the field.
type Controller struct {
	editor    *editor.Editor
	keys      KeyMap
	textFocus bool
}

// New creates a controller with the default key map
func New(e *editor.Editor) *Controller {
	return &Controller{editor: e, keys: DefaultKeyMap()}
}

// KeyMap returns the active bindings
func (c *Controller) KeyMap() KeyMap { return c.keys }

// SetTextFocus marks whether a text field currently owns the keyboard
func (c *Controller) SetTextFocus(focused bool) { c.textFocus = focused }

// TextFocused reports whether shortcuts are suspended
func (c *Controller) TextFocused() bool { return c.textFocus }

// HandleKey applies the shortcut bound to msg. It reports false when the
// key is not a shortcut or a text field has focus.
func (c *Controller) HandleKey(msg tea.KeyMsg) (Outcome, bool) {
	if c.textFocus {
		return Outcome{}, false
	}

	e := c.editor
	k := c.keys

	switch {
	case key.Matches(msg, k.Undo):
		return Outcome{Action: "undo", Changed: e.Undo()}, true
	case key.Matches(msg, k.Redo):
		return Outcome{Action: "redo", Changed: e.Redo()}, true

	case key.Matches(msg, k.Copy):
		n := e.Copy()
		return Outcome{Action: "copy", Message: fmt.Sprintf("copied %d element(s)", n)}, true
	case key.Matches(msg, k.Cut):
		n := e.Cut()
		return Outcome{Action: "cut", Changed: n > 0, Message: fmt.Sprintf("cut %d element(s)", n)}, true
	case key.Matches(msg, k.Paste):
		ids := e.Paste()
		return Outcome{Action: "paste", Changed: len(ids) > 0, Message: fmt.Sprintf("pasted %d element(s)", len(ids))}, true
	case key.Matches(msg, k.Duplicate):
		ids := e.Duplicate()
		return Outcome{Action: "duplicate", Changed: len(ids) > 0}, true
	case key.Matches(msg, k.Delete):
		n := e.DeleteSelected()
		return Outcome{Action: "delete", Changed: n > 0}, true
	case key.Matches(msg, k.SelectAll):
		e.SelectAll()
		return Outcome{Action: "select all"}, true
	case key.Matches(msg, k.Escape):
		e.Escape()
		return Outcome{Action: "escape"}, true

	case key.Matches(msg, k.Up):
		return c.nudge(editor.DirUp, false), true
	case key.Matches(msg, k.Down):
		return c.nudge(editor.DirDown, false), true
	case key.Matches(msg, k.Left):
		return c.nudge(editor.DirLeft, false), true
	case key.Matches(msg, k.Right):
		return c.nudge(editor.DirRight, false), true
	case key.Matches(msg, k.CoarseUp):
		return c.nudge(editor.DirUp, true), true
	case key.Matches(msg, k.CoarseDown):
		return c.nudge(editor.DirDown, true), true
	case key.Matches(msg, k.CoarseLeft):
		return c.nudge(editor.DirLeft, true), true
	case key.Matches(msg, k.CoarseRight):
		return c.nudge(editor.DirRight, true), true

	case key.Matches(msg, k.ToggleGrid):
		on := !e.State().GridSnap
		e.SetGridSnap(on)
		return Outcome{Action: "grid", Message: "grid snap " + onOff(on)}, true
	case key.Matches(msg, k.ToggleSnap):
		on := !e.State().ObjectSnap
		e.SetObjectSnap(on)
		return Outcome{Action: "snap", Message: "object snap " + onOff(on)}, true
	case key.Matches(msg, k.Front):
		return Outcome{Action: "front", Changed: e.BringToFront()}, true
	case key.Matches(msg, k.Back):
		return Outcome{Action: "back", Changed: e.SendToBack()}, true
	}

	for _, t := range editor.Tools {
		if b, ok := k.Tools[t]; ok && key.Matches(msg, b) {
			e.SetTool(t)
			return Outcome{Action: "tool", Message: "tool: " + string(e.State().Tool)}, true
		}
	}
	return Outcome{}, false
}

func (c *Controller) nudge(dir editor.Direction, coarse bool) Outcome {
	return Outcome{Action: "nudge", Changed: c.editor.Nudge(dir, coarse)}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

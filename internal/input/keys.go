package input

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/thereceipt/label-designer/internal/editor"
)

// KeyMap holds the editor's keyboard shortcuts
type KeyMap struct {
	Undo      key.Binding
	Redo      key.Binding
	Copy      key.Binding
	Cut       key.Binding
	Paste     key.Binding
	Duplicate key.Binding
	Delete    key.Binding
	SelectAll key.Binding
	Escape    key.Binding

	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	CoarseUp    key.Binding
	CoarseDown  key.Binding
	CoarseLeft  key.Binding
	CoarseRight key.Binding

	ToggleGrid key.Binding
	ToggleSnap key.Binding
	Front      key.Binding
	Back       key.Binding

	Tools map[editor.Tool]key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Undo:      key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "undo")),
		Redo:      key.NewBinding(key.WithKeys("ctrl+y", "ctrl+shift+z"), key.WithHelp("ctrl+y", "redo")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "copy")),
		Cut:       key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "cut")),
		Paste:     key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
		Duplicate: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "duplicate")),
		Delete:    key.NewBinding(key.WithKeys("delete", "backspace"), key.WithHelp("del", "delete")),
		SelectAll: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "select all")),
		Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

		Up:          key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "nudge")),
		Down:        key.NewBinding(key.WithKeys("down")),
		Left:        key.NewBinding(key.WithKeys("left")),
		Right:       key.NewBinding(key.WithKeys("right")),
		CoarseUp:    key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("shift+↑", "nudge 0.1in")),
		CoarseDown:  key.NewBinding(key.WithKeys("shift+down")),
		CoarseLeft:  key.NewBinding(key.WithKeys("shift+left")),
		CoarseRight: key.NewBinding(key.WithKeys("shift+right")),

		ToggleGrid: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "grid snap")),
		ToggleSnap: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "object snap")),
		Front:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "bring to front")),
		Back:       key.NewBinding(key.WithKeys("["), key.WithHelp("[", "send to back")),

		Tools: map[editor.Tool]key.Binding{
			editor.ToolSelect:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "select")),
			editor.ToolText:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "text")),
			editor.ToolBarcode: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "barcode")),
			editor.ToolQRCode:  key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "qr code")),
			editor.ToolImage:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "image")),
			editor.ToolShape:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rectangle")),
			editor.ToolLine:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "line")),
		},
	}
}

// ShortHelp returns the bindings shown in the status bar
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Undo, k.Redo, k.Duplicate, k.Delete, k.ToggleGrid, k.ToggleSnap}
}

// ToolHelp returns the tool bindings in toolbar order
func (k KeyMap) ToolHelp() []key.Binding {
	out := make([]key.Binding, 0, len(editor.Tools))
	for _, t := range editor.Tools {
		if b, ok := k.Tools[t]; ok {
			out = append(out, b)
		}
	}
	return out
}

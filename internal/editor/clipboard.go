package editor

import (
	"fmt"

	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// Copy places copies of the selected elements on the clipboard, ids unchanged
func (e *Editor) Copy() int {
	selected := e.Selected()
	if len(selected) == 0 {
		return 0
	}
	e.clipboard = selected
	return len(selected)
}

// Cut copies the selection and deletes the unlocked part of it
func (e *Editor) Cut() int {
	if e.Copy() == 0 {
		return 0
	}
	return e.DeleteSelected()
}

// Paste inserts the clipboard as new elements offset by PasteOffset and
// selects them. The clipboard advances to the pasted copies so repeated
// pastes cascade.
func (e *Editor) Paste() []string {
	ids := e.insertClones("paste", e.clipboard)
	if len(ids) > 0 {
		e.clipboard = e.Selected()
	}
	return ids
}

// Clipboard returns copies of the clipboard contents
func (e *Editor) Clipboard() []labelformat.Element {
	return append([]labelformat.Element(nil), e.clipboard...)
}

// Export serializes the document's name, category and elements to JSON
func (e *Editor) Export() ([]byte, error) {
	export := labelformat.ExportOf(e.Document())
	data, err := export.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export document: %w", err)
	}
	return data, nil
}

// Import replaces the document's name, category and elements with the
// contents of document JSON as one undoable step. Every element gets a
// fresh id. On error the document is left untouched.
func (e *Editor) Import(data []byte) error {
	export, err := labelformat.Parse(data)
	if err != nil {
		e.logger.Warn("import rejected", "error", err)
		return fmt.Errorf("failed to import document: %w", err)
	}

	doc := e.Document()
	doc.Name = export.Name
	doc.Category = export.Category
	doc.Elements = make([]labelformat.Element, len(export.Elements))
	for i, el := range export.Elements {
		el.ID = e.newID()
		doc.Elements[i] = el
	}

	e.commit("import", doc)
	e.ClearSelection()
	e.logger.Info("document imported", "name", doc.Name, "elements", len(doc.Elements))
	return nil
}

package editor

import (
	"errors"
	"strings"
	"testing"

	"github.com/thereceipt/label-designer/pkg/labelformat"
)

func TestCopyPaste(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1), box("b", 2, 0.5, 0.5, 0.5))
	e.SelectAll()

	if n := e.Copy(); n != 2 {
		t.Fatalf("Expected 2 copied, got %d", n)
	}

	before := e.Document()
	ids := e.Paste()
	after := e.Document()

	if len(after.Elements) != len(before.Elements)+2 {
		t.Fatalf("Expected 2 pasted elements, got %d total", len(after.Elements))
	}

	for i, id := range ids {
		if before.Index(id) >= 0 {
			t.Errorf("Expected pasted id %s to be new", id)
		}
		src := before.Elements[i]
		got, _ := after.Find(id)

		want := src
		want.ID = id
		want.X += PasteOffset
		want.Y += PasteOffset
		if got != want {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	}

	if got := e.State().Selection; len(got) != 2 || got[0] != ids[0] || got[1] != ids[1] {
		t.Errorf("Expected pasted elements selected, got %v", got)
	}
}

func TestPaste_Cascades(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	e.Select("a")
	e.Copy()

	e.Paste()
	ids := e.Paste()

	el := mustFind(t, e, ids[0])
	if el.X != 1.5 || el.Y != 1.5 {
		t.Errorf("Expected second paste at 1.5,1.5, got %g,%g", el.X, el.Y)
	}
}

func TestPaste_EmptyClipboard(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))

	if ids := e.Paste(); ids != nil {
		t.Errorf("Expected nothing pasted, got %v", ids)
	}
	if e.CanUndo() {
		t.Error("Expected no commit")
	}
}

func TestCut(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1), box("b", 2, 2, 1, 1))
	e.Select("a")

	if n := e.Cut(); n != 1 {
		t.Fatalf("Expected 1 cut, got %d", n)
	}
	if e.Document().Index("a") >= 0 {
		t.Error("Expected a removed")
	}
	if clip := e.Clipboard(); len(clip) != 1 || clip[0].ID != "a" {
		t.Errorf("Expected a on the clipboard, got %+v", clip)
	}

	ids := e.Paste()
	if el := mustFind(t, e, ids[0]); el.X != 1.25 {
		t.Errorf("Expected pasted cut element at 1.25, got %g", el.X)
	}
}

func TestExport(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))
	e.SetStock("avery-5160")

	data, err := e.Export()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out := string(data)
	for _, want := range []string{`"name": "Test"`, `"category": "General"`, `"elements"`, `"id": "a"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected export to contain %s, got %s", want, out)
		}
	}
	if strings.Contains(out, "stock_id") {
		t.Error("Expected export without stock")
	}
}

func TestImport(t *testing.T) {
	e := newTestEditor(box("old", 1, 1, 1, 1))
	e.SetStock("avery-5160")
	e.Select("old")

	data := []byte(`{
		"name": "Asset Tag",
		"category": "IT",
		"elements": [
			{"id": "x", "type": "rectangle", "x": 0.5, "y": 0.5, "width": 1, "height": 1},
			{"id": "x", "type": "line", "x": 0, "y": 2, "width": 2, "height": 0.05}
		]
	}`)

	if err := e.Import(data); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	doc := e.Document()
	if doc.Name != "Asset Tag" || doc.Category != "IT" {
		t.Errorf("Expected imported name and category, got %s/%s", doc.Name, doc.Category)
	}
	if doc.StockID != "avery-5160" {
		t.Errorf("Expected stock kept, got %q", doc.StockID)
	}
	if len(doc.Elements) != 2 {
		t.Fatalf("Expected 2 elements, got %d", len(doc.Elements))
	}
	if doc.Elements[0].ID == doc.Elements[1].ID || doc.Elements[0].ID == "x" {
		t.Errorf("Expected fresh unique ids, got %s and %s", doc.Elements[0].ID, doc.Elements[1].ID)
	}
	if doc.Elements[0].Type != labelformat.TypeShape || doc.Elements[1].LineDirection != labelformat.LineDown {
		t.Error("Expected legacy elements migrated")
	}
	if len(e.State().Selection) != 0 {
		t.Error("Expected selection cleared")
	}

	e.Undo()
	if doc := e.Document(); doc.Name != "Test" || doc.Index("old") < 0 {
		t.Error("Expected import to undo in one step")
	}
}

func TestImport_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"missing elements", `{"name": "No elements"}`, labelformat.ErrMissingElements},
		{"null elements", `{"name": "x", "elements": null}`, labelformat.ErrMissingElements},
		{"object elements", `{"name": "x", "elements": {}}`, labelformat.ErrMissingElements},
		{"malformed", `{"name": `, nil},
		{"invalid element", `{"elements": [{"type": "sticker"}]}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor(box("a", 1, 1, 1, 1))

			err := e.Import([]byte(tt.data))
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}

			doc := e.Document()
			if len(doc.Elements) != 1 || doc.Name != "Test" || e.CanUndo() {
				t.Error("Expected document untouched")
			}
		})
	}
}

func TestImport_EmptyArray(t *testing.T) {
	e := newTestEditor(box("a", 1, 1, 1, 1))

	if err := e.Import([]byte(`{"name": "Blank", "elements": []}`)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(e.Document().Elements) != 0 {
		t.Error("Expected empty document")
	}
}

package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/thereceipt/label-designer/internal/editor"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

type memStore struct {
	templates map[string]labelformat.Template
	stocks    []labelformat.Stock
	err       error
}

func (m *memStore) Save(ctx context.Context, t labelformat.Template) (labelformat.Template, error) {
	if m.err != nil {
		return labelformat.Template{}, m.err
	}
	if t.ID == "" {
		t.ID = fmt.Sprintf("tpl-%d", len(m.templates)+1)
	}
	m.templates[t.ID] = t
	return t, nil
}

func (m *memStore) Load(ctx context.Context, id string) (labelformat.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return labelformat.Template{}, errors.New("template not found")
	}
	return t, nil
}

func (m *memStore) ListStocks(ctx context.Context) ([]labelformat.Stock, error) {
	return m.stocks, m.err
}

func newExecutor(elements ...labelformat.Element) (*Executor, *editor.Editor, *memStore) {
	store := &memStore{
		templates: map[string]labelformat.Template{},
		stocks:    []labelformat.Stock{{ID: "avery-5160", Name: "Avery 5160", LabelWidth: 2.625, LabelHeight: 1}},
	}
	n := 0
	ed := editor.New(
		labelformat.Document{Name: "Test", Elements: elements},
		editor.WithStore(store),
		editor.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("new-%d", n)
		}),
	)
	return NewExecutor(ed, store), ed, store
}

func box(id string, x, y float64) labelformat.Element {
	return labelformat.Element{ID: id, Type: labelformat.TypeShape, X: x, Y: y, Width: 1, Height: 0.5}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"save", []string{"save"}},
		{"name  Cable   Label", []string{"name", "Cable", "Label"}},
		{`name "Cable Label"`, []string{"name", "Cable Label"}},
		{`set text '{A} "quoted"'`, []string{"set", "text", `{A} "quoted"`}},
		{`set text ""`, []string{"set", "text", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseCommand(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseCommand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExecute_UnknownAndEmpty(t *testing.T) {
	ex, _, _ := newExecutor()

	if res := ex.Execute(""); res.Success || res.Error != "empty command" {
		t.Errorf("Expected empty command error, got %+v", res)
	}
	if res := ex.Execute("frobnicate"); res.Success || !strings.Contains(res.Error, "unknown command") {
		t.Errorf("Expected unknown command error, got %+v", res)
	}
}

func TestExecute_Usage(t *testing.T) {
	ex, _, _ := newExecutor()

	for _, cmd := range []string{"load", "import", "align", "tool", "select", "set", "set x"} {
		res := ex.Execute(cmd)
		if res.Success || !strings.HasPrefix(res.Error, "usage:") {
			t.Errorf("%s: expected usage error, got %+v", cmd, res)
		}
	}
}

func TestExecute_NameCategoryStock(t *testing.T) {
	ex, ed, _ := newExecutor()

	ex.Execute(`name "Cable Label"`)
	ex.Execute("category Cables")
	res := ex.Execute("stock avery-5160")
	if !res.Success {
		t.Fatalf("stock failed: %s", res.Error)
	}

	doc := ed.Document()
	if doc.Name != "Cable Label" || doc.Category != "Cables" || doc.StockID != "avery-5160" {
		t.Errorf("Unexpected document %+v", doc)
	}

	if res := ex.Execute("stock nope"); res.Success {
		t.Error("Expected unknown stock rejected")
	}
	if res := ex.Execute("stock"); !res.Success || !strings.Contains(res.Message, "Avery 5160") {
		t.Errorf("Expected stock listing, got %+v", res)
	}
}

func TestExecute_SaveAndLoad(t *testing.T) {
	ex, ed, store := newExecutor(box("a", 0, 0))

	if res := ex.Execute("save"); res.Success || res.Error != editor.ErrStockRequired.Error() {
		t.Errorf("Expected stock required, got %+v", res)
	}

	ex.Execute("stock avery-5160")
	res := ex.Execute("save")
	if !res.Success || res.Data["id"] != "tpl-1" {
		t.Fatalf("Expected saved tpl-1, got %+v", res)
	}
	if len(store.templates) != 1 {
		t.Fatalf("Expected one stored template, got %d", len(store.templates))
	}

	ex.Execute("name Changed")
	if res := ex.Execute("load tpl-1"); res.Success {
		t.Error("Expected load refused with unsaved changes")
	}
	if res := ex.Execute("load tpl-1 --force"); !res.Success {
		t.Fatalf("load failed: %s", res.Error)
	}
	if ed.Document().Name != "Test" || ed.Dirty() {
		t.Errorf("Expected clean stored document, got %q dirty=%v", ed.Document().Name, ed.Dirty())
	}
}

func TestExecute_New(t *testing.T) {
	ex, ed, _ := newExecutor(box("a", 0, 0))
	ex.Execute("stock avery-5160")

	if res := ex.Execute("new Fresh"); res.Success {
		t.Fatal("Expected new refused with unsaved changes")
	}
	if res := ex.Execute("new Fresh Label --force"); !res.Success {
		t.Fatalf("new failed: %s", res.Error)
	}

	doc := ed.Document()
	if doc.Name != "Fresh Label" || doc.StockID != "avery-5160" || len(doc.Elements) != 0 {
		t.Errorf("Unexpected document %+v", doc)
	}
}

func TestExecute_ExportImport(t *testing.T) {
	ex, ed, _ := newExecutor(box("a", 0.5, 0.5))
	path := filepath.Join(t.TempDir(), "label.json")

	res := ex.Execute("export " + path)
	if !res.Success {
		t.Fatalf("export failed: %s", res.Error)
	}
	if !strings.Contains(res.Data["json"].(string), `"elements"`) {
		t.Error("Expected JSON in result data")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected export file: %v", err)
	}

	ex.Execute("delete a")
	if res := ex.Execute("import " + path); !res.Success {
		t.Fatalf("import failed: %s", res.Error)
	}
	doc := ed.Document()
	if len(doc.Elements) != 1 || doc.Elements[0].ID == "a" || doc.Elements[0].X != 0.5 {
		t.Errorf("Expected imported element with fresh id, got %+v", doc.Elements)
	}
}

func TestExecute_ImportRejected(t *testing.T) {
	ex, ed, _ := newExecutor(box("a", 0, 0))
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"name":"x"}`), 0644)

	if res := ex.Execute("import " + path); res.Success {
		t.Error("Expected import without elements rejected")
	}
	if res := ex.Execute("import /does/not/exist.json"); res.Success {
		t.Error("Expected missing file rejected")
	}
	if _, ok := ed.Document().Find("a"); !ok {
		t.Error("Expected document unchanged")
	}
}

func TestExecute_ImportURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Remote","category":"","elements":[{"id":"x","type":"qrcode","x":0,"y":0,"width":1,"height":1}]}`))
	}))
	defer srv.Close()

	ex, ed, _ := newExecutor()
	if res := ex.Execute("import " + srv.URL); !res.Success {
		t.Fatalf("import failed: %s", res.Error)
	}
	if ed.Document().Name != "Remote" {
		t.Errorf("Expected remote document, got %q", ed.Document().Name)
	}
}

func TestExecute_Align(t *testing.T) {
	ex, ed, _ := newExecutor(box("a", 1, 0), box("b", 0.5, 1))

	ex.Execute("select a")
	if res := ex.Execute("align left"); res.Success {
		t.Error("Expected align refused with one selection")
	}

	ex.Execute("select a b")
	if res := ex.Execute("align diagonal"); res.Success {
		t.Error("Expected unknown edge rejected")
	}
	if res := ex.Execute("align left"); !res.Success {
		t.Fatalf("align failed: %s", res.Error)
	}
	a, _ := ed.Document().Find("a")
	if a.X != 0.5 {
		t.Errorf("Expected a aligned to 0.5, got %g", a.X)
	}
}

func TestExecute_Toggles(t *testing.T) {
	ex, ed, _ := newExecutor()

	ex.Execute("grid")
	if !ed.State().GridSnap {
		t.Error("Expected grid toggled on")
	}
	ex.Execute("grid off")
	if ed.State().GridSnap {
		t.Error("Expected grid off")
	}
	ex.Execute("snap on")
	if !ed.State().ObjectSnap {
		t.Error("Expected object snap on")
	}
	if res := ex.Execute("snap maybe"); res.Success {
		t.Error("Expected bad toggle value rejected")
	}
}

func TestExecute_Tool(t *testing.T) {
	ex, ed, _ := newExecutor()

	tests := map[string]editor.Tool{
		"tool barcode":   editor.ToolBarcode,
		"tool rectangle": editor.ToolShape,
		"tool LINE":      editor.ToolLine,
	}
	for cmd, want := range tests {
		if res := ex.Execute(cmd); !res.Success || ed.State().Tool != want {
			t.Errorf("%s: expected %s, got %s (%s)", cmd, want, ed.State().Tool, res.Error)
		}
	}
	if res := ex.Execute("tool lasso"); res.Success {
		t.Error("Expected unknown tool rejected")
	}
}

func TestExecute_Set(t *testing.T) {
	text := labelformat.Element{ID: "t", Type: labelformat.TypeText, X: 0, Y: 0, Width: 2, Height: 1}
	ex, ed, _ := newExecutor(text, box("b", 0, 0))

	if res := ex.Execute("set text hi"); res.Success {
		t.Error("Expected set refused without a single selection")
	}

	ex.Execute("select t")
	cmds := []string{
		`set text "{CableName} here"`,
		"set size 18",
		"set weight bold",
		"set align center",
		"set border on",
		"set x 0.25",
		"set w 0.001",
	}
	for _, cmd := range cmds {
		if res := ex.Execute(cmd); !res.Success {
			t.Fatalf("%s: %s", cmd, res.Error)
		}
	}

	el, _ := ed.Document().Find("t")
	if el.TextContent != "{CableName} here" || el.FontSize != 18 || el.FontWeight != "bold" ||
		el.TextAlign != "center" || !el.ShowBorder {
		t.Errorf("Unexpected text properties %+v", el)
	}
	if el.X != 0.25 || el.Width != editor.MinSize {
		t.Errorf("Expected x=0.25 width floored, got %g/%g", el.X, el.Width)
	}

	for _, cmd := range []string{"set weight heavy", "set size big", "set colour red", "set x left"} {
		if res := ex.Execute(cmd); res.Success {
			t.Errorf("%s: expected rejection", cmd)
		}
	}
}

func TestExecute_SetLocked(t *testing.T) {
	el := box("a", 0, 0)
	el.Locked = true
	ex, _, _ := newExecutor(el)

	ex.Execute("select a")
	if res := ex.Execute("set x 1"); res.Success {
		t.Error("Expected locked element geometry refused")
	}
}

func TestExecute_FlagsAndStack(t *testing.T) {
	ex, ed, _ := newExecutor(box("a", 0, 0), box("b", 0, 0))

	if res := ex.Execute("lock"); res.Success {
		t.Error("Expected lock refused without selection")
	}

	ex.Execute("select a")
	ex.Execute("lock")
	ex.Execute("hide")
	a, _ := ed.Document().Find("a")
	if !a.Locked || !a.Hidden {
		t.Errorf("Expected locked hidden element, got %+v", a)
	}

	ex.Execute("front")
	if doc := ed.Document(); doc.Elements[1].ID != "a" {
		t.Error("Expected a on top")
	}
	ex.Execute("back")
	if doc := ed.Document(); doc.Elements[0].ID != "a" {
		t.Error("Expected a at the bottom")
	}
}

func TestExecute_DeleteAndHistory(t *testing.T) {
	ex, ed, _ := newExecutor(box("a", 0, 0), box("b", 0, 0))

	if res := ex.Execute("delete zzz"); res.Success {
		t.Error("Expected unknown id rejected")
	}
	ex.Execute("delete a")
	if len(ed.Document().Elements) != 1 {
		t.Fatal("Expected a deleted")
	}

	if res := ex.Execute("undo"); !res.Success {
		t.Fatal("Expected undo")
	}
	if len(ed.Document().Elements) != 2 {
		t.Error("Expected a restored")
	}
	ex.Execute("redo")
	if res := ex.Execute("redo"); res.Success {
		t.Error("Expected nothing to redo")
	}
}

func TestExecute_List(t *testing.T) {
	el := box("abcdefghijkl", 0, 0)
	el.Locked = true
	ex, _, _ := newExecutor(el)
	ex.Execute("select all")

	res := ex.Execute("list")
	if !strings.Contains(res.Message, "* abcdefgh shape") || !strings.Contains(res.Message, "locked") {
		t.Errorf("Unexpected listing %q", res.Message)
	}
}

func TestExecute_Vars(t *testing.T) {
	ex, _, _ := newExecutor()
	if res := ex.Execute("vars"); !res.Success || res.Message != "No variables in document" {
		t.Errorf("Expected empty listing, got %+v", res)
	}

	logo := labelformat.Element{ID: "logo", Type: labelformat.TypeImage, Width: 1, Height: 1, VariableField: "CompanyLogo"}
	text := labelformat.Element{ID: "t", Type: labelformat.TypeText, Width: 2, Height: 0.5, TextContent: "{CableName} {Source} -> {CableName}"}
	ex, _, _ = newExecutor(logo, text)

	res := ex.Execute("vars")
	want := []string{"CompanyLogo", "CableName", "Source"}
	if got, _ := res.Data["variables"].([]string); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, res.Data["variables"])
	}
	if !strings.Contains(res.Message, "{CableName}") || !strings.Contains(res.Message, "CBL-0427") {
		t.Errorf("Expected sample values in listing, got %q", res.Message)
	}
}

func TestExecute_Help(t *testing.T) {
	ex, _, _ := newExecutor()

	res := ex.Execute("help")
	if !res.Success || !strings.Contains(res.Message, "align <edge>") {
		t.Error("Expected help text")
	}
}

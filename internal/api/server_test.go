package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/label-designer/internal/jobs"
	"github.com/thereceipt/label-designer/internal/renderer"
	"github.com/thereceipt/label-designer/internal/store"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	server *Server
	store  store.Store
	queue  *jobs.Queue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewFileStore("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	opts := renderer.Options{Scale: 1, Preview: true}
	queue := jobs.NewQueue(RenderFunc(st, opts), jobs.Options{
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		Interval:   5 * time.Millisecond,
	})
	t.Cleanup(queue.Stop)

	return &fixture{server: NewServer(st, queue, opts, nil), store: st, queue: queue}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
}

func box(id string) labelformat.Element {
	return labelformat.Element{
		ID: id, Type: labelformat.TypeShape,
		X: 0.25, Y: 0.25, Width: 1, Height: 0.5,
		StrokeColor: "#000000", StrokeWidth: 2,
	}
}

func (f *fixture) saveTemplate(t *testing.T, name string) labelformat.Template {
	t.Helper()
	rec := f.do(t, "POST", "/templates", labelformat.Template{
		Name: name, Category: "Cables", StockID: "cable-wrap",
		Elements: []labelformat.Element{box("a")},
	})
	if rec.Code != 200 {
		t.Fatalf("Save failed: %d %s", rec.Code, rec.Body.String())
	}
	var saved labelformat.Template
	decode(t, rec, &saved)
	return saved
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "GET", "/health", nil)
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("Unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "OPTIONS", "/templates", nil)
	if rec.Code != 204 {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}

func TestTemplates_CRUD(t *testing.T) {
	f := newFixture(t)
	saved := f.saveTemplate(t, "Cable Label")
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("Expected stamped template, got %+v", saved)
	}

	rec := f.do(t, "GET", "/templates/"+saved.ID, nil)
	if rec.Code != 200 {
		t.Fatalf("Get failed: %d", rec.Code)
	}

	saved.Name = "Renamed"
	rec = f.do(t, "PUT", "/templates/"+saved.ID, saved)
	if rec.Code != 200 {
		t.Fatalf("Update failed: %d %s", rec.Code, rec.Body.String())
	}

	var list struct {
		Templates []map[string]interface{} `json:"templates"`
	}
	decode(t, f.do(t, "GET", "/templates?category=Cables", nil), &list)
	if len(list.Templates) != 1 || list.Templates[0]["name"] != "Renamed" {
		t.Fatalf("Unexpected list %+v", list.Templates)
	}
	decode(t, f.do(t, "GET", "/templates?category=Other", nil), &list)
	if len(list.Templates) != 0 {
		t.Errorf("Expected category filter to exclude, got %+v", list.Templates)
	}

	if rec := f.do(t, "DELETE", "/templates/"+saved.ID, nil); rec.Code != 200 {
		t.Errorf("Delete failed: %d", rec.Code)
	}
	if rec := f.do(t, "GET", "/templates/"+saved.ID, nil); rec.Code != 404 {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestTemplates_Rejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"malformed body", "POST", "/templates", "{", 400},
		{"missing name", "POST", "/templates", labelformat.Template{StockID: "cable-wrap"}, 400},
		{"missing stock", "POST", "/templates", labelformat.Template{Name: "x"}, 400},
		{"unknown stock", "POST", "/templates", labelformat.Template{Name: "x", StockID: "nope"}, 400},
		{"duplicate ids", "POST", "/templates", labelformat.Template{
			Name: "x", StockID: "cable-wrap", Elements: []labelformat.Element{box("a"), box("a")},
		}, 400},
		{"unknown id", "PUT", "/templates/missing", labelformat.Template{Name: "x", StockID: "cable-wrap"}, 404},
		{"delete unknown", "DELETE", "/templates/missing", nil, 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

// brokenStocks fails every stock lookup the way a dropped database would
type brokenStocks struct {
	store.Store
}

func (brokenStocks) GetStock(context.Context, string) (labelformat.Stock, error) {
	return labelformat.Stock{}, errors.New("database is closed")
}

func TestTemplates_StockLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.server = NewServer(brokenStocks{f.store}, f.queue, renderer.Options{Scale: 1, Preview: true}, nil)

	tmpl := labelformat.Template{Name: "x", StockID: "cable-wrap", Elements: []labelformat.Element{box("a")}}
	if rec := f.do(t, "POST", "/templates", tmpl); rec.Code != 500 {
		t.Errorf("Expected 500 when the stock lookup fails, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, "POST", "/templates/import?stock_id=cable-wrap", `{"name":"x","elements":[]}`); rec.Code != 500 {
		t.Errorf("Expected 500 on import when the stock lookup fails, got %d", rec.Code)
	}
}

func TestTemplates_ExportImport(t *testing.T) {
	f := newFixture(t)
	saved := f.saveTemplate(t, "Cable Label")

	rec := f.do(t, "GET", "/templates/"+saved.ID+"/export", nil)
	if rec.Code != 200 {
		t.Fatalf("Export failed: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "stock_id") {
		t.Errorf("Export should not carry stock_id: %s", rec.Body.String())
	}

	exported := rec.Body.String()
	rec = f.do(t, "POST", "/templates/import?stock_id=dymo-30252", exported)
	if rec.Code != 201 {
		t.Fatalf("Import failed: %d %s", rec.Code, rec.Body.String())
	}
	var imported labelformat.Template
	decode(t, rec, &imported)
	if imported.ID == saved.ID || imported.StockID != "dymo-30252" {
		t.Errorf("Unexpected import %+v", imported)
	}
	if len(imported.Elements) != 1 || imported.Elements[0].ID == "a" {
		t.Errorf("Expected regenerated element ids, got %+v", imported.Elements)
	}

	if rec := f.do(t, "POST", "/templates/import?stock_id=dymo-30252", `{"name":"x"}`); rec.Code != 400 {
		t.Errorf("Expected 400 for missing elements, got %d", rec.Code)
	}
	if rec := f.do(t, "POST", "/templates/import", exported); rec.Code != 400 {
		t.Errorf("Expected 400 without stock, got %d", rec.Code)
	}
}

func TestStocks(t *testing.T) {
	f := newFixture(t)

	var list struct {
		Stocks []labelformat.Stock `json:"stocks"`
	}
	decode(t, f.do(t, "GET", "/stocks", nil), &list)
	if len(list.Stocks) != len(store.DefaultStocks()) {
		t.Fatalf("Expected default stocks, got %d", len(list.Stocks))
	}

	rec := f.do(t, "POST", "/stocks", labelformat.Stock{Name: "Tiny", LabelWidth: 1, LabelHeight: 0.5})
	if rec.Code != 200 {
		t.Fatalf("Create failed: %d %s", rec.Code, rec.Body.String())
	}
	var created labelformat.Stock
	decode(t, rec, &created)

	rec = f.do(t, "PUT", "/stocks/"+created.ID, labelformat.Stock{Name: "Tiny", LabelWidth: 2, LabelHeight: 0.5})
	if rec.Code != 200 {
		t.Fatalf("Replace failed: %d", rec.Code)
	}
	var got labelformat.Stock
	decode(t, f.do(t, "GET", "/stocks/"+created.ID, nil), &got)
	if got.LabelWidth != 2 {
		t.Errorf("Expected replaced width, got %+v", got)
	}

	if rec := f.do(t, "POST", "/stocks", labelformat.Stock{Name: "No size"}); rec.Code != 400 {
		t.Errorf("Expected 400 for stock without dimensions, got %d", rec.Code)
	}
	if rec := f.do(t, "DELETE", "/stocks/"+created.ID, nil); rec.Code != 200 {
		t.Errorf("Delete failed: %d", rec.Code)
	}
	if rec := f.do(t, "GET", "/stocks/"+created.ID, nil); rec.Code != 404 {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestTemplatePreview(t *testing.T) {
	f := newFixture(t)
	saved := f.saveTemplate(t, "Cable Label")

	tests := []struct {
		scale string
		wantW int
		wantH int
	}{
		{"", 252, 96},
		{"2", 504, 192},
	}

	for _, tt := range tests {
		t.Run("scale="+tt.scale, func(t *testing.T) {
			path := "/templates/" + saved.ID + "/preview"
			if tt.scale != "" {
				path += "?scale=" + tt.scale
			}
			rec := f.do(t, "GET", path, nil)
			if rec.Code != 200 || rec.Header().Get("Content-Type") != "image/png" {
				t.Fatalf("Preview failed: %d %s", rec.Code, rec.Body.String())
			}
			img, err := png.Decode(rec.Body)
			if err != nil {
				t.Fatalf("Invalid PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Expected %dx%d, got %dx%d", tt.wantW, tt.wantH, b.Dx(), b.Dy())
			}
		})
	}

	for _, bad := range []string{"0", "-1", "9", "abc"} {
		if rec := f.do(t, "GET", "/templates/"+saved.ID+"/preview?scale="+bad, nil); rec.Code != 400 {
			t.Errorf("scale=%s: expected 400, got %d", bad, rec.Code)
		}
	}
}

func TestPreview_Document(t *testing.T) {
	f := newFixture(t)

	doc := labelformat.Document{Name: "Draft", StockID: "dymo-30252", Elements: []labelformat.Element{box("")}}
	rec := f.do(t, "POST", "/preview", doc)
	if rec.Code != 200 {
		t.Fatalf("Preview failed: %d %s", rec.Code, rec.Body.String())
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 336 || b.Dy() != 108 {
		t.Errorf("Expected 336x108, got %dx%d", b.Dx(), b.Dy())
	}

	if rec := f.do(t, "POST", "/preview", labelformat.Document{Name: "Draft"}); rec.Code != 400 {
		t.Errorf("Expected 400 without stock, got %d", rec.Code)
	}
	doc.StockID = "missing"
	if rec := f.do(t, "POST", "/preview", doc); rec.Code != 404 {
		t.Errorf("Expected 404 for unknown stock, got %d", rec.Code)
	}
}

func waitJob(t *testing.T, f *fixture, id string) jobs.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := f.queue.Get(id); ok && (job.Status == jobs.StatusCompleted || job.Status == jobs.StatusFailed) {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Job %s did not finish", id)
	return jobs.Job{}
}

func TestJobs(t *testing.T) {
	f := newFixture(t)
	saved := f.saveTemplate(t, "Cable Label")

	rec := f.do(t, "POST", "/templates/"+saved.ID+"/jobs?scale=2", nil)
	if rec.Code != 202 {
		t.Fatalf("Enqueue failed: %d %s", rec.Code, rec.Body.String())
	}
	var queued struct {
		JobID string `json:"job_id"`
	}
	decode(t, rec, &queued)

	if job := waitJob(t, f, queued.JobID); job.Status != jobs.StatusCompleted {
		t.Fatalf("Expected completed job, got %+v", job)
	}

	rec = f.do(t, "GET", "/jobs/"+queued.JobID+"/image", nil)
	if rec.Code != 200 {
		t.Fatalf("Image failed: %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 504 {
		t.Errorf("Expected scaled width 504, got %d", b.Dx())
	}

	var list struct {
		Jobs []jobs.Job `json:"jobs"`
	}
	decode(t, f.do(t, "GET", "/jobs", nil), &list)
	if len(list.Jobs) != 1 {
		t.Errorf("Expected 1 job, got %d", len(list.Jobs))
	}

	if rec := f.do(t, "DELETE", "/jobs", nil); !strings.Contains(rec.Body.String(), `"removed":1`) {
		t.Errorf("Expected one cleared job, got %s", rec.Body.String())
	}
	if rec := f.do(t, "GET", "/jobs/"+queued.JobID, nil); rec.Code != 404 {
		t.Errorf("Expected 404 after clear, got %d", rec.Code)
	}
	if rec := f.do(t, "POST", "/templates/missing/jobs", nil); rec.Code != 404 {
		t.Errorf("Expected 404 for unknown template, got %d", rec.Code)
	}
}

func TestJobs_FailedImageConflict(t *testing.T) {
	f := newFixture(t)
	saved := f.saveTemplate(t, "Cable Label")
	if err := f.store.Delete(context.Background(), saved.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	id := f.queue.Enqueue(saved.ID, 1)
	if job := waitJob(t, f, id); job.Status != jobs.StatusFailed {
		t.Fatalf("Expected failed job, got %+v", job)
	}
	if rec := f.do(t, "GET", "/jobs/"+id+"/image", nil); rec.Code != 409 {
		t.Errorf("Expected 409, got %d", rec.Code)
	}
}

func TestJobs_Disabled(t *testing.T) {
	st, _ := store.NewFileStore("")
	s := NewServer(st, nil, renderer.Options{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/templates/x/jobs", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}

func TestWebSocket(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	if err := conn.WriteJSON(WSMessage{Event: EventPing}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Event != EventPong {
		t.Fatalf("Expected pong, got %+v (%v)", msg, err)
	}

	// Wait for registration before triggering a broadcast
	deadline := time.Now().Add(time.Second)
	for f.server.hub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	saved := f.saveTemplate(t, "Broadcast")
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if msg.Event != EventTemplateSaved || msg.Data["id"] != saved.ID {
		t.Errorf("Expected template_saved broadcast, got %+v", msg)
	}

	if err := conn.WriteJSON(WSMessage{Event: "bogus"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil || msg.Event != EventError {
		t.Errorf("Expected error event, got %+v (%v)", msg, err)
	}
}

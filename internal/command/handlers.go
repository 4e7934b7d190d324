package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/thereceipt/label-designer/internal/editor"
	"github.com/thereceipt/label-designer/internal/preview"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

func (e *Executor) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.timeout)
}

// handleSave handles the save command
// Usage: save
func (e *Executor) handleSave(args []string) *Result {
	ctx, cancel := e.withTimeout()
	defer cancel()

	t, err := e.editor.Save(ctx)
	if err != nil {
		return fail("%v", err)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Saved %q (%s)", t.Name, t.ID),
		Data: map[string]interface{}{
			"id":   t.ID,
			"name": t.Name,
		},
	}
}

// handleLoad handles the load command
// Usage: load <template-id> [--force]
func (e *Executor) handleLoad(args []string) *Result {
	if len(args) < 1 {
		return fail("usage: load <template-id> [--force]")
	}
	if e.editor.Dirty() && !hasFlag(args, "--force") {
		return fail("unsaved changes; save first or use load %s --force", args[0])
	}

	ctx, cancel := e.withTimeout()
	defer cancel()

	if err := e.editor.Load(ctx, args[0]); err != nil {
		return fail("%v", err)
	}
	doc := e.editor.Document()
	return ok("Loaded %q (%d elements)", doc.Name, len(doc.Elements))
}

// handleNew handles the new command
// Usage: new [name] [--force]
func (e *Executor) handleNew(args []string) *Result {
	if e.editor.Dirty() && !hasFlag(args, "--force") {
		return fail("unsaved changes; save first or use new --force")
	}

	name := strings.Join(withoutFlags(args), " ")
	stock := e.editor.Document().StockID
	e.editor.Reset(labelformat.Document{Name: name, StockID: stock})
	return ok("New document")
}

// handleName handles the name command
// Usage: name <name>
func (e *Executor) handleName(args []string) *Result {
	if len(args) == 0 {
		return ok("name: %s", e.editor.Document().Name)
	}
	e.editor.SetName(strings.Join(args, " "))
	return ok("Renamed to %q", e.editor.Document().Name)
}

// handleCategory handles the category command
// Usage: category <category>
func (e *Executor) handleCategory(args []string) *Result {
	if len(args) == 0 {
		return ok("category: %s", e.editor.Document().Category)
	}
	e.editor.SetCategory(strings.Join(args, " "))
	return ok("Category set to %q", e.editor.Document().Category)
}

// handleStock handles the stock command. Without arguments it lists the
// available stocks.
// Usage: stock [stock-id]
func (e *Executor) handleStock(args []string) *Result {
	var stocks []labelformat.Stock
	if e.stocks != nil {
		ctx, cancel := e.withTimeout()
		defer cancel()

		var err error
		stocks, err = e.stocks.ListStocks(ctx)
		if err != nil {
			return fail("failed to list stocks: %v", err)
		}
	}

	if len(args) == 0 {
		var b strings.Builder
		for _, s := range stocks {
			fmt.Fprintf(&b, "%s  %s\n", s.ID, s.Name)
		}
		return &Result{
			Success: true,
			Message: strings.TrimRight(b.String(), "\n"),
			Data:    map[string]interface{}{"stocks": stocks},
		}
	}

	id := args[0]
	if e.stocks != nil && !hasStock(stocks, id) {
		return fail("stock not found: %s", id)
	}
	e.editor.SetStock(id)
	return ok("Stock set to %s", id)
}

func hasStock(stocks []labelformat.Stock, id string) bool {
	for _, s := range stocks {
		if s.ID == id {
			return true
		}
	}
	return false
}

// handleExport handles the export command. The JSON is always returned in
// Data["json"]; with a path it is also written to disk.
// Usage: export [path]
func (e *Executor) handleExport(args []string) *Result {
	data, err := e.editor.Export()
	if err != nil {
		return fail("%v", err)
	}

	res := &Result{
		Success: true,
		Message: "Exported document",
		Data:    map[string]interface{}{"json": string(data)},
	}
	if len(args) > 0 {
		if err := os.WriteFile(args[0], data, 0644); err != nil {
			return fail("failed to write %s: %v", args[0], err)
		}
		res.Message = fmt.Sprintf("Exported to %s", args[0])
		res.Data["path"] = args[0]
	}
	return res
}

// handleImport handles the import command
// Usage: import <path|url>
func (e *Executor) handleImport(args []string) *Result {
	if len(args) < 1 {
		return fail("usage: import <path|url>")
	}

	src := args[0]
	var data []byte
	var err error
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		data, err = e.fetch(src)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return fail("failed to read %s: %v", src, err)
	}

	if err := e.editor.Import(data); err != nil {
		return fail("%v", err)
	}
	return ok("Imported %d elements", len(e.editor.Document().Elements))
}

// fetch loads a document from a URL
func (e *Executor) fetch(url string) ([]byte, error) {
	ctx, cancel := e.withTimeout()
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch document: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// handleAlign handles the align command
// Usage: align <left|right|top|bottom|center|middle>
func (e *Executor) handleAlign(args []string) *Result {
	if len(args) < 1 {
		return fail("usage: align <left|right|top|bottom|center|middle>")
	}

	edge := editor.AlignEdge(strings.ToLower(args[0]))
	switch edge {
	case editor.AlignLeft, editor.AlignRight, editor.AlignTop,
		editor.AlignBottom, editor.AlignCenter, editor.AlignMiddle:
	default:
		return fail("unknown alignment: %s", args[0])
	}

	if len(e.editor.Selected()) < 2 {
		return fail("align needs at least two selected elements")
	}
	e.editor.Align(edge)
	return ok("Aligned %s", edge)
}

// handleToggle handles the grid and snap commands
// Usage: grid|snap [on|off]
func (e *Executor) handleToggle(args []string, label string, current bool, set func(bool)) *Result {
	on := !current
	if len(args) > 0 {
		v, err := parseOnOff(args[0])
		if err != nil {
			return fail("usage: %s [on|off]", strings.Fields(label)[0])
		}
		on = v
	}
	set(on)
	return ok("%s %s", label, map[bool]string{true: "on", false: "off"}[on])
}

// handleTool handles the tool command
// Usage: tool <select|text|barcode|qrcode|image|shape|line>
func (e *Executor) handleTool(args []string) *Result {
	if len(args) < 1 {
		return fail("usage: tool <select|text|barcode|qrcode|image|shape|line>")
	}

	name := strings.ToLower(args[0])
	if name == "rectangle" || name == "rect" {
		name = string(editor.ToolShape)
	}
	for _, t := range editor.Tools {
		if string(t) == name {
			e.editor.SetTool(t)
			return ok("tool: %s", t)
		}
	}
	return fail("unknown tool: %s", args[0])
}

// handleSelect handles the select command
// Usage: select <id>... | select all | select none
func (e *Executor) handleSelect(args []string) *Result {
	if len(args) == 0 {
		return fail("usage: select <id>... | all | none")
	}

	switch args[0] {
	case "all":
		e.editor.SelectAll()
	case "none":
		e.editor.ClearSelection()
	default:
		e.editor.SetSelection(args)
	}
	return ok("%d selected", len(e.editor.State().Selection))
}

// handleList lists the document's elements, top of the stack last
// Usage: list
func (e *Executor) handleList(args []string) *Result {
	doc := e.editor.Document()

	var b strings.Builder
	for _, el := range doc.Elements {
		mark := " "
		if e.editor.IsSelected(el.ID) {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s %-7s %.3f,%.3f %.3fx%.3f", mark, shortID(el.ID), el.Type, el.X, el.Y, el.Width, el.Height)
		if el.Locked {
			b.WriteString(" locked")
		}
		if el.Hidden {
			b.WriteString(" hidden")
		}
		b.WriteString("\n")
	}

	return &Result{
		Success: true,
		Message: strings.TrimRight(b.String(), "\n"),
		Data:    map[string]interface{}{"elements": doc.Elements},
	}
}

// handleVars lists the {Variable} tokens the document references with the
// sample each one previews as
// Usage: vars
func (e *Executor) handleVars(args []string) *Result {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, el := range e.editor.Document().Elements {
		add(el.VariableField)
		for _, name := range preview.Variables(el.TextContent) {
			add(name)
		}
	}

	if len(names) == 0 {
		return ok("No variables in document")
	}

	samples := preview.New()
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%-14s %s\n", "{"+name+"}", samples.Resolve("{"+name+"}"))
	}
	return &Result{
		Success: true,
		Message: strings.TrimRight(b.String(), "\n"),
		Data:    map[string]interface{}{"variables": names},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// handleDelete deletes one element by id, locked or not, or the selection
// Usage: delete [id]
func (e *Executor) handleDelete(args []string) *Result {
	if len(args) == 0 {
		n := e.editor.DeleteSelected()
		return ok("Deleted %d element(s)", n)
	}
	if !e.editor.DeleteElement(args[0]) {
		return fail("element not found: %s", args[0])
	}
	return ok("Deleted %s", args[0])
}

// handleFlag handles lock, unlock, hide and show on the selection
func (e *Executor) handleFlag(command string) *Result {
	if len(e.editor.State().Selection) == 0 {
		return fail("nothing selected")
	}

	switch command {
	case "lock":
		e.editor.SetLocked(true)
	case "unlock":
		e.editor.SetLocked(false)
	case "hide":
		e.editor.SetHidden(true)
	case "show":
		e.editor.SetHidden(false)
	}
	return ok("%s %d element(s)", command, len(e.editor.State().Selection))
}

// handleStack handles front and back on the selection
func (e *Executor) handleStack(command string) *Result {
	var changed bool
	if command == "front" {
		changed = e.editor.BringToFront()
	} else {
		changed = e.editor.SendToBack()
	}
	if !changed {
		return fail("nothing selected")
	}
	return ok("Moved to %s", command)
}

func (e *Executor) handleHistory(fn func() bool, name string) *Result {
	if !fn() {
		return fail("nothing to %s", name)
	}
	return ok("%s", name)
}

// handleSet edits a property of the single selected element
// Usage: set <property> <value>
func (e *Executor) handleSet(args []string) *Result {
	if len(args) < 2 {
		return fail("usage: set <property> <value>. Properties: %s", strings.Join(propertyNames, ", "))
	}

	selected := e.editor.Selected()
	if len(selected) != 1 {
		return fail("set needs exactly one selected element")
	}
	el := selected[0]
	prop := strings.ToLower(args[0])
	value := strings.Join(args[1:], " ")

	// Geometry goes through resize so the size floors apply
	if geom, isGeom := geometryProperties[prop]; isGeom {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fail("%s must be a number: %s", prop, value)
		}
		x, y, w, h := el.X, el.Y, el.Width, el.Height
		switch geom {
		case "x":
			x = v
		case "y":
			y = v
		case "width":
			w = v
		case "height":
			h = v
		}
		if el.Locked {
			return fail("element is locked")
		}
		e.editor.ResizeElement(el.ID, x, y, w, h)
		return ok("%s = %s", geom, value)
	}

	apply, err := setter(prop, value)
	if err != nil {
		return fail("%v", err)
	}
	if err := e.editor.UpdateElement(el.ID, apply); err != nil {
		return fail("%v", err)
	}
	return ok("%s = %s", prop, value)
}

var geometryProperties = map[string]string{
	"x": "x", "y": "y",
	"w": "width", "width": "width",
	"h": "height", "height": "height",
}

var propertyNames = []string{
	"x", "y", "width", "height", "text", "var", "barcode", "font", "size",
	"weight", "style", "decoration", "align", "valign", "border", "stroke",
	"stroke-width", "direction",
}

var errUnknownProperty = errors.New("unknown property")

func setter(prop, value string) (func(*labelformat.Element), error) {
	switch prop {
	case "text":
		return func(el *labelformat.Element) { el.TextContent = value }, nil
	case "var", "variable":
		return func(el *labelformat.Element) { el.VariableField = value }, nil
	case "barcode":
		v := strings.ToUpper(value)
		return func(el *labelformat.Element) { el.BarcodeType = v }, nil
	case "font":
		return func(el *labelformat.Element) { el.FontFamily = value }, nil
	case "weight":
		return func(el *labelformat.Element) { el.FontWeight = value }, nil
	case "style":
		return func(el *labelformat.Element) { el.FontStyle = value }, nil
	case "decoration":
		return func(el *labelformat.Element) { el.TextDecoration = value }, nil
	case "align":
		return func(el *labelformat.Element) { el.TextAlign = value }, nil
	case "valign":
		return func(el *labelformat.Element) { el.VerticalAlign = value }, nil
	case "stroke", "color":
		return func(el *labelformat.Element) { el.StrokeColor = value }, nil
	case "direction":
		return func(el *labelformat.Element) { el.LineDirection = labelformat.LineDirection(value) }, nil
	case "border":
		on, err := parseOnOff(value)
		if err != nil {
			return nil, fmt.Errorf("border must be on or off")
		}
		return func(el *labelformat.Element) { el.ShowBorder = on }, nil
	case "size", "stroke-width":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number: %s", prop, value)
		}
		if prop == "size" {
			return func(el *labelformat.Element) { el.FontSize = v }, nil
		}
		return func(el *labelformat.Element) { el.StrokeWidth = v }, nil
	}
	return nil, fmt.Errorf("%w: %s", errUnknownProperty, prop)
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %s", s)
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func withoutFlags(args []string) []string {
	var out []string
	for _, a := range args {
		if !strings.HasPrefix(a, "--") {
			out = append(out, a)
		}
	}
	return out
}

// handleHelp handles help command
func (e *Executor) handleHelp(args []string) *Result {
	helpText := `Available commands:

  save                      Save the document to the template store
  load <id> [--force]       Load a stored template
  new [name] [--force]      Start a new document on the current stock
  name <name>               Rename the document
  category <category>       Set the document category
  stock [id]                List stocks, or set the document's stock

  export [path]             Export document JSON (copied to the clipboard)
  import <path|url>         Replace the document from JSON

  tool <name>               select, text, barcode, qrcode, image, shape, line
  select <id>... | all | none
  list                      List elements, top of the stack last
  vars                      List variables the document uses with their samples
  set <property> <value>    Edit the selected element
  align <edge>              left, right, top, bottom, center, middle
  delete [id]               Delete the selection, or one element by id
  lock | unlock             Lock or unlock the selection
  hide | show               Hide or show the selection
  front | back              Bring to front or send to back
  grid [on|off]             Toggle grid snap
  snap [on|off]             Toggle object snap
  undo | redo

Examples:
  name "Cable Label"
  set text "{CableName}"
  set barcode EAN13
  align left
`

	return &Result{
		Success: true,
		Message: helpText,
	}
}

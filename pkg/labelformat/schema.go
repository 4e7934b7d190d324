// Package labelformat defines the types for label template documents
package labelformat

import "time"

// ElementType identifies the kind of a placeable element
type ElementType string

const (
	TypeText    ElementType = "text"
	TypeBarcode ElementType = "barcode"
	TypeQRCode  ElementType = "qrcode"
	TypeImage   ElementType = "image"
	TypeShape   ElementType = "shape"
	TypeLine    ElementType = "line"
)

// ElementTypes lists every element type in palette order
var ElementTypes = []ElementType{TypeText, TypeBarcode, TypeQRCode, TypeImage, TypeShape, TypeLine}

// Valid reports whether t is a known element type
func (t ElementType) Valid() bool {
	switch t {
	case TypeText, TypeBarcode, TypeQRCode, TypeImage, TypeShape, TypeLine:
		return true
	}
	return false
}

// LineDirection picks which diagonal of its bounding box a line spans
type LineDirection string

const (
	LineUp   LineDirection = "up"   // bottom-left to top-right
	LineDown LineDirection = "down" // top-left to bottom-right
)

// Element is one placeable object on the label canvas.
// Coordinates and sizes are in inches.
type Element struct {
	ID     string      `json:"id"`
	Type   ElementType `json:"type"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`

	// Content
	TextContent   string `json:"text_content,omitempty"`
	VariableField string `json:"variable_field,omitempty"`
	BarcodeType   string `json:"barcode_type,omitempty"`

	// Text style
	FontFamily     string  `json:"font_family,omitempty"`
	FontSize       float64 `json:"font_size,omitempty"` // points
	FontWeight     string  `json:"font_weight,omitempty"`
	FontStyle      string  `json:"font_style,omitempty"`
	TextDecoration string  `json:"text_decoration,omitempty"`
	TextAlign      string  `json:"text_align,omitempty"`     // left, center, right
	VerticalAlign  string  `json:"vertical_align,omitempty"` // top, middle, bottom
	ShowBorder     bool    `json:"show_border,omitempty"`

	// Stroke (shape, line)
	StrokeColor   string        `json:"stroke_color,omitempty"`
	StrokeWidth   float64       `json:"stroke_width,omitempty"` // pixels at 96 DPI
	LineDirection LineDirection `json:"lineDirection,omitempty"`

	Locked bool `json:"locked,omitempty"`
	Hidden bool `json:"hidden,omitempty"`
}

// Right returns the x coordinate of the element's right edge
func (e Element) Right() float64 { return e.X + e.Width }

// Bottom returns the y coordinate of the element's bottom edge
func (e Element) Bottom() float64 { return e.Y + e.Height }

// Document is a label template layout. Element order is stacking order,
// later elements draw on top.
type Document struct {
	Name     string    `json:"name"`
	Category string    `json:"category"`
	StockID  string    `json:"stock_id,omitempty"`
	Elements []Element `json:"elements"`
}

// Clone returns a copy of d that shares no element storage with d
func (d Document) Clone() Document {
	c := d
	if d.Elements != nil {
		c.Elements = make([]Element, len(d.Elements))
		copy(c.Elements, d.Elements)
	}
	return c
}

// Index returns the position of the element with the given id, or -1
func (d Document) Index(id string) int {
	for i := range d.Elements {
		if d.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the element with the given id
func (d Document) Find(id string) (Element, bool) {
	if i := d.Index(id); i >= 0 {
		return d.Elements[i], true
	}
	return Element{}, false
}

// Stock describes the physical label a template is designed for, either
// directly or as one cell of a page grid. Dimensions are in inches.
type Stock struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	LabelWidth  float64 `json:"label_width,omitempty"`
	LabelHeight float64 `json:"label_height,omitempty"`
	PageWidth   float64 `json:"page_width,omitempty"`
	PageHeight  float64 `json:"page_height,omitempty"`
	ColsPerPage int     `json:"cols_per_page,omitempty"`
	RowsPerPage int     `json:"rows_per_page,omitempty"`
	LeftMargin  float64 `json:"left_margin,omitempty"`
	TopMargin   float64 `json:"top_margin,omitempty"`
	ColSpacing  float64 `json:"col_spacing,omitempty"`
	RowSpacing  float64 `json:"row_spacing,omitempty"`
}

// Template is a persisted document
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	StockID   string    `json:"stock_id"`
	Elements  []Element `json:"elements"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document returns the editable document of the template
func (t Template) Document() Document {
	return Document{
		Name:     t.Name,
		Category: t.Category,
		StockID:  t.StockID,
		Elements: t.Elements,
	}.Clone()
}

// TemplateFromDocument builds a template payload for persistence
func TemplateFromDocument(id string, d Document) Template {
	c := d.Clone()
	if c.Elements == nil {
		c.Elements = []Element{}
	}
	return Template{
		ID:       id,
		Name:     c.Name,
		Category: c.Category,
		StockID:  c.StockID,
		Elements: c.Elements,
	}
}

package labelformat

import (
	"fmt"
	"math"
)

// BarcodeTypes lists the supported 1D symbologies
var BarcodeTypes = []string{"CODE128", "CODE39", "CODE93", "EAN13", "EAN8", "CODABAR", "ITF"}

// DefaultBarcodeType is used when an element leaves barcode_type empty
const DefaultBarcodeType = "CODE128"

// Validate validates a document, including element id uniqueness
func Validate(d *Document) error {
	return ValidateElements(d.Elements, true)
}

// ValidateElements validates element fields. When checkIDs is set every
// element must carry a unique non-empty id.
func ValidateElements(elements []Element, checkIDs bool) error {
	ids := make(map[string]bool)
	for i := range elements {
		e := &elements[i]
		if checkIDs {
			if e.ID == "" {
				return fmt.Errorf("element[%d]: 'id' is required", i)
			}
			if ids[e.ID] {
				return fmt.Errorf("element[%d]: duplicate id '%s'", i, e.ID)
			}
			ids[e.ID] = true
		}
		if err := validateElement(e); err != nil {
			return fmt.Errorf("element[%d]: %w", i, err)
		}
	}
	return nil
}

func validateElement(e *Element) error {
	if e.Type == "" {
		return fmt.Errorf("element type is required")
	}
	if !e.Type.Valid() {
		return fmt.Errorf("unknown element type: %s", e.Type)
	}

	for _, v := range []struct {
		name  string
		value float64
	}{{"x", e.X}, {"y", e.Y}, {"width", e.Width}, {"height", e.Height}} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%s is not a finite number", v.name)
		}
		if v.value < 0 {
			return fmt.Errorf("%s must not be negative (got %g)", v.name, v.value)
		}
	}

	// Type-specific validation
	switch e.Type {
	case TypeText:
		return validateTextElement(e)
	case TypeBarcode:
		return validateBarcodeElement(e)
	case TypeLine:
		return validateLineElement(e)
	case TypeQRCode, TypeImage, TypeShape:
		return nil
	}
	return nil
}

func validateTextElement(e *Element) error {
	if err := oneOf("text_align", e.TextAlign, "left", "center", "right"); err != nil {
		return err
	}
	if err := oneOf("vertical_align", e.VerticalAlign, "top", "middle", "bottom"); err != nil {
		return err
	}
	if err := oneOf("font_weight", e.FontWeight, "normal", "bold"); err != nil {
		return err
	}
	if err := oneOf("font_style", e.FontStyle, "normal", "italic"); err != nil {
		return err
	}
	if e.FontSize < 0 {
		return fmt.Errorf("font_size must not be negative")
	}
	return nil
}

func validateBarcodeElement(e *Element) error {
	if e.BarcodeType == "" {
		return nil
	}
	for _, f := range BarcodeTypes {
		if e.BarcodeType == f {
			return nil
		}
	}
	return fmt.Errorf("invalid barcode_type '%s'", e.BarcodeType)
}

func validateLineElement(e *Element) error {
	if err := oneOf("lineDirection", string(e.LineDirection), string(LineUp), string(LineDown)); err != nil {
		return err
	}
	if e.StrokeWidth < 0 {
		return fmt.Errorf("stroke_width must not be negative")
	}
	return nil
}

// oneOf accepts an empty value or one of the allowed values
func oneOf(field, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s '%s'", field, value)
}

// ValidateStock checks a stock record carries either label dimensions or a page grid
func ValidateStock(s *Stock) error {
	if s.Name == "" {
		return fmt.Errorf("stock name is required")
	}
	if s.LabelWidth > 0 && s.LabelHeight > 0 {
		return nil
	}
	if s.PageWidth <= 0 || s.PageHeight <= 0 {
		return fmt.Errorf("stock '%s' needs label_width/label_height or page_width/page_height", s.Name)
	}
	if s.ColsPerPage <= 0 || s.RowsPerPage <= 0 {
		return fmt.Errorf("stock '%s' needs positive cols_per_page and rows_per_page", s.Name)
	}
	return nil
}

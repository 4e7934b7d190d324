package labelformat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMissingElements is returned when document JSON has no elements array
var ErrMissingElements = errors.New("document has no elements array")

// Export is the interchange form of a document
type Export struct {
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Elements []Element `json:"elements"`
}

// ExportOf returns the interchange form of d
func ExportOf(d Document) Export {
	c := d.Clone()
	if c.Elements == nil {
		c.Elements = []Element{}
	}
	return Export{Name: c.Name, Category: c.Category, Elements: c.Elements}
}

// Parse parses document JSON from a byte slice
func Parse(data []byte) (*Export, error) {
	// Decode elements raw first so a missing array can be told apart from an empty one
	var temp struct {
		Name     string          `json:"name"`
		Category string          `json:"category"`
		Elements json.RawMessage `json:"elements"`
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	if len(temp.Elements) == 0 || temp.Elements[0] != '[' {
		return nil, ErrMissingElements
	}

	var elements []Element
	if err := json.Unmarshal(temp.Elements, &elements); err != nil {
		return nil, fmt.Errorf("failed to parse elements: %w", err)
	}

	for i := range elements {
		migrateElement(&elements[i])
	}

	export := &Export{
		Name:     temp.Name,
		Category: temp.Category,
		Elements: elements,
	}

	if err := ValidateElements(export.Elements, false); err != nil {
		return nil, err
	}

	return export, nil
}

// migrateElement upgrades element fields written by older editors
func migrateElement(e *Element) {
	// Rectangles were stored under their own type name before shapes were generalised
	if e.Type == "rectangle" {
		e.Type = TypeShape
	}
	if e.Type == TypeLine && e.LineDirection == "" {
		e.LineDirection = LineDown
	}
}

// ParseFile parses document JSON from disk
func ParseFile(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}

	return Parse(data)
}

// ToJSON converts an export to indented JSON bytes
func (e *Export) ToJSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// SaveToFile writes an export to a file
func (e *Export) SaveToFile(path string) error {
	data, err := e.ToJSON()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

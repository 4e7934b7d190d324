package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thereceipt/label-designer/pkg/labelformat"
)

var (
	// ErrNameRequired blocks saving a template without a name
	ErrNameRequired = errors.New("template name is required")
	// ErrStockRequired blocks saving a template without a stock
	ErrStockRequired = errors.New("template stock is required")
	// ErrNoStore is returned when no TemplateStore is configured
	ErrNoStore = errors.New("no template store configured")
)

// TemplateStore persists templates. The editor never assumes a transport.
type TemplateStore interface {
	Save(ctx context.Context, t labelformat.Template) (labelformat.Template, error)
	Load(ctx context.Context, id string) (labelformat.Template, error)
}

// ValidateForSave checks the document can be handed to the store
func ValidateForSave(doc labelformat.Document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return ErrNameRequired
	}
	if doc.StockID == "" {
		return ErrStockRequired
	}
	return nil
}

// Save persists the document. Validation failures return before the store
// is called; store failures leave the document and history untouched so
// the save can be retried.
func (e *Editor) Save(ctx context.Context) (labelformat.Template, error) {
	doc := e.Document()
	if err := ValidateForSave(doc); err != nil {
		return labelformat.Template{}, err
	}
	if e.store == nil {
		return labelformat.Template{}, ErrNoStore
	}

	rev := e.history.Revision()
	saved, err := e.store.Save(ctx, labelformat.TemplateFromDocument(e.templateID, doc))
	if err != nil {
		e.logger.Error("template save failed", "name", doc.Name, "error", err)
		return labelformat.Template{}, fmt.Errorf("failed to save template: %w", err)
	}

	e.templateID = saved.ID
	e.savedRev = rev
	e.logger.Info("template saved", "id", saved.ID, "name", saved.Name)
	return saved, nil
}

// Load replaces the document with a stored template and clears history
func (e *Editor) Load(ctx context.Context, id string) error {
	if e.store == nil {
		return ErrNoStore
	}

	t, err := e.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load template %s: %w", id, err)
	}

	doc := t.Document()
	if err := labelformat.Validate(&doc); err != nil {
		return fmt.Errorf("template %s is invalid: %w", id, err)
	}

	e.Reset(doc)
	e.templateID = t.ID
	e.logger.Info("template loaded", "id", t.ID, "name", t.Name, "elements", len(doc.Elements))
	return nil
}

// Reset starts over with doc as an unsaved-changes-free document
func (e *Editor) Reset(doc labelformat.Document) {
	if doc.Elements == nil {
		doc.Elements = []labelformat.Element{}
	}
	e.history.Reset(doc)
	e.state.Gesture = Gesture{}
	e.state.Tool = ToolSelect
	e.state.Selection = nil
	e.templateID = ""
	e.pendingID = ""
	e.savedRev = e.history.Revision()
}

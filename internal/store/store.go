// Package store persists label templates and stocks
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thereceipt/label-designer/pkg/labelformat"
)

var (
	// ErrNotFound is returned when a template or stock id is unknown
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps validation failures of stored records
	ErrInvalid = errors.New("invalid record")
)

// Store is the persistence backend shared by the server and the editor
type Store interface {
	Save(ctx context.Context, t labelformat.Template) (labelformat.Template, error)
	Load(ctx context.Context, id string) (labelformat.Template, error)
	List(ctx context.Context) ([]labelformat.Template, error)
	Delete(ctx context.Context, id string) error

	SaveStock(ctx context.Context, s labelformat.Stock) (labelformat.Stock, error)
	GetStock(ctx context.Context, id string) (labelformat.Stock, error)
	ListStocks(ctx context.Context) ([]labelformat.Stock, error)
	DeleteStock(ctx context.Context, id string) error

	Close() error
}

// Driver names accepted by Open
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open creates a store for the named driver
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverFile, "json", "":
		return NewFileStore(path)
	case DriverSQLite:
		return NewSQLiteStore(path)
	case DriverMemory:
		return NewFileStore("")
	}
	return nil, fmt.Errorf("unknown store driver: %s", driver)
}

// DefaultStocks seeds an empty store
func DefaultStocks() []labelformat.Stock {
	return []labelformat.Stock{
		{
			ID: "avery-5160", Name: "Avery 5160 Address",
			PageWidth: 8.5, PageHeight: 11, ColsPerPage: 3, RowsPerPage: 10,
			LeftMargin: 0.1875, TopMargin: 0.5, ColSpacing: 0.125,
		},
		{
			ID: "avery-5163", Name: "Avery 5163 Shipping",
			PageWidth: 8.5, PageHeight: 11, ColsPerPage: 2, RowsPerPage: 5,
			LeftMargin: 0.15625, TopMargin: 0.5, ColSpacing: 0.1875,
		},
		{ID: "dymo-30252", Name: "Dymo 30252 Address", LabelWidth: 3.5, LabelHeight: 1.125},
		{ID: "cable-wrap", Name: "Cable Wrap 1x2.625", LabelWidth: 2.625, LabelHeight: 1},
	}
}

// prepareTemplate validates t and stamps its id and timestamps
func prepareTemplate(t labelformat.Template, existing *labelformat.Template, newID func() string, now time.Time) (labelformat.Template, error) {
	if strings.TrimSpace(t.Name) == "" {
		return t, fmt.Errorf("%w: template name is required", ErrInvalid)
	}
	if t.Elements == nil {
		t.Elements = []labelformat.Element{}
	}
	if err := labelformat.ValidateElements(t.Elements, true); err != nil {
		return t, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if t.ID == "" {
		t.ID = newID()
	}
	if existing != nil {
		t.CreatedAt = existing.CreatedAt
	} else {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Elements = append([]labelformat.Element(nil), t.Elements...)
	return t, nil
}

func prepareStock(s labelformat.Stock, newID func() string) (labelformat.Stock, error) {
	if err := labelformat.ValidateStock(&s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if s.ID == "" {
		s.ID = newID()
	}
	return s, nil
}

func sortTemplates(ts []labelformat.Template) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Name != ts[j].Name {
			return ts[i].Name < ts[j].Name
		}
		return ts[i].ID < ts[j].ID
	})
}

func sortStocks(ss []labelformat.Stock) {
	sort.Slice(ss, func(i, j int) bool { return ss[i].ID < ss[j].ID })
}

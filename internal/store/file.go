package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// FileStore keeps templates and stocks in memory and mirrors them to a
// JSON file. An empty path keeps everything in memory only.
type FileStore struct {
	filePath string
	data     fileData
	mu       sync.RWMutex

	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

type fileData struct {
	Templates map[string]*labelformat.Template `json:"templates"`
	Stocks    map[string]*labelformat.Stock    `json:"stocks"`
}

// NewFileStore opens the store at filePath, creating it with the default
// stocks when the file does not exist yet
func NewFileStore(filePath string) (*FileStore, error) {
	s := &FileStore{
		filePath: filePath,
		data: fileData{
			Templates: make(map[string]*labelformat.Template),
			Stocks:    make(map[string]*labelformat.Stock),
		},
		newID:  func() string { return uuid.New().String() },
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	err := s.load()
	switch {
	case err == nil:
	case os.IsNotExist(err) || filePath == "":
		for _, st := range DefaultStocks() {
			st := st
			s.data.Stocks[st.ID] = &st
		}
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to create store: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger used for write failures
func (s *FileStore) SetLogger(l *slog.Logger) { s.logger = l }

// Save inserts or updates a template
func (s *FileStore) Save(ctx context.Context, t labelformat.Template) (labelformat.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data.Templates[t.ID]
	if t.ID != "" && existing == nil {
		return labelformat.Template{}, fmt.Errorf("template %s: %w", t.ID, ErrNotFound)
	}

	saved, err := prepareTemplate(t, existing, s.newID, s.now())
	if err != nil {
		return labelformat.Template{}, err
	}

	prev := existing
	s.data.Templates[saved.ID] = &saved
	if err := s.save(); err != nil {
		if prev != nil {
			s.data.Templates[saved.ID] = prev
		} else {
			delete(s.data.Templates, saved.ID)
		}
		return labelformat.Template{}, err
	}
	return copyTemplate(saved), nil
}

// Load returns a copy of one template
func (s *FileStore) Load(ctx context.Context, id string) (labelformat.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data.Templates[id]
	if !ok {
		return labelformat.Template{}, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return copyTemplate(*t), nil
}

// List returns every template ordered by name
func (s *FileStore) List(ctx context.Context) ([]labelformat.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]labelformat.Template, 0, len(s.data.Templates))
	for _, t := range s.data.Templates {
		result = append(result, copyTemplate(*t))
	}
	sortTemplates(result)
	return result, nil
}

// Delete removes a template
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.data.Templates[id]
	if !ok {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	delete(s.data.Templates, id)
	if err := s.save(); err != nil {
		s.data.Templates[id] = t
		return err
	}
	return nil
}

// SaveStock inserts or replaces a stock
func (s *FileStore) SaveStock(ctx context.Context, st labelformat.Stock) (labelformat.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := prepareStock(st, s.newID)
	if err != nil {
		return labelformat.Stock{}, err
	}

	prev := s.data.Stocks[saved.ID]
	s.data.Stocks[saved.ID] = &saved
	if err := s.save(); err != nil {
		if prev != nil {
			s.data.Stocks[saved.ID] = prev
		} else {
			delete(s.data.Stocks, saved.ID)
		}
		return labelformat.Stock{}, err
	}
	return saved, nil
}

// GetStock returns one stock
func (s *FileStore) GetStock(ctx context.Context, id string) (labelformat.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.data.Stocks[id]
	if !ok {
		return labelformat.Stock{}, fmt.Errorf("stock %s: %w", id, ErrNotFound)
	}
	return *st, nil
}

// ListStocks returns every stock ordered by id
func (s *FileStore) ListStocks(ctx context.Context) ([]labelformat.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]labelformat.Stock, 0, len(s.data.Stocks))
	for _, st := range s.data.Stocks {
		result = append(result, *st)
	}
	sortStocks(result)
	return result, nil
}

// DeleteStock removes a stock
func (s *FileStore) DeleteStock(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.data.Stocks[id]
	if !ok {
		return fmt.Errorf("stock %s: %w", id, ErrNotFound)
	}
	delete(s.data.Stocks, id)
	if err := s.save(); err != nil {
		s.data.Stocks[id] = st
		return err
	}
	return nil
}

// Close is a no-op; every write is already on disk
func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() error {
	if s.filePath == "" {
		return os.ErrNotExist
	}
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &s.data); err != nil {
		return err
	}
	if s.data.Templates == nil {
		s.data.Templates = make(map[string]*labelformat.Template)
	}
	if s.data.Stocks == nil {
		s.data.Stocks = make(map[string]*labelformat.Stock)
	}
	return nil
}

// save replaces the store file through a temp file and rename
func (s *FileStore) save() error {
	if s.filePath == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.logger.Error("store write failed", "path", s.filePath, "error", err)
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		s.logger.Error("store write failed", "path", s.filePath, "error", err)
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

func copyTemplate(t labelformat.Template) labelformat.Template {
	t.Elements = append([]labelformat.Element(nil), t.Elements...)
	if t.Elements == nil {
		t.Elements = []labelformat.Element{}
	}
	return t
}

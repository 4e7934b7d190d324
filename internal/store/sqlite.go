package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereceipt/label-designer/pkg/labelformat"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	stock_id   TEXT NOT NULL DEFAULT '',
	elements   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS stocks (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	label_width   REAL NOT NULL DEFAULT 0,
	label_height  REAL NOT NULL DEFAULT 0,
	page_width    REAL NOT NULL DEFAULT 0,
	page_height   REAL NOT NULL DEFAULT 0,
	cols_per_page INTEGER NOT NULL DEFAULT 0,
	rows_per_page INTEGER NOT NULL DEFAULT 0,
	left_margin   REAL NOT NULL DEFAULT 0,
	top_margin    REAL NOT NULL DEFAULT 0,
	col_spacing   REAL NOT NULL DEFAULT 0,
	row_spacing   REAL NOT NULL DEFAULT 0
);`

const stockColumns = `id, name, label_width, label_height, page_width, page_height,
	cols_per_page, rows_per_page, left_margin, top_margin, col_spacing, row_spacing`

// SQLiteStore persists templates and stocks in a SQLite database
type SQLiteStore struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

// NewSQLiteStore opens (and migrates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store needs a database path")
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{
		db:    db,
		newID: func() string { return uuid.New().String() },
		now:   func() time.Time { return time.Now().UTC() },
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) seed() error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM stocks`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count stocks: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, st := range DefaultStocks() {
		if _, err := s.SaveStock(context.Background(), st); err != nil {
			return fmt.Errorf("failed to seed stocks: %w", err)
		}
	}
	return nil
}

// Save inserts or updates a template
func (s *SQLiteStore) Save(ctx context.Context, t labelformat.Template) (labelformat.Template, error) {
	var existing *labelformat.Template
	if t.ID != "" {
		prev, err := s.Load(ctx, t.ID)
		if err != nil {
			return labelformat.Template{}, err
		}
		existing = &prev
	}

	saved, err := prepareTemplate(t, existing, s.newID, s.now())
	if err != nil {
		return labelformat.Template{}, err
	}

	elements, err := json.Marshal(saved.Elements)
	if err != nil {
		return labelformat.Template{}, fmt.Errorf("failed to encode elements: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO templates (id, name, category, stock_id, elements, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			stock_id = excluded.stock_id,
			elements = excluded.elements,
			updated_at = excluded.updated_at`,
		saved.ID, saved.Name, saved.Category, saved.StockID, string(elements),
		formatTime(saved.CreatedAt), formatTime(saved.UpdatedAt))
	if err != nil {
		return labelformat.Template{}, fmt.Errorf("failed to save template: %w", err)
	}
	return saved, nil
}

// Load returns one template
func (s *SQLiteStore) Load(ctx context.Context, id string) (labelformat.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, stock_id, elements, created_at, updated_at
		FROM templates WHERE id = ?`, id)

	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return labelformat.Template{}, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return t, err
}

// List returns every template ordered by name
func (s *SQLiteStore) List(ctx context.Context) ([]labelformat.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, stock_id, elements, created_at, updated_at
		FROM templates ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	result := []labelformat.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Delete removes a template
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "templates", "template", id)
}

// SaveStock inserts or replaces a stock
func (s *SQLiteStore) SaveStock(ctx context.Context, st labelformat.Stock) (labelformat.Stock, error) {
	saved, err := prepareStock(st, s.newID)
	if err != nil {
		return labelformat.Stock{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO stocks (`+stockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		saved.ID, saved.Name, saved.LabelWidth, saved.LabelHeight,
		saved.PageWidth, saved.PageHeight, saved.ColsPerPage, saved.RowsPerPage,
		saved.LeftMargin, saved.TopMargin, saved.ColSpacing, saved.RowSpacing)
	if err != nil {
		return labelformat.Stock{}, fmt.Errorf("failed to save stock: %w", err)
	}
	return saved, nil
}

// GetStock returns one stock
func (s *SQLiteStore) GetStock(ctx context.Context, id string) (labelformat.Stock, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+stockColumns+` FROM stocks WHERE id = ?`, id)
	st, err := scanStock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return labelformat.Stock{}, fmt.Errorf("stock %s: %w", id, ErrNotFound)
	}
	return st, err
}

// ListStocks returns every stock ordered by id
func (s *SQLiteStore) ListStocks(ctx context.Context) ([]labelformat.Stock, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stockColumns+` FROM stocks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	defer rows.Close()

	result := []labelformat.Stock{}
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// DeleteStock removes a stock
func (s *SQLiteStore) DeleteStock(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "stocks", "stock", id)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) deleteRow(ctx context.Context, table, kind, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row scanner) (labelformat.Template, error) {
	var t labelformat.Template
	var elements, created, updated string
	if err := row.Scan(&t.ID, &t.Name, &t.Category, &t.StockID, &elements, &created, &updated); err != nil {
		return t, err
	}

	if err := json.Unmarshal([]byte(elements), &t.Elements); err != nil {
		return t, fmt.Errorf("template %s has corrupt elements: %w", t.ID, err)
	}
	if t.Elements == nil {
		t.Elements = []labelformat.Element{}
	}

	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return t, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return t, err
	}
	return t, nil
}

func scanStock(row scanner) (labelformat.Stock, error) {
	var st labelformat.Stock
	err := row.Scan(&st.ID, &st.Name, &st.LabelWidth, &st.LabelHeight,
		&st.PageWidth, &st.PageHeight, &st.ColsPerPage, &st.RowsPerPage,
		&st.LeftMargin, &st.TopMargin, &st.ColSpacing, &st.RowSpacing)
	return st, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

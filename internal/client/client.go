// Package client talks to the label-designer HTTP API. It satisfies the
// editor's TemplateStore so a terminal editor can work against a server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thereceipt/label-designer/internal/store"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// DefaultURL is used when no server URL is configured
const DefaultURL = "http://localhost:8080"

// Client is an HTTP client for the template API
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the server base URL
func (c *Client) URL() string { return c.baseURL }

// Health checks that the server answers
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Save creates the template when its ID is empty, otherwise updates it
func (c *Client) Save(ctx context.Context, t labelformat.Template) (labelformat.Template, error) {
	method, path := http.MethodPost, "/templates"
	if t.ID != "" {
		method, path = http.MethodPut, "/templates/"+url.PathEscape(t.ID)
	}
	var saved labelformat.Template
	err := c.do(ctx, method, path, t, &saved)
	return saved, err
}

// Load fetches one template
func (c *Client) Load(ctx context.Context, id string) (labelformat.Template, error) {
	var t labelformat.Template
	err := c.do(ctx, http.MethodGet, "/templates/"+url.PathEscape(id), nil, &t)
	return t, err
}

// Summary is the list form of a template
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	StockID   string    `json:"stock_id"`
	Elements  int       `json:"elements"`
	UpdatedAt time.Time `json:"updated_at"`
}

// List returns template summaries, filtered by category when non-empty
func (c *Client) List(ctx context.Context, category string) ([]Summary, error) {
	path := "/templates"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var resp struct {
		Templates []Summary `json:"templates"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

// Delete removes a template
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/templates/"+url.PathEscape(id), nil, nil)
}

// Export returns the interchange JSON of a template
func (c *Client) Export(ctx context.Context, id string) ([]byte, error) {
	return c.raw(ctx, http.MethodGet, "/templates/"+url.PathEscape(id)+"/export", nil)
}

// Import stores document JSON as a new template on the given stock
func (c *Client) Import(ctx context.Context, data []byte, stockID string) (labelformat.Template, error) {
	var t labelformat.Template
	path := "/templates/import?stock_id=" + url.QueryEscape(stockID)
	err := c.do(ctx, http.MethodPost, path, json.RawMessage(data), &t)
	return t, err
}

// Preview renders a stored template to PNG. A zero scale uses the server default.
func (c *Client) Preview(ctx context.Context, id string, scale float64) ([]byte, error) {
	path := "/templates/" + url.PathEscape(id) + "/preview"
	if scale > 0 {
		path += "?scale=" + strconv.FormatFloat(scale, 'f', -1, 64)
	}
	return c.raw(ctx, http.MethodGet, path, nil)
}

// ListStocks returns every stock
func (c *Client) ListStocks(ctx context.Context) ([]labelformat.Stock, error) {
	var resp struct {
		Stocks []labelformat.Stock `json:"stocks"`
	}
	if err := c.do(ctx, http.MethodGet, "/stocks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Stocks, nil
}

// GetStock fetches one stock
func (c *Client) GetStock(ctx context.Context, id string) (labelformat.Stock, error) {
	var s labelformat.Stock
	err := c.do(ctx, http.MethodGet, "/stocks/"+url.PathEscape(id), nil, &s)
	return s, err
}

// SaveStock creates or replaces a stock
func (c *Client) SaveStock(ctx context.Context, s labelformat.Stock) (labelformat.Stock, error) {
	method, path := http.MethodPost, "/stocks"
	if s.ID != "" {
		method, path = http.MethodPut, "/stocks/"+url.PathEscape(s.ID)
	}
	var saved labelformat.Stock
	err := c.do(ctx, method, path, s, &saved)
	return saved, err
}

// DeleteStock removes a stock
func (c *Client) DeleteStock(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/stocks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	data, err := c.raw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, responseError(resp.StatusCode, data)
	}
	return data, nil
}

// responseError turns an API error body into an error matching the
// store sentinels, so callers can use errors.Is either way.
func responseError(code int, body []byte) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", store.ErrNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", store.ErrInvalid, msg)
	}
	return fmt.Errorf("server returned %d: %s", code, msg)
}

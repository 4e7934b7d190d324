package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereceipt/label-designer/internal/store"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// handleListStocks returns every stock
func (s *Server) handleListStocks(c *gin.Context) {
	stocks, err := s.store.ListStocks(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, gin.H{"stocks": stocks})
}

func (s *Server) handleGetStock(c *gin.Context) {
	st, err := s.store.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, st)
}

// handleSaveStock creates (POST) or replaces (PUT /stocks/:id) a stock
func (s *Server) handleSaveStock(c *gin.Context) {
	var st labelformat.Stock
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if id := c.Param("id"); id != "" {
		st.ID = id
	}

	saved, err := s.store.SaveStock(c.Request.Context(), st)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.broadcast(EventStockSaved, map[string]interface{}{"id": saved.ID, "name": saved.Name})
	c.JSON(200, saved)
}

func (s *Server) handleDeleteStock(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteStock(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}

	s.broadcast(EventStockDeleted, map[string]interface{}{"id": id})
	c.JSON(200, gin.H{"success": true})
}

// handleListTemplates returns template summaries, optionally filtered by category
func (s *Server) handleListTemplates(c *gin.Context) {
	templates, err := s.store.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	category := c.Query("category")
	result := make([]gin.H, 0, len(templates))
	for _, t := range templates {
		if category != "" && t.Category != category {
			continue
		}
		result = append(result, gin.H{
			"id":         t.ID,
			"name":       t.Name,
			"category":   t.Category,
			"stock_id":   t.StockID,
			"elements":   len(t.Elements),
			"updated_at": t.UpdatedAt,
		})
	}

	c.JSON(200, gin.H{"templates": result})
}

func (s *Server) handleGetTemplate(c *gin.Context) {
	t, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(200, t)
}

// handleSaveTemplate creates (POST) or updates (PUT /templates/:id) a template
func (s *Server) handleSaveTemplate(c *gin.Context) {
	var t labelformat.Template
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	t.ID = c.Param("id")
	if err := s.checkStock(c, t.StockID); err != nil {
		s.fail(c, err)
		return
	}

	saved, err := s.store.Save(c.Request.Context(), t)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.broadcast(EventTemplateSaved, map[string]interface{}{"id": saved.ID, "name": saved.Name})
	c.JSON(200, saved)
}

// checkStock requires the stock a template references to exist
func (s *Server) checkStock(c *gin.Context, stockID string) error {
	if stockID == "" {
		return fmt.Errorf("%w: template stock is required", store.ErrInvalid)
	}
	_, err := s.store.GetStock(c.Request.Context(), stockID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: unknown stock %s", store.ErrInvalid, stockID)
	case err != nil:
		return fmt.Errorf("failed to look up stock %s: %w", stockID, err)
	}
	return nil
}

func (s *Server) handleDeleteTemplate(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}

	s.broadcast(EventTemplateDeleted, map[string]interface{}{"id": id})
	c.JSON(200, gin.H{"success": true})
}

// handleExportTemplate returns the interchange JSON of a template
func (s *Server) handleExportTemplate(c *gin.Context) {
	t, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(200, labelformat.ExportOf(t.Document()))
}

// handleImportTemplate stores document JSON as a new template. Element
// ids are regenerated; the stock comes from the stock_id query parameter.
func (s *Server) handleImportTemplate(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	export, err := labelformat.Parse(data)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	stockID := c.Query("stock_id")
	if err := s.checkStock(c, stockID); err != nil {
		s.fail(c, err)
		return
	}

	elements := make([]labelformat.Element, len(export.Elements))
	for i, el := range export.Elements {
		el.ID = uuid.New().String()
		elements[i] = el
	}

	saved, err := s.store.Save(c.Request.Context(), labelformat.Template{
		Name:     export.Name,
		Category: export.Category,
		StockID:  stockID,
		Elements: elements,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.broadcast(EventTemplateSaved, map[string]interface{}{"id": saved.ID, "name": saved.Name})
	c.JSON(http.StatusCreated, saved)
}

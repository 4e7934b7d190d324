package api

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/internal/jobs"
	"github.com/thereceipt/label-designer/internal/renderer"
	"github.com/thereceipt/label-designer/internal/store"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

const maxScale = 8

// RenderFunc returns a job render function that previews stored templates
func RenderFunc(st store.Store, opts renderer.Options) jobs.RenderFunc {
	return func(ctx context.Context, templateID string, scale float64) ([]byte, error) {
		t, err := st.Load(ctx, templateID)
		if err != nil {
			return nil, err
		}
		return renderPNG(ctx, st, t.Document(), scale, opts)
	}
}

// renderPNG previews doc on its stock at the given scale
func renderPNG(ctx context.Context, st store.Store, doc labelformat.Document, scale float64, opts renderer.Options) ([]byte, error) {
	stock, err := st.GetStock(ctx, doc.StockID)
	if err != nil {
		return nil, err
	}
	size, err := geometry.LabelSize(stock)
	if err != nil {
		return nil, err
	}

	if scale > 0 {
		opts.Scale = scale
	}
	opts.Preview = true
	opts.Selected = nil

	img, err := renderer.Render(doc, size, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := renderer.EncodePNG(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// parseScale reads the scale query parameter; zero means the configured default
func parseScale(c *gin.Context) (float64, error) {
	raw := c.Query("scale")
	if raw == "" {
		return 0, nil
	}
	scale, err := strconv.ParseFloat(raw, 64)
	if err != nil || scale <= 0 || scale > maxScale {
		return 0, fmt.Errorf("scale must be a number in (0, %d]", maxScale)
	}
	return scale, nil
}

// handleTemplatePreview renders a stored template synchronously
func (s *Server) handleTemplatePreview(c *gin.Context) {
	scale, err := parseScale(c)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	t, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	png, err := renderPNG(c.Request.Context(), s.store, t.Document(), scale, s.render)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(200, "image/png", png)
}

// handlePreview renders an unsaved document posted by an editor
func (s *Server) handlePreview(c *gin.Context) {
	scale, err := parseScale(c)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	var doc labelformat.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if doc.StockID == "" {
		c.JSON(400, gin.H{"error": "stock_id is required"})
		return
	}
	if err := labelformat.ValidateElements(doc.Elements, false); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	png, err := renderPNG(c.Request.Context(), s.store, doc, scale, s.render)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(200, "image/png", png)
}

// handleEnqueueJob queues a background preview of a stored template
func (s *Server) handleEnqueueJob(c *gin.Context) {
	if s.queue == nil {
		c.JSON(503, gin.H{"error": "render queue disabled"})
		return
	}
	scale, err := parseScale(c)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if _, err := s.store.Load(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}

	jobID := s.queue.Enqueue(id, scale)
	c.JSON(202, gin.H{
		"success":     true,
		"job_id":      jobID,
		"template_id": id,
	})
}

// handleGetJobs returns all render jobs
func (s *Server) handleGetJobs(c *gin.Context) {
	if s.queue == nil {
		c.JSON(200, gin.H{"jobs": []jobs.Job{}})
		return
	}
	c.JSON(200, gin.H{"jobs": s.queue.All()})
}

// handleClearJobs drops finished jobs
func (s *Server) handleClearJobs(c *gin.Context) {
	removed := 0
	if s.queue != nil {
		removed = s.queue.ClearFinished()
	}
	c.JSON(200, gin.H{"removed": removed})
}

// handleGetJob returns a specific job
func (s *Server) handleGetJob(c *gin.Context) {
	job, ok := s.getJob(c.Param("id"))
	if !ok {
		c.JSON(404, gin.H{"error": "job not found"})
		return
	}
	c.JSON(200, job)
}

// handleGetJobImage returns the PNG of a completed job
func (s *Server) handleGetJobImage(c *gin.Context) {
	job, ok := s.getJob(c.Param("id"))
	if !ok {
		c.JSON(404, gin.H{"error": "job not found"})
		return
	}
	if job.Status != jobs.StatusCompleted {
		c.JSON(409, gin.H{"error": fmt.Sprintf("job is %s", job.Status), "status": job.Status})
		return
	}
	c.Data(200, "image/png", job.PNG)
}

func (s *Server) getJob(id string) (jobs.Job, bool) {
	if s.queue == nil {
		return jobs.Job{}, false
	}
	return s.queue.Get(id)
}

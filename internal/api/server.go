// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/internal/jobs"
	"github.com/thereceipt/label-designer/internal/renderer"
	"github.com/thereceipt/label-designer/internal/store"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// Server is the API server
type Server struct {
	router   *gin.Engine
	store    store.Store
	queue    *jobs.Queue
	render   renderer.Options
	upgrader websocket.Upgrader
	hub      *hub
	logger   *slog.Logger
}

// NewServer creates a new API server. queue may be nil, which disables
// the job endpoints.
func NewServer(st store.Store, queue *jobs.Queue, render renderer.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware())

	server := &Server{
		router: router,
		store:  st,
		queue:  queue,
		render: render,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		hub:    newHub(logger),
		logger: logger,
	}

	if queue != nil {
		queue.OnUpdate(server.BroadcastJob)
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/stocks", s.handleListStocks)
	s.router.POST("/stocks", s.handleSaveStock)
	s.router.GET("/stocks/:id", s.handleGetStock)
	s.router.PUT("/stocks/:id", s.handleSaveStock)
	s.router.DELETE("/stocks/:id", s.handleDeleteStock)

	s.router.GET("/templates", s.handleListTemplates)
	s.router.POST("/templates", s.handleSaveTemplate)
	s.router.POST("/templates/import", s.handleImportTemplate)
	s.router.GET("/templates/:id", s.handleGetTemplate)
	s.router.PUT("/templates/:id", s.handleSaveTemplate)
	s.router.DELETE("/templates/:id", s.handleDeleteTemplate)
	s.router.GET("/templates/:id/export", s.handleExportTemplate)
	s.router.GET("/templates/:id/preview", s.handleTemplatePreview)
	s.router.POST("/templates/:id/jobs", s.handleEnqueueJob)

	s.router.POST("/preview", s.handlePreview)

	s.router.GET("/jobs", s.handleGetJobs)
	s.router.DELETE("/jobs", s.handleClearJobs)
	s.router.GET("/jobs/:id", s.handleGetJob)
	s.router.GET("/jobs/:id/image", s.handleGetJobImage)

	// WebSocket
	s.router.GET("/ws", s.handleWebSocket)

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the API server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalid),
		errors.Is(err, labelformat.ErrMissingElements),
		errors.Is(err, geometry.ErrDegenerateStock),
		errors.Is(err, renderer.ErrEmptyCanvas):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

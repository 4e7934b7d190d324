package api

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/label-designer/internal/jobs"
)

// WebSocket message types
const (
	EventPing            = "ping"
	EventPong            = "pong"
	EventPreview         = "preview"
	EventTemplateSaved   = "template_saved"
	EventTemplateDeleted = "template_deleted"
	EventStockSaved      = "stock_saved"
	EventStockDeleted    = "stock_deleted"
	EventJobUpdated      = "job_updated"
	EventResponse        = "response"
	EventError           = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
}

// hub tracks connected clients for broadcasts
type hub struct {
	clients map[*WSClient]bool
	mu      sync.RWMutex
	logger  *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{clients: make(map[*WSClient]bool), logger: logger}
}

func (h *hub) add(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

// remove unregisters c and closes its send channel, which ends its write pump
func (h *hub) remove(c *WSClient) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			// Client send buffer full, skip
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}
	s.hub.add(client)
	s.logger.Info("websocket client connected", "clients", s.hub.count())

	go client.readPump()
	go client.writePump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.server.logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.server.hub.remove(c)
		c.conn.Close()
		c.server.logger.Info("websocket client disconnected")
	}()

	for {
		var msg WSMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Warn("websocket read failed", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

func (c *WSClient) handleMessage(msg *WSMessage) {
	switch msg.Event {
	case EventPing:
		c.reply(WSMessage{Event: EventPong, Data: map[string]interface{}{}})
	case EventPreview:
		c.handlePreviewEvent(msg.Data)
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

// handlePreviewEvent queues a render of a stored template. Progress
// arrives as job_updated broadcasts.
func (c *WSClient) handlePreviewEvent(data map[string]interface{}) {
	templateID, ok := data["template_id"].(string)
	if !ok || templateID == "" {
		c.sendError("template_id is required")
		return
	}
	if c.server.queue == nil {
		c.sendError("render queue disabled")
		return
	}

	scale, _ := data["scale"].(float64)
	if scale < 0 || scale > maxScale {
		c.sendError(fmt.Sprintf("scale must be in (0, %d]", maxScale))
		return
	}

	jobID := c.server.queue.Enqueue(templateID, scale)
	c.reply(WSMessage{
		Event: EventResponse,
		Data: map[string]interface{}{
			"success": true,
			"job_id":  jobID,
		},
	})
}

// reply queues a message for this client. Called only from readPump, so
// the channel is still open.
func (c *WSClient) reply(msg WSMessage) {
	select {
	case c.send <- msg:
	default:
		c.server.logger.Warn("websocket send buffer full, dropping reply", "event", msg.Event)
	}
}

func (c *WSClient) sendError(message string) {
	c.reply(WSMessage{
		Event: EventError,
		Data: map[string]interface{}{
			"error": message,
		},
	})
}

func (s *Server) broadcast(event string, data map[string]interface{}) {
	s.hub.broadcast(WSMessage{Event: event, Data: data})
}

// BroadcastJob broadcasts a render job status change to all connected clients
func (s *Server) BroadcastJob(job jobs.Job) {
	data := map[string]interface{}{
		"id":          job.ID,
		"template_id": job.TemplateID,
		"status":      string(job.Status),
		"retries":     job.Retries,
	}
	if job.Error != "" {
		data["error"] = job.Error
	}
	s.broadcast(EventJobUpdated, data)
}

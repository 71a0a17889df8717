// Package ws streams session lifecycle events to UI clients.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/windowhub/engine/internal/engine"
	"github.com/windowhub/engine/internal/infrastructure/monitoring"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the engine binds to loopback; the UI is the only client
	},
}

// Handler manages WebSocket connections
type Handler struct {
	engine  *engine.Engine
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(eng *engine.Engine, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: eng, logger: logger, metrics: metrics}
}

// client serializes writes; the event pusher and the pong reply both
// write to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (cl *client) send(data interface{}) error {
	buf, err := sonic.Marshal(data)
	if err != nil {
		return err
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return cl.conn.WriteMessage(websocket.TextMessage, buf)
}

// HandleConnection upgrades the connection and pushes engine events
// until the client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	events, cancel := h.engine.Subscribe()
	defer cancel()

	cl := &client{conn: conn}
	cl.send(map[string]interface{}{
		"type":    "system",
		"message": "connected",
	})

	// The read loop signals teardown when the client disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg struct {
				Type string `json:"type"`
			}
			if err := sonic.Unmarshal(raw, &msg); err != nil {
				continue
			}
			if msg.Type == "ping" {
				cl.send(map[string]interface{}{"type": "pong"})
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := cl.send(ev); err != nil {
				return
			}
			h.metrics.RecordWSEvent(string(ev.Type))
		}
	}
}

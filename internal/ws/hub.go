package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/desktop"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/monitoring"
	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/types"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Hub tracks connected clients and broadcasts to them.
type Hub struct {
	desktop *desktop.Manager
	log     *zap.Logger
	metrics *monitoring.Metrics
	origins []string

	mu      sync.Mutex
	clients map[*client]struct{} // Protected by mu
	closed  bool                 // Protected by mu

	upgrader websocket.Upgrader
}

// NewHub creates a hub that greets clients with desk's layout.
func NewHub(desk *desktop.Manager, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		desktop: desk,
		log:     log,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// WithMetrics adds metrics tracking to the hub
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// WithOrigins restricts the browser origins allowed to connect. "*" or an
// empty list allows all.
func (h *Hub) WithOrigins(origins []string) *Hub {
	h.origins = origins
	return h
}

// Notify broadcasts a record notification. It implements types.Notifier.
func (h *Hub) Notify(n types.Notification) {
	msg := newMessage(TypeNotification, n)
	msg.Message = n.Message
	h.broadcast(msg)
}

// DesktopChanged broadcasts the layout after an action. It matches
// desktop.Listener.
func (h *Hub) DesktopChanged(state desktop.State, a desktop.Action) {
	msg := newMessage(TypeDesktop, state)
	msg.Action = a.Name()
	h.broadcast(msg)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.log.Info("WebSocket hub closed", zap.Int("clients", len(clients)))
}

// HandleConnection upgrades the request and serves the client until it leaves.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written an error response.
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := newClient(h, conn)
	if !h.register(cl) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	defer h.unregister(cl)

	if h.desktop != nil {
		cl.enqueue(h.encode(newMessage(TypeDesktop, h.desktop.Snapshot())), TypeDesktop)
	}

	go cl.writePump()
	cl.readPump()
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.IncWSConnections()
	h.log.Info("WebSocket client connected",
		zap.String("remote", c.conn.RemoteAddr().String()),
		zap.Int("clients", total))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	h.metrics.DecWSConnections()
	if ok {
		h.log.Info("WebSocket client disconnected",
			zap.Int("clients", total),
			zap.Int64("dropped", c.droppedCount()))
	}
}

// broadcast encodes msg once and queues it for every client without blocking.
func (h *Hub) broadcast(msg Message) {
	data := h.encode(msg)
	if data == nil {
		return
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.enqueue(data, msg.Type)
	}
}

func (h *Hub) encode(msg Message) []byte {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.log.Error("Failed to encode WebSocket message", zap.String("type", msg.Type), zap.Error(err))
		return nil
	}
	return data
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 {
		return true
	}
	for _, o := range h.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client is one connection. Only writePump writes to conn.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	dropped   atomic.Int64
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn) *client {
	return &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue queues data unless the client is gone or its queue is full.
func (c *client) enqueue(data []byte, msgType string) bool {
	if data == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		c.hub.metrics.RecordWSMessage("out", msgType)
		return true
	default:
		c.dropped.Add(1)
		c.hub.metrics.RecordWSMessage("dropped", msgType)
		c.hub.log.Warn("WebSocket client too slow, message dropped",
			zap.String("type", msgType),
			zap.Int64("dropped", c.dropped.Load()))
		return false
	}
}

func (c *client) droppedCount() int64 {
	return c.dropped.Load()
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump handles inbound frames until the connection fails.
func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			c.reply(Message{Type: TypeError, Message: "malformed message", Timestamp: time.Now().UnixMilli()})
			continue
		}
		c.hub.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case TypePing:
			c.reply(newMessage(TypePong, nil))
		case TypeSnapshot:
			if c.hub.desktop != nil {
				c.reply(newMessage(TypeDesktop, c.hub.desktop.Snapshot()))
			}
		default:
			c.reply(Message{Type: TypeError, Message: "unknown message type", Timestamp: time.Now().UnixMilli()})
		}
	}
}

func (c *client) reply(msg Message) {
	c.enqueue(c.hub.encode(msg), msg.Type)
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

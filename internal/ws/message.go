package ws

import "time"

// Message types
const (
	TypeDesktop      = "desktop"
	TypeNotification = "notification"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeSnapshot     = "snapshot"
	TypeError        = "error"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type      string      `json:"type"`
	Action    string      `json:"action,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func newMessage(msgType string, data interface{}) Message {
	return Message{Type: msgType, Data: data, Timestamp: time.Now().UnixMilli()}
}

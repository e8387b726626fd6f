package types

import (
	"time"

	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/id"
)

// NotificationType selects how a desktop renders a toast.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

// DefaultNotificationDuration is how long a toast stays on screen.
const DefaultNotificationDuration = 3 * time.Second

// Notification is pushed to connected desktops.
type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	Event      string           `json:"event"`
	Message    string           `json:"message,omitempty"`
	DurationMs int64            `json:"durationMs"`
	Data       interface{}      `json:"data,omitempty"`
	Timestamp  int64            `json:"timestamp"`
}

// NewNotification builds a notification with a fresh ID and the default duration.
func NewNotification(kind NotificationType, event, message string, data interface{}) Notification {
	return Notification{
		ID:         id.NewNotificationID(),
		Type:       kind,
		Event:      event,
		Message:    message,
		DurationMs: DefaultNotificationDuration.Milliseconds(),
		Data:       data,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// Notifier receives notifications from domain services.
type Notifier interface {
	Notify(n Notification)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(Notification) {}

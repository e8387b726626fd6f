// Package ws pushes live updates to connected desktops over WebSocket.
//
// A Hub fans notifications from the record service and desktop layout changes
// out to every client. Each client has its own buffered queue and writer
// goroutine; when a queue is full the message is dropped for that client only,
// so a slow desktop never blocks a publisher.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping, answered with pong
//   - snapshot: Request the current desktop layout
//
// Message Types (Server → Client):
//   - desktop: Desktop layout, sent on connect, on request and after every change
//   - notification: A toast for a record event
//   - pong: Reply to ping
//   - error: Unknown or malformed message
//
// Example Usage:
//
//	hub := ws.NewHub(manager, logger).WithMetrics(metrics)
//	manager.Subscribe(hub.DesktopChanged)
//	router.GET("/stream", hub.HandleConnection)
package ws

package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	maxClientLogEntries  = 50
	maxClientLogFields   = 20
	maxClientLogMsgBytes = 2048
)

// ClientLogEntry is one log line reported by a desktop.
type ClientLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Window    string                 `json:"window,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp int64                  `json:"timestamp,omitempty"`
}

// ClientLogBatch is the body of POST /api/logs.
type ClientLogBatch struct {
	Entries []ClientLogEntry `json:"entries" binding:"required"`
}

// ReportLogs writes desktop log entries into the server log
func (h *Handlers) ReportLogs(c *gin.Context) {
	var req ClientLogBatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid log request format")
		return
	}
	if len(req.Entries) == 0 {
		badRequest(c, "No log entries provided")
		return
	}
	if len(req.Entries) > maxClientLogEntries {
		badRequest(c, "too many log entries: at most "+strconv.Itoa(maxClientLogEntries))
		return
	}

	logger := h.log.Named("desktop-ui")
	for _, entry := range req.Entries {
		logger.Log(clientLevel(entry.Level), truncate(entry.Message, maxClientLogMsgBytes), clientFields(entry)...)
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": len(req.Entries)})
}

// clientLevel maps a browser console level. Client errors are capped at Warn.
func clientLevel(level string) zapcore.Level {
	switch level {
	case "error", "warn":
		return zapcore.WarnLevel
	case "debug", "verbose":
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func clientFields(entry ClientLogEntry) []zap.Field {
	fields := make([]zap.Field, 0, len(entry.Context)+3)
	fields = append(fields, zap.String("client_level", entry.Level))
	if entry.Window != "" {
		fields = append(fields, zap.String("window", entry.Window))
	}
	if entry.Timestamp > 0 {
		fields = append(fields, zap.Int64("client_ts", entry.Timestamp))
	}

	n := 0
	for key, value := range entry.Context {
		if n == maxClientLogFields {
			break
		}
		n++
		key = "ctx." + truncate(key, utils.MaxNameLength)
		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, truncate(v, maxClientLogMsgBytes)))
		case float64:
			fields = append(fields, zap.Float64(key, v))
		case bool:
			fields = append(fields, zap.Bool(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}
	return fields
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

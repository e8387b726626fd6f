package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/books"
)

// StatsSnapshot aggregates the counters of every component
type StatsSnapshot struct {
	Timestamp time.Time    `json:"timestamp"`
	Records   int          `json:"records"`
	Lookups   books.Stats  `json:"lookups"`
	Summary   StatsSummary `json:"summary"`
}

// StatsSummary provides high-level request metrics
type StatsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	ErrorRate         float64 `json:"error_rate"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Stats returns a JSON summary of the server's metrics
func (h *Handlers) Stats(c *gin.Context) {
	count, err := h.records.Store().Count(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsSnapshot{
		Timestamp: h.now().UTC(),
		Records:   count,
		Lookups:   h.books.Stats(),
		Summary:   h.summary(),
	})
}

// summary computes high-level summary metrics
func (h *Handlers) summary() StatsSummary {
	snapshot := h.metrics.Snapshot()

	var errorRate float64
	if snapshot.TotalRequests > 0 {
		errorRate = float64(snapshot.TotalErrors) / float64(snapshot.TotalRequests)
	}

	return StatsSummary{
		TotalRequests:     snapshot.TotalRequests,
		AverageLatencyMs:  snapshot.AverageLatencyMs,
		ErrorRate:         errorRate,
		ActiveConnections: snapshot.ActiveConnections,
		UptimeSeconds:     snapshot.UptimeSeconds,
	}
}

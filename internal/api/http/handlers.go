package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/desktop"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/record"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/monitoring"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/books"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/recommend"
	"go.uber.org/zap"
)

// Version is reported by the status endpoints.
const Version = "1.0.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	records   *record.Service
	books     *books.Client
	recommend *recommend.Client
	desktop   *desktop.Manager
	metrics   *monitoring.Metrics
	log       *zap.Logger
	now       func() time.Time
}

// NewHandlers creates a new handler set. metrics and log may be nil.
func NewHandlers(
	records *record.Service,
	bookClient *books.Client,
	recommender *recommend.Client,
	desk *desktop.Manager,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		records:   records,
		books:     bookClient,
		recommend: recommender,
		desktop:   desk,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Very Good Reads API",
		"version": Version,
	})
}

// Health reports the state of every component
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	storeInfo := gin.H{"connected": true}

	count, err := h.records.Store().Count(c.Request.Context())
	if err != nil {
		status = "degraded"
		storeInfo = gin.H{"connected": false, "error": err.Error()}
	} else {
		storeInfo["records"] = count
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"version": Version,
		"store":   storeInfo,
		"books":   h.books.Stats(),
		"recommendations": gin.H{
			"configured": h.recommend.Enabled(),
			"breaker":    h.recommend.BreakerState().String(),
		},
		"metrics": h.metrics.Snapshot(),
	})
}

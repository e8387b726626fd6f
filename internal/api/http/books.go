package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/books"
)

const (
	maxLookupTimeout  = 30 * time.Second
	maxPreloadEntries = 100
)

// LookupBook fetches the cover and metadata for ?title=&author=
func (h *Handlers) LookupBook(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		badRequest(c, "title is required")
		return
	}

	timeout, ok := lookupTimeout(c.Query("timeout_ms"))
	if !ok {
		badRequest(c, "timeout_ms must be a positive integer")
		return
	}

	res := h.books.Fetch(c.Request.Context(), title, c.Query("author"), timeout)
	c.JSON(http.StatusOK, res)
}

// lookupTimeout parses timeout_ms, capped at maxLookupTimeout. Empty means
// zero, the client default.
func lookupTimeout(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, true
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return 0, false
	}
	// Capped before converting so huge values cannot overflow
	if ms > maxLookupTimeout.Milliseconds() {
		return maxLookupTimeout, true
	}
	return time.Duration(ms) * time.Millisecond, true
}

// PreloadBooks queues background lookups and returns immediately
func (h *Handlers) PreloadBooks(c *gin.Context) {
	var req struct {
		Candidates []books.Candidate `json:"candidates" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if len(req.Candidates) > maxPreloadEntries {
		badRequest(c, "too many candidates: at most "+strconv.Itoa(maxPreloadEntries))
		return
	}

	h.books.Preload(req.Candidates)
	c.JSON(http.StatusAccepted, gin.H{
		"accepted": len(req.Candidates),
		"stats":    h.books.Stats(),
	})
}

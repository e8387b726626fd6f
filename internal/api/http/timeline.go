package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/record"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/timeline"
)

// Timeline returns reading activity for ?range=week|month|year
func (h *Handlers) Timeline(c *gin.Context) {
	r, err := timeline.ParseRange(c.Query("range"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	records, err := h.records.List(c.Request.Context(), record.Filter{})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline.Build(records, r, h.now()))
}

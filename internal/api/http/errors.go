package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/record"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/recommend"
	"go.uber.org/zap"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, record.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, record.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, recommend.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, record.ErrInvalid), errors.Is(err, recommend.ErrInvalidKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error": ...}. Internal errors are logged and their
// detail is not sent to the client.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	msg := err.Error()
	if errors.Is(err, recommend.ErrEmptyInput) {
		msg = strings.TrimPrefix(msg, recommend.ErrEmptyInput.Error()+": ")
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/id"
)

// RecordID rejects requests whose :param is not a record ID.
func RecordID(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.Param(param); !id.IsRecordID(v) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid record id: " + v})
			return
		}
		c.Next()
	}
}

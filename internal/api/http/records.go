package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/record"
)

// CreateRecord adds a reading record
func (h *Handlers) CreateRecord(c *gin.Context) {
	var in record.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	rec, err := h.records.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ListRecords lists records, optionally filtered by ?status= and searched by ?q=
func (h *Handlers) ListRecords(c *gin.Context) {
	var f record.Filter
	if raw := c.Query("status"); raw != "" {
		status, err := record.ParseStatus(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		f.Status = status
	}
	f.Query = c.Query("q")

	records, err := h.records.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ListRecordsByStatus lists the records in one status
func (h *Handlers) ListRecordsByStatus(c *gin.Context) {
	status, err := record.ParseStatus(c.Param("status"))
	if err != nil {
		h.fail(c, err)
		return
	}

	records, err := h.records.ListByStatus(c.Request.Context(), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetRecord returns one record
func (h *Handlers) GetRecord(c *gin.Context) {
	rec, err := h.records.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpdateRecord applies a partial update
func (h *Handlers) UpdateRecord(c *gin.Context) {
	var p record.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	rec, err := h.records.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpdateRecordStatus moves a record to another status
func (h *Handlers) UpdateRecordStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	status, err := record.ParseStatus(req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	rec, err := h.records.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// AddReview rates a finished record
func (h *Handlers) AddReview(c *gin.Context) {
	var review record.Review
	if err := c.ShouldBindJSON(&review); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	rec, err := h.records.AddReview(c.Request.Context(), c.Param("id"), review)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteRecord removes a record
func (h *Handlers) DeleteRecord(c *gin.Context) {
	recordID := c.Param("id")
	if err := h.records.Delete(c.Request.Context(), recordID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deletedCount": 1,
		"id":           recordID,
	})
}

// ExportRecords downloads every record as JSON or YAML
func (h *Handlers) ExportRecords(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", record.FormatJSON))

	data, err := h.records.Export(c.Request.Context(), format)
	if err != nil {
		h.fail(c, err)
		return
	}

	ext := format
	if ext == "yml" {
		ext = record.FormatYAML
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="reading-records.%s"`, ext))
	c.Data(http.StatusOK, record.ContentType(format), data)
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/desktop"
)

// GetDesktop returns the window layout
func (h *Handlers) GetDesktop(c *gin.Context) {
	c.JSON(http.StatusOK, h.desktop.Snapshot())
}

// GetTaskbar returns the minimized windows
func (h *Handlers) GetTaskbar(c *gin.Context) {
	windows := h.desktop.Taskbar()
	if windows == nil {
		windows = []desktop.Window{}
	}
	c.JSON(http.StatusOK, gin.H{"windows": windows})
}

// WindowAction applies open, close, minimize, restore or focus to a window
func (h *Handlers) WindowAction(c *gin.Context) {
	windowID, ok := h.windowID(c)
	if !ok {
		return
	}

	action, ok := desktop.ActionFor(c.Param("action"), windowID)
	if !ok {
		badRequest(c, "unknown window action: "+c.Param("action"))
		return
	}
	c.JSON(http.StatusOK, h.desktop.Dispatch(action))
}

// SetWindowPosition moves a window
func (h *Handlers) SetWindowPosition(c *gin.Context) {
	windowID, ok := h.windowID(c)
	if !ok {
		return
	}

	var req struct {
		X *int `json:"x" binding:"required"`
		Y *int `json:"y" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	state := h.desktop.Dispatch(desktop.SetPosition{
		ID:       windowID,
		Position: desktop.Position{X: *req.X, Y: *req.Y},
	})
	c.JSON(http.StatusOK, state)
}

// ResetDesktop restores the initial layout
func (h *Handlers) ResetDesktop(c *gin.Context) {
	c.JSON(http.StatusOK, h.desktop.Reset())
}

// windowID validates the :id parameter. Unknown IDs never reach the reducer.
func (h *Handlers) windowID(c *gin.Context) (desktop.WindowID, bool) {
	windowID, ok := desktop.ParseWindowID(c.Param("id"))
	if !ok {
		badRequest(c, "unknown window: "+c.Param("id"))
		return desktop.None, false
	}
	return windowID, true
}

package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/api/middleware"
)

// RouteOptions tunes the per-route middleware.
type RouteOptions struct {
	MaxBodyBytes int64
	// RecommendLimit is shared by all clients of the recommendation endpoint.
	RecommendLimit middleware.RateLimitConfig
}

// Register mounts the API routes on r.
func (h *Handlers) Register(r gin.IRouter, opts RouteOptions) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(middleware.BodyLimit(opts.MaxBodyBytes))
	{
		records := api.Group("/reading-records")
		records.POST("", h.CreateRecord)
		records.GET("", h.ListRecords)
		records.GET("/status/:status", h.ListRecordsByStatus)
		records.GET("/export", h.ExportRecords)

		byID := records.Group("/:id", middleware.RecordID("id"))
		byID.GET("", h.GetRecord)
		byID.PUT("", h.UpdateRecord)
		byID.DELETE("", h.DeleteRecord)
		byID.PATCH("/status", h.UpdateRecordStatus)
		byID.POST("/review", h.AddReview)

		api.GET("/timeline", h.Timeline)
		api.GET("/stats", h.Stats)
		api.POST("/logs", h.ReportLogs)

		bookRoutes := api.Group("/books")
		bookRoutes.GET("/lookup", h.LookupBook)
		bookRoutes.POST("/preload", h.PreloadBooks)

		recommendLimit := opts.RecommendLimit
		if recommendLimit.RequestsPerSecond <= 0 {
			recommendLimit = middleware.RateLimitConfig{RequestsPerSecond: 2, Burst: 5}
		}
		api.POST("/recommendations", middleware.GlobalRateLimit(recommendLimit), h.Recommend)

		desk := api.Group("/desktop")
		desk.GET("", h.GetDesktop)
		desk.GET("/taskbar", h.GetTaskbar)
		desk.POST("/reset", h.ResetDesktop)
		desk.PUT("/windows/:id/position", h.SetWindowPosition)
		desk.POST("/windows/:id/:action", h.WindowAction)
	}
}

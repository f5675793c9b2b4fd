package api

import (
	"net/http"

	authDelivery "outreach-backend/internal/auth/delivery"
	"outreach-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/metrics", metrics.Handler())

	// Short links
	r.GET("/r/:code", h.campaignHandler.Redirect)

	api := r.Group("/api")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Lead routes
		leads := api.Group("/leads")
		if h.config.AppCheckEnforced && h.appCheck != nil {
			leads.Use(authDelivery.AppCheckMiddleware(h.appCheck))
		}
		{
			leads.POST("", h.leadHandler.UpsertLead)
			leads.POST("/import", h.importLimiter.Middleware(), h.leadHandler.ImportLeads)
			leads.GET("/stats", h.leadHandler.GetStats)
		}
	}
}

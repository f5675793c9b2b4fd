package api

import (
	"net/http"

	authDelivery "outreach-backend/internal/auth/delivery"
	campaignDelivery "outreach-backend/internal/campaign/delivery"
	campaignUsecase "outreach-backend/internal/campaign/usecase"
	leadDelivery "outreach-backend/internal/lead/delivery"
	leadUsecase "outreach-backend/internal/lead/usecase"
	"outreach-backend/pkg/config"
	"outreach-backend/pkg/metrics"
	"outreach-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	leadHandler     *leadDelivery.LeadHandler
	campaignHandler *campaignDelivery.CampaignHandler
	importLimiter   *ratelimit.Limiter
	appCheck        authDelivery.TokenVerifier
	config          *config.Config
}

// NewHandler wires the HTTP layer. appCheck may be nil when App Check is not
// enforced.
func NewHandler(leadUc leadUsecase.LeadUsecase, campaignUc campaignUsecase.CampaignUsecase, appCheck authDelivery.TokenVerifier, cfg *config.Config) *Handler {
	return &Handler{
		leadHandler:     leadDelivery.NewLeadHandler(leadUc),
		campaignHandler: campaignDelivery.NewCampaignHandler(campaignUc),
		importLimiter:   ratelimit.New(cfg.ImportRatePerMinute, cfg.ImportRateBurst),
		appCheck:        appCheck,
		config:          cfg,
	}
}

// Engine builds the gin engine with middleware and routes
func (h *Handler) Engine() *gin.Engine {
	r := gin.Default()
	r.HandleMethodNotAllowed = true

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && h.originAllowed(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+authDelivery.AppCheckHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	r.Use(metrics.Middleware())

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	SetupRoutes(r, h)
	return r
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	return h.Engine().Run(addr)
}

// Close releases background resources held by the handler
func (h *Handler) Close() {
	h.importLimiter.Stop()
}

func (h *Handler) originAllowed(origin string) bool {
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

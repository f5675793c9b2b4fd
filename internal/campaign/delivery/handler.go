package delivery

import (
	"errors"
	"log"
	"net/http"

	"outreach-backend/internal/campaign/domain"
	"outreach-backend/internal/campaign/usecase"

	"github.com/gin-gonic/gin"
)

// CampaignHandler serves campaign short links
type CampaignHandler struct {
	campaignUsecase usecase.CampaignUsecase
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignUsecase usecase.CampaignUsecase) *CampaignHandler {
	return &CampaignHandler{
		campaignUsecase: campaignUsecase,
	}
}

// Redirect counts a click and sends the visitor to the campaign target
// GET /r/:code
func (h *CampaignHandler) Redirect(c *gin.Context) {
	target, err := h.campaignUsecase.ResolveShortLink(c.Request.Context(), c.Param("code"), c.Request.Referer())
	if err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			c.String(http.StatusNotFound, "Not found")
			return
		}
		log.Printf("[CampaignHandler] Redirect failed: %v", err)
		c.String(http.StatusInternalServerError, "error")
		return
	}

	c.Redirect(http.StatusFound, target)
}

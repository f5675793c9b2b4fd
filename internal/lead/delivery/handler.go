package delivery

import (
	"errors"
	"log"
	"net/http"

	"outreach-backend/internal/lead/domain"
	"outreach-backend/internal/lead/dto"
	"outreach-backend/internal/lead/usecase"

	"github.com/gin-gonic/gin"
)

// LeadHandler handles lead-related HTTP requests
type LeadHandler struct {
	leadUsecase usecase.LeadUsecase
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadUsecase usecase.LeadUsecase) *LeadHandler {
	return &LeadHandler{
		leadUsecase: leadUsecase,
	}
}

// UpsertLead creates or merges one lead
// POST /api/leads
func (h *LeadHandler) UpsertLead(c *gin.Context) {
	var req dto.UpsertLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if req.OrgID == "" {
		req.OrgID = c.Query("orgId")
	}

	resp, err := h.leadUsecase.UpsertLead(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ImportLeads reconciles a CSV batch
// POST /api/leads/import
func (h *LeadHandler) ImportLeads(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if req.OrgID == "" {
		req.OrgID = c.Query("orgId")
	}

	resp, err := h.leadUsecase.ImportLeads(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStats returns the dashboard summary
// GET /api/leads/stats
func (h *LeadHandler) GetStats(c *gin.Context) {
	stats, err := h.leadUsecase.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func respondError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var limitErr *domain.RowLimitError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  validationErr.Error(),
			"fields": validationErr.Errors,
		})
	case errors.As(err, &limitErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": limitErr.Error(),
			"limit": limitErr.Limit,
		})
	default:
		log.Printf("[LeadHandler] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bambinounos/eia/internal/database/models"
	"github.com/bambinounos/eia/internal/services"
)

// OpportunityHandler handles detected-opportunity review requests
type OpportunityHandler struct {
	opportunityService *services.OpportunityService
	logService         *services.LogService
}

// NewOpportunityHandler creates a new OpportunityHandler instance
func NewOpportunityHandler(opportunityService *services.OpportunityService, logService *services.LogService) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		logService:         logService,
	}
}

// ListOpportunities returns a page of opportunities, newest first
// GET /api/v1/opportunities?skip=0&limit=100&status=pending_review
func (h *OpportunityHandler) ListOpportunities(c *gin.Context) {
	skip, err := parseNonNegativeInt(c.DefaultQuery("skip", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "skip must be a non-negative integer",
			},
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "limit must be an integer between 1 and 200",
			},
		})
		return
	}

	status := c.Query("status")
	if status != "" && !models.OpportunityStatus(status).IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "status must be one of: " + strings.Join(models.AllowedStatuses(), ", "),
			},
		})
		return
	}

	result, err := h.opportunityService.List(services.OpportunityListOptions{
		Skip:   skip,
		Limit:  limit,
		Status: status,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to retrieve opportunities",
			},
		})
		return
	}

	items := result.Opportunities
	if items == nil {
		items = []models.Opportunity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total": result.Total,
			"items": items,
		},
	})
}

// GetOpportunity returns one opportunity with its matched products
// GET /api/v1/opportunities/:id
func (h *OpportunityHandler) GetOpportunity(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid opportunity ID",
			},
		})
		return
	}

	opportunity, err := h.opportunityService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrOpportunityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Opportunity not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to retrieve opportunity",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    opportunity,
	})
}

// UpdateOpportunityStatus moves an opportunity to a new review state. The
// new status arrives as a query parameter; an invalid value is rejected
// before the row is touched.
// PATCH /api/v1/opportunities/:id/status?new_status=approved
func (h *OpportunityHandler) UpdateOpportunityStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid opportunity ID",
			},
		})
		return
	}

	newStatus := c.Query("new_status")
	if err := h.opportunityService.UpdateStatus(uint(id), newStatus); err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "new_status must be one of: " + strings.Join(models.AllowedStatuses(), ", "),
				},
			})
			return
		}
		if errors.Is(err, services.ErrOpportunityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Opportunity not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to update opportunity",
			},
		})
		return
	}

	h.logService.LogInfo(services.MessageContext{}, models.LogModuleAPI, "status_update",
		"opportunity status updated", map[string]interface{}{"id": id, "new_status": newStatus})

	opportunity, err := h.opportunityService.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to retrieve updated opportunity",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    opportunity,
	})
}

// parseNonNegativeInt parses an integer rejecting negative values
func parseNonNegativeInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

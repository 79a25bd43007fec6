package handler

import (
	"errors"
	"net/http"
	"strconv"

	"bandhan/internal/domain"
	"bandhan/internal/middleware"
	"bandhan/internal/models"
	"bandhan/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminCreditHandler covers the telephony credit pool: manual adjustments,
// distribution listings, and gateway settings.
type AdminCreditHandler struct {
	creditSvc *service.CreditService
}

func NewAdminCreditHandler(creditSvc *service.CreditService) *AdminCreditHandler {
	return &AdminCreditHandler{creditSvc: creditSvc}
}

type adjustCreditsRequest struct {
	UserID  uint   `json:"user_id" binding:"required"`
	Action  string `json:"action" binding:"required"` // add | remove | set
	Credits int    `json:"credits" binding:"required,gt=0"`
	Reason  string `json:"reason"`
}

func (h *AdminCreditHandler) AdjustCredits(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	var req adjustCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.creditSvc.Adjust(req.UserID, req.Action, req.Credits, adminID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownAdjustAction):
			c.JSON(http.StatusBadRequest, gin.H{"error": "action must be add, remove or set"})
		case errors.Is(err, service.ErrNoActiveAllocation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "user has no active credit allocation"})
		case errors.Is(err, service.ErrInsufficientCredits):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient credits", "code": domain.CodeInsufficientCredits})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "adjustment failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (h *AdminCreditHandler) Distributions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	allocations, err := h.creditSvc.Distributions(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"allocations": allocations})
}

// Overview returns the credit pool state for the telephony dashboard.
func (h *AdminCreditHandler) Overview(c *gin.Context) {
	overview, err := h.creditSvc.Overview()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "overview failed"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AdminCreditHandler) GetSettings(c *gin.Context) {
	settings, err := h.creditSvc.Settings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settings lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

type telephonySettingsRequest struct {
	TotalCredits  int     `json:"total_credits" binding:"required"`
	CostPerMinute float64 `json:"cost_per_minute" binding:"required"`
	MonthlyLimit  int     `json:"monthly_limit" binding:"required"`
}

func (h *AdminCreditHandler) UpdateSettings(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	var req telephonySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings, err := h.creditSvc.UpdateSettings(req.TotalCredits, req.CostPerMinute, req.MonthlyLimit, adminID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// Ledger exposes the credit audit trail, for one user when user_id is given
// or across all users otherwise.
func (h *AdminCreditHandler) Ledger(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var entries []models.CreditLedgerEntry
	var err error
	if userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64); userID != 0 {
		entries, err = h.creditSvc.LedgerForUser(uint(userID), limit, offset)
	} else {
		entries, err = h.creditSvc.Ledger(limit, offset)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

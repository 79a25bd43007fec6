package handler

import (
	"errors"
	"net/http"

	"bandhan/internal/middleware"
	"bandhan/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentSvc *service.PaymentService
}

func NewPaymentHandler(paymentSvc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

type submitPaymentRequest struct {
	PlanID        uint   `json:"plan_id" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
	Screenshot    string `json:"screenshot"`
}

func (h *PaymentHandler) Submit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req submitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := h.paymentSvc.Submit(userID, req.PlanID, req.TransactionID, req.Screenshot)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		case errors.Is(err, service.ErrDuplicateTransaction):
			c.JSON(http.StatusConflict, gin.H{"error": "transaction id already submitted"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment submission failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

func (h *PaymentHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	payments, err := h.paymentSvc.ListForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// SubscriptionStatus tells the app what the user can currently do.
func (h *PaymentHandler) SubscriptionStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	status, err := h.paymentSvc.Status(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// ActivePlan returns the plan attached to the user's active subscription.
func (h *PaymentHandler) ActivePlan(c *gin.Context) {
	userID := middleware.GetUserID(c)
	status, err := h.paymentSvc.Status(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	if !status.HasSubscription {
		c.JSON(http.StatusOK, gin.H{"plan": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": status.Subscription.Plan, "expires_at": status.Subscription.ExpiresAt})
}

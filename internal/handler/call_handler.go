package handler

import (
	"errors"
	"net/http"
	"strconv"

	"bandhan/internal/domain"
	"bandhan/internal/middleware"
	"bandhan/internal/service"
	"bandhan/pkg/exotel"

	"github.com/gin-gonic/gin"
)

type CallHandler struct {
	callSvc   *service.CallService
	creditSvc *service.CreditService
}

func NewCallHandler(callSvc *service.CallService, creditSvc *service.CreditService) *CallHandler {
	return &CallHandler{callSvc: callSvc, creditSvc: creditSvc}
}

type initiateCallRequest struct {
	TargetUserID uint `json:"target_user_id" binding:"required"`
}

func (h *CallHandler) Initiate(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	// The app historically used a GET with a query parameter; both forms work.
	var targetID uint
	if c.Request.Method == http.MethodGet {
		id, err := strconv.ParseUint(c.Query("target_user_id"), 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_user_id required", "code": domain.CodeMissingPhone})
			return
		}
		targetID = uint(id)
	} else {
		var req initiateCallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		targetID = req.TargetUserID
	}
	if targetID == callerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot call yourself"})
		return
	}

	session, err := h.callSvc.Initiate(c.Request.Context(), callerID, targetID)
	if err != nil {
		status, code := callErrorResponse(err)
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session":          session,
		"provider_call_id": session.ProviderCallID,
		"status":           session.Status,
	})
}

// callErrorResponse maps initiation failures onto HTTP statuses and stable
// codes the app switches on.
func callErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrGatewayNotConfigured):
		return http.StatusInternalServerError, domain.CodeConfigError
	case errors.Is(err, service.ErrNoCredits):
		return http.StatusForbidden, domain.CodeNoCredits
	case errors.Is(err, service.ErrTargetNoCredits):
		return http.StatusForbidden, domain.CodeTargetNoCredits
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, domain.CodeUserNotFound
	case errors.Is(err, service.ErrMissingPhone):
		return http.StatusBadRequest, domain.CodeMissingPhone
	case errors.Is(err, service.ErrNotMatched):
		return http.StatusForbidden, domain.CodeNotMatched
	case errors.Is(err, service.ErrBlocked):
		return http.StatusForbidden, domain.CodeBlocked
	case errors.Is(err, exotel.ErrGateway):
		return http.StatusBadGateway, domain.CodeExotelError
	default:
		return http.StatusInternalServerError, domain.CodeInternalError
	}
}

func (h *CallHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)
	session, err := h.callSvc.GetSession(c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "call session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SyncStatus forces a gateway poll for a call the app thinks is out of date.
func (h *CallHandler) SyncStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	session, err := h.callSvc.SyncStatus(c.Request.Context(), c.Param("sid"), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "call session not found"})
		case errors.Is(err, exotel.ErrGateway):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": domain.CodeExotelError})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Sessions lists the user's call sessions, newest first.
func (h *CallHandler) Sessions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	sessions, err := h.callSvc.ListSessions(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *CallHandler) Logs(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	logs, err := h.callSvc.ListLogs(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Credits returns the user's call-credit allocations and total balance.
func (h *CallHandler) Credits(c *gin.Context) {
	userID := middleware.GetUserID(c)
	balance, err := h.creditSvc.Balance(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "balance lookup failed"})
		return
	}
	allocations, err := h.creditSvc.Allocations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "allocations": allocations})
}

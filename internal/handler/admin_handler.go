package handler

import (
	"errors"
	"net/http"
	"strconv"

	"bandhan/internal/domain"
	"bandhan/internal/middleware"
	"bandhan/internal/models"
	"bandhan/internal/repository"
	"bandhan/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	userRepo    *repository.UserRepository
	profileRepo *repository.ProfileRepository
	matchRepo   *repository.MatchRepository
	blockRepo   *repository.BlockRepository
	planRepo    *repository.PlanRepository
	paymentRepo *repository.PaymentRepository
	callRepo    *repository.CallRepository
	webhookRepo *repository.WebhookRepository
	authSvc     *service.AuthService
	paymentSvc  *service.PaymentService
}

func NewAdminHandler(
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	matchRepo *repository.MatchRepository,
	blockRepo *repository.BlockRepository,
	planRepo *repository.PlanRepository,
	paymentRepo *repository.PaymentRepository,
	callRepo *repository.CallRepository,
	webhookRepo *repository.WebhookRepository,
	authSvc *service.AuthService,
	paymentSvc *service.PaymentService,
) *AdminHandler {
	return &AdminHandler{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		matchRepo:   matchRepo,
		blockRepo:   blockRepo,
		planRepo:    planRepo,
		paymentRepo: paymentRepo,
		callRepo:    callRepo,
		webhookRepo: webhookRepo,
		authSvc:     authSvc,
		paymentSvc:  paymentSvc,
	}
}

// Stats powers the admin dashboard.
func (h *AdminHandler) Stats(c *gin.Context) {
	users, _ := h.userRepo.CountByRole(domain.RoleUser)
	pendingProfiles, _ := h.profileRepo.CountByStatus(domain.ProfileStatusPending)
	approvedProfiles, _ := h.profileRepo.CountByStatus(domain.ProfileStatusApproved)
	pendingPayments, _ := h.paymentRepo.CountByStatus(domain.PaymentStatusPending)
	activeCalls, _ := h.callRepo.CountSessionsByStatus(domain.CallStatusInProgress)
	completedCalls, _ := h.callRepo.CountSessionsByStatus(domain.CallStatusCompleted)
	c.JSON(http.StatusOK, gin.H{
		"total_users":       users,
		"pending_profiles":  pendingProfiles,
		"approved_profiles": approvedProfiles,
		"pending_payments":  pendingPayments,
		"active_calls":      activeCalls,
		"completed_calls":   completedCalls,
	})
}

func (h *AdminHandler) ListProfiles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	profiles, err := h.profileRepo.ListByStatus(c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

type approveProfileRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Status string `json:"status" binding:"required"` // approved | rejected
}

func (h *AdminHandler) ApproveProfile(c *gin.Context) {
	var req approveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != domain.ProfileStatusApproved && req.Status != domain.ProfileStatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be approved or rejected"})
		return
	}
	if err := h.profileRepo.UpdateStatus(req.UserID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type userStatusRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Status string `json:"status" binding:"required"` // active | inactive
}

func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	var req userStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != domain.UserStatusActive && req.Status != domain.UserStatusInactive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active or inactive"})
		return
	}
	if err := h.userRepo.UpdateStatus(req.UserID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type planRequest struct {
	Name           string  `json:"name" binding:"required"`
	Price          float64 `json:"price" binding:"required"`
	DurationMonths int     `json:"duration_months" binding:"required"`
	CallCredits    *int    `json:"call_credits"`
	Features       string  `json:"features"`
	Description    string  `json:"description"`
	Type           string  `json:"type" binding:"required"` // normal | call
	CanViewDetails bool    `json:"can_view_details"`
	CanMakeCalls   bool    `json:"can_make_calls"`
}

func (h *AdminHandler) ListPlans(c *gin.Context) {
	plans, err := h.planRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type != domain.PlanTypeNormal && req.Type != domain.PlanTypeCall {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be normal or call"})
		return
	}
	if req.Type == domain.PlanTypeCall && (req.CallCredits == nil || *req.CallCredits <= 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "call plans require call_credits"})
		return
	}
	p := &models.Plan{
		Name:           req.Name,
		Price:          req.Price,
		DurationMonths: req.DurationMonths,
		CallCredits:    req.CallCredits,
		Features:       req.Features,
		Description:    req.Description,
		Type:           req.Type,
		CanViewDetails: req.CanViewDetails,
		CanMakeCalls:   req.CanMakeCalls,
		IsActive:       true,
	}
	if err := h.planRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": p})
}

func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	p, err := h.planRepo.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.Name = req.Name
	p.Price = req.Price
	p.DurationMonths = req.DurationMonths
	p.CallCredits = req.CallCredits
	p.Features = req.Features
	p.Description = req.Description
	p.Type = req.Type
	p.CanViewDetails = req.CanViewDetails
	p.CanMakeCalls = req.CanMakeCalls
	if err := h.planRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": p})
}

func (h *AdminHandler) DeletePlan(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	affected, err := h.planRepo.Deactivate(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) ListPayments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	payments, err := h.paymentRepo.ListByStatus(c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

type reviewPaymentRequest struct {
	Status string `json:"status" binding:"required"` // verified | rejected
	Notes  string `json:"notes"`
}

// ReviewPayment settles a pending payment; verification activates the plan.
func (h *AdminHandler) ReviewPayment(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req reviewPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := h.paymentSvc.Review(uint(id), adminID, req.Status, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOutcome):
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be verified or rejected"})
		case errors.Is(err, service.ErrPaymentNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "payment already reviewed"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "review failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

type adminMatchRequest struct {
	UserID        uint `json:"user_id" binding:"required"`
	MatchedUserID uint `json:"matched_user_id" binding:"required"`
}

func (h *AdminHandler) CreateMatch(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	var req adminMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == req.MatchedUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot match a user with themselves"})
		return
	}
	for _, id := range []uint{req.UserID, req.MatchedUserID} {
		if _, err := h.userRepo.GetActiveByID(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found or inactive"})
			return
		}
	}
	if err := h.matchRepo.CreateBidirectional(req.UserID, req.MatchedUserID, adminID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

func (h *AdminHandler) DeleteMatch(c *gin.Context) {
	var req adminMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.matchRepo.DeleteBidirectional(req.UserID, req.MatchedUserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) ListMatchesForUser(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	matches, err := h.matchRepo.ListForUser(uint(userID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *AdminHandler) ListBlocks(c *gin.Context) {
	blocks, err := h.blockRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": blocks})
}

func (h *AdminHandler) DeleteBlock(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	affected, err := h.blockRepo.DeleteByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type callAllowedRequest struct {
	CallAllowed bool `json:"call_allowed"`
}

// SetBlockCallAllowed toggles whether a block still permits calls.
func (h *AdminHandler) SetBlockCallAllowed(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req callAllowedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	affected, err := h.blockRepo.SetCallAllowed(uint(id), req.CallAllowed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) ListCallSessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	sessions, err := h.callRepo.ListAllSessions(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// ListCallEvents returns every webhook event recorded for one provider call,
// in arrival order. Used to debug duplicate or missing callbacks.
func (h *AdminHandler) ListCallEvents(c *gin.Context) {
	sid := c.Query("sid")
	if sid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sid required"})
		return
	}
	events, err := h.webhookRepo.ListForCall(sid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *AdminHandler) ListUserCallLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64); userID != 0 {
		logs, err := h.callRepo.ListLogsForUser(uint(userID), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
		return
	}
	logs, err := h.callRepo.ListAllLogs(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

type adminCreateProfileRequest struct {
	Name     string         `json:"name" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	Phone    string         `json:"phone" binding:"required"`
	Password string         `json:"password" binding:"required,min=6"`
	Profile  profileRequest `json:"profile" binding:"required"`
}

// CreateProfile registers a user on their behalf with a pre-approved profile.
func (h *AdminHandler) CreateProfile(c *gin.Context) {
	var req adminCreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, recovery, err := h.authSvc.Register(req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists), errors.Is(err, service.ErrPhoneExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	p := &models.Profile{UserID: user.ID, Status: domain.ProfileStatusApproved}
	req.Profile.apply(p)
	if err := h.profileRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile creation failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "profile": p, "recovery_password": recovery})
}

type adminResetPasswordRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (h *AdminHandler) ResetPassword(c *gin.Context) {
	var req adminResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.userRepo.GetByID(req.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err := h.authSvc.AdminResetPassword(req.UserID, req.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bandhan/internal/domain"
	"bandhan/internal/middleware"
	"bandhan/internal/models"
	"bandhan/internal/repository"
	"bandhan/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProfileHandler struct {
	profileRepo *repository.ProfileRepository
	userRepo    *repository.UserRepository
	matchRepo   *repository.MatchRepository
	paymentSvc  *service.PaymentService
}

func NewProfileHandler(profileRepo *repository.ProfileRepository, userRepo *repository.UserRepository, matchRepo *repository.MatchRepository, paymentSvc *service.PaymentService) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo, userRepo: userRepo, matchRepo: matchRepo, paymentSvc: paymentSvc}
}

type profileRequest struct {
	Age                int    `json:"age" binding:"required"`
	Gender             string `json:"gender" binding:"required"`
	Height             string `json:"height"`
	Weight             string `json:"weight"`
	Caste              string `json:"caste" binding:"required"`
	Religion           string `json:"religion" binding:"required"`
	MotherTongue       string `json:"mother_tongue"`
	MaritalStatus      string `json:"marital_status" binding:"required"`
	Education          string `json:"education" binding:"required"`
	Occupation         string `json:"occupation" binding:"required"`
	Income             string `json:"income"`
	State              string `json:"state" binding:"required"`
	City               string `json:"city" binding:"required"`
	FamilyType         string `json:"family_type"`
	FamilyStatus       string `json:"family_status"`
	AboutMe            string `json:"about_me"`
	PartnerPreferences string `json:"partner_preferences"`
	ProfilePhoto       string `json:"profile_photo"`
}

func (r *profileRequest) apply(p *models.Profile) {
	p.Age = r.Age
	p.Gender = r.Gender
	p.Height = r.Height
	p.Weight = r.Weight
	p.Caste = r.Caste
	p.Religion = r.Religion
	p.MotherTongue = r.MotherTongue
	p.MaritalStatus = r.MaritalStatus
	p.Education = r.Education
	p.Occupation = r.Occupation
	p.Income = r.Income
	p.State = r.State
	p.City = r.City
	p.FamilyType = r.FamilyType
	p.FamilyStatus = r.FamilyStatus
	p.AboutMe = r.AboutMe
	p.PartnerPreferences = r.PartnerPreferences
	p.ProfilePhoto = r.ProfilePhoto
}

func (h *ProfileHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.profileRepo.GetByUserID(userID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "profile already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	p := &models.Profile{UserID: userID, Status: domain.ProfileStatusPending}
	req.apply(p)
	if err := h.profileRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": p})
}

// Edit updates the profile and sends it back to admin review.
func (h *ProfileHandler) Edit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.profileRepo.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	req.apply(p)
	p.Status = domain.ProfileStatusPending
	if err := h.profileRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	p, err := h.profileRepo.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// Browse lists approved profiles of the opposite gender, newest first.
func (h *ProfileHandler) Browse(c *gin.Context) {
	userID := middleware.GetUserID(c)
	own, err := h.profileRepo.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "complete your profile first"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	gender := "female"
	if own.Gender == "female" {
		gender = "male"
	}
	profiles, err := h.profileRepo.ListApprovedEligible(userID, gender)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": summarize(profiles)})
}

// Details shows another user's full profile. Contact details need an active
// subscription with detail access, or an existing match with the user.
func (h *ProfileHandler) Details(c *gin.Context) {
	userID := middleware.GetUserID(c)
	otherID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	p, err := h.profileRepo.GetByUserID(uint(otherID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if p.Status != domain.ProfileStatusApproved {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	canView := false
	if status, err := h.paymentSvc.Status(userID); err == nil && status.CanViewDetails {
		canView = true
	}
	if !canView {
		if matched, err := h.matchRepo.Exists(userID, uint(otherID)); err == nil && matched {
			canView = true
		}
	}

	out := gin.H{"profile": p, "contact_visible": canView}
	if canView {
		if u, err := h.userRepo.GetByID(uint(otherID)); err == nil {
			out["contact"] = gin.H{"name": u.Name, "phone": u.Phone, "email": u.Email}
		}
	}
	c.JSON(http.StatusOK, out)
}

// summarize strips contact-adjacent fields for list views.
func summarize(profiles []models.Profile) []gin.H {
	out := make([]gin.H, len(profiles))
	for i, p := range profiles {
		out[i] = gin.H{
			"user_id":       p.UserID,
			"name":          p.User.Name,
			"age":           p.Age,
			"gender":        p.Gender,
			"caste":         p.Caste,
			"religion":      p.Religion,
			"education":     p.Education,
			"occupation":    p.Occupation,
			"state":         p.State,
			"city":          p.City,
			"profile_photo": p.ProfilePhoto,
			"member_since":  p.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}

package handler

import (
	"errors"
	"net/http"

	"bandhan/internal/middleware"
	"bandhan/internal/models"
	"bandhan/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BlockHandler struct {
	blockRepo *repository.BlockRepository
	userRepo  *repository.UserRepository
}

func NewBlockHandler(blockRepo *repository.BlockRepository, userRepo *repository.UserRepository) *BlockHandler {
	return &BlockHandler{blockRepo: blockRepo, userRepo: userRepo}
}

type blockRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Reason string `json:"reason"`
}

func (h *BlockHandler) Create(c *gin.Context) {
	blockerID := middleware.GetUserID(c)
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == blockerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot block yourself"})
		return
	}
	if _, err := h.userRepo.GetByID(req.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if _, err := h.blockRepo.Get(blockerID, req.UserID); err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	b := &models.Block{BlockerID: blockerID, BlockedID: req.UserID, Reason: req.Reason}
	if err := h.blockRepo.Create(b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to block"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"block": b})
}

func (h *BlockHandler) Delete(c *gin.Context) {
	blockerID := middleware.GetUserID(c)
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.blockRepo.Delete(blockerID, req.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unblock"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *BlockHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	blocked, blockedBy, err := h.blockRepo.ListForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": blocked, "blocked_by": blockedBy})
}

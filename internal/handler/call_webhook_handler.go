package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"bandhan/internal/service"
	"bandhan/pkg/exotel"

	"github.com/gin-gonic/gin"
)

// CallWebhookHandler receives Exotel status callbacks. The endpoint always
// acks with 200 once the payload parsed, otherwise the provider retries
// events we have already recorded.
type CallWebhookHandler struct {
	callSvc *service.CallService
}

func NewCallWebhookHandler(callSvc *service.CallService) *CallWebhookHandler {
	return &CallWebhookHandler{callSvc: callSvc}
}

func (h *CallWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	payload, err := exotel.ParseWebhook(body, c.GetHeader("Content-Type"))
	if err != nil {
		if errors.Is(err, exotel.ErrUnsupportedContentType) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported content type"})
			return
		}
		log.Printf("[WEBHOOK] malformed payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}
	if payload.CallSid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}
	if err := h.callSvc.HandleWebhook(payload); err != nil {
		// Only storage failures bubble up; the provider will retry those.
		log.Printf("[WEBHOOK] processing failed for sid=%s: %v", payload.CallSid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

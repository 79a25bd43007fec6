package repository

import (
	"bandhan/internal/models"

	"gorm.io/gorm"
)

type WebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// RecordEvent stores the raw callback before any processing happens.
func (r *WebhookRepository) RecordEvent(e *models.WebhookEvent) error {
	return r.db.Create(e).Error
}

func (r *WebhookRepository) MarkProcessed(id uint) error {
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).
		Update("processed", true).Error
}

// CountForCallEvent reports how many events of this type have arrived for the
// call, for duplicate-delivery diagnostics.
func (r *WebhookRepository) CountForCallEvent(providerCallID, eventType string) (int64, error) {
	var n int64
	err := r.db.Model(&models.WebhookEvent{}).
		Where("provider_call_id = ? AND event_type = ?", providerCallID, eventType).
		Count(&n).Error
	return n, err
}

func (r *WebhookRepository) ListForCall(providerCallID string) ([]models.WebhookEvent, error) {
	var out []models.WebhookEvent
	err := r.db.Where("provider_call_id = ?", providerCallID).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

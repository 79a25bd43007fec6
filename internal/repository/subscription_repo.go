package repository

import (
	"time"

	"bandhan/internal/domain"
	"bandhan/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(s *models.Subscription) error {
	return r.db.Create(s).Error
}

// GetActiveForUser returns the user's active, unexpired subscription with the
// latest expiry, if any.
func (r *SubscriptionRepository) GetActiveForUser(userID uint, now time.Time) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.Preload("Plan").
		Where("user_id = ? AND status = ? AND expires_at > ?", userID, domain.SubscriptionStatusActive, now).
		Order("expires_at DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Extend pushes the expiry of an existing subscription and switches its plan.
func (r *SubscriptionRepository) Extend(id, planID uint, newExpiry time.Time) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).
		Updates(map[string]interface{}{"expires_at": newExpiry, "plan_id": planID}).Error
}

func (r *SubscriptionRepository) ListForUser(userID uint) ([]models.Subscription, error) {
	var out []models.Subscription
	err := r.db.Preload("Plan").Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

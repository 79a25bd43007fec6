package repository

import (
	"time"

	"bandhan/internal/domain"
	"bandhan/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Preload("Plan").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByTransactionID(txID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("transaction_id = ?", txID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkReviewed stamps the verification outcome; only pending payments move,
// so a double verification is a no-op (affected rows 0).
func (r *PaymentRepository) MarkReviewed(id uint, status, notes string, adminID uint) (int64, error) {
	now := time.Now()
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"admin_notes": notes,
			"verified_by": adminID,
			"verified_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *PaymentRepository) ListForUser(userID uint) ([]models.Payment, error) {
	var out []models.Payment
	err := r.db.Preload("Plan").Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ListByStatus(status string, limit, offset int) ([]models.Payment, error) {
	var out []models.Payment
	q := r.db.Preload("User").Preload("Plan").Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *PaymentRepository) CountByStatus(status string) (int64, error) {
	var n int64
	err := r.db.Model(&models.Payment{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

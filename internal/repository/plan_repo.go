package repository

import (
	"bandhan/internal/models"

	"gorm.io/gorm"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(p *models.Plan) error {
	return r.db.Create(p).Error
}

func (r *PlanRepository) GetByID(id uint) (*models.Plan, error) {
	var p models.Plan
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlanRepository) GetActiveByID(id uint) (*models.Plan, error) {
	var p models.Plan
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlanRepository) Update(p *models.Plan) error {
	return r.db.Save(p).Error
}

// Deactivate soft-disables a plan; existing subscriptions keep their terms.
func (r *PlanRepository) Deactivate(id uint) (int64, error) {
	res := r.db.Model(&models.Plan{}).Where("id = ?", id).Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *PlanRepository) ListActive() ([]models.Plan, error) {
	var out []models.Plan
	err := r.db.Where("is_active = ?", true).Order("type, price ASC").Find(&out).Error
	return out, err
}

func (r *PlanRepository) ListAll() ([]models.Plan, error) {
	var out []models.Plan
	err := r.db.Order("type, price ASC").Find(&out).Error
	return out, err
}

package repository

import (
	"bandhan/internal/domain"
	"bandhan/internal/models"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(p *models.Profile) error {
	return r.db.Create(p).Error
}

func (r *ProfileRepository) GetByUserID(userID uint) (*models.Profile, error) {
	var p models.Profile
	err := r.db.Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) Update(p *models.Profile) error {
	return r.db.Save(p).Error
}

func (r *ProfileRepository) UpdateStatus(userID uint, status string) error {
	return r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Update("status", status).Error
}

// ListByStatus returns profiles with their users, newest first.
func (r *ProfileRepository) ListByStatus(status string, limit, offset int) ([]models.Profile, error) {
	var out []models.Profile
	q := r.db.Preload("User").Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListApprovedEligible returns approved profiles of active users of the given
// gender, excluding one user. Ordered by recency only; no rule-based ranking.
func (r *ProfileRepository) ListApprovedEligible(excludeUserID uint, gender string) ([]models.Profile, error) {
	var out []models.Profile
	err := r.db.Preload("User").
		Joins("JOIN users ON users.id = user_profiles.user_id").
		Where("user_profiles.user_id != ? AND user_profiles.status = ? AND users.status = ? AND users.role = ?",
			excludeUserID, domain.ProfileStatusApproved, domain.UserStatusActive, domain.RoleUser).
		Where("user_profiles.gender = ?", gender).
		Order("user_profiles.created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *ProfileRepository) CountByStatus(status string) (int64, error) {
	var n int64
	err := r.db.Model(&models.Profile{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

package repository

import (
	"errors"

	"bandhan/internal/models"

	"gorm.io/gorm"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetTelephony returns the singleton settings row, creating it with defaults
// on first access.
func (r *SettingRepository) GetTelephony() (*models.TelephonySettings, error) {
	var s models.TelephonySettings
	err := r.db.Order("id ASC").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = models.TelephonySettings{
			TotalCredits:  10000,
			CostPerMinute: 1,
			MonthlyLimit:  5000,
		}
		if err := r.db.Create(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingRepository) UpdateTelephony(s *models.TelephonySettings) error {
	return r.db.Save(s).Error
}

package repository

import (
	"bandhan/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Exists reports whether a match row exists in either direction.
func (r *MatchRepository) Exists(userID, otherID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.Match{}).
		Where("(user_id = ? AND matched_user_id = ?) OR (user_id = ? AND matched_user_id = ?)",
			userID, otherID, otherID, userID).
		Count(&n).Error
	return n > 0, err
}

// CreateBidirectional inserts both directions, ignoring duplicates.
func (r *MatchRepository) CreateBidirectional(userID, otherID, adminID uint) error {
	rows := []models.Match{
		{UserID: userID, MatchedUserID: otherID, CreatedByAdmin: &adminID},
		{UserID: otherID, MatchedUserID: userID, CreatedByAdmin: &adminID},
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// DeleteBidirectional removes both directions of a pairing.
func (r *MatchRepository) DeleteBidirectional(userID, otherID uint) error {
	return r.db.
		Where("(user_id = ? AND matched_user_id = ?) OR (user_id = ? AND matched_user_id = ?)",
			userID, otherID, otherID, userID).
		Delete(&models.Match{}).Error
}

// ListForUser returns the user's matches with the matched users preloaded.
func (r *MatchRepository) ListForUser(userID uint) ([]models.Match, error) {
	var out []models.Match
	err := r.db.Preload("MatchedUser").Preload("MatchedUser.Profile").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

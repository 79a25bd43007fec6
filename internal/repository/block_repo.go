package repository

import (
	"bandhan/internal/models"

	"gorm.io/gorm"
)

type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

func (r *BlockRepository) Create(b *models.Block) error {
	return r.db.Create(b).Error
}

func (r *BlockRepository) Get(blockerID, blockedID uint) (*models.Block, error) {
	var b models.Block
	err := r.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBetween returns any block row between the two users in either direction.
func (r *BlockRepository) GetBetween(userID, otherID uint) (*models.Block, error) {
	var b models.Block
	err := r.db.
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userID, otherID, otherID, userID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BlockRepository) Delete(blockerID, blockedID uint) error {
	return r.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&models.Block{}).Error
}

func (r *BlockRepository) DeleteByID(id uint) (int64, error) {
	res := r.db.Delete(&models.Block{}, id)
	return res.RowsAffected, res.Error
}

func (r *BlockRepository) SetCallAllowed(id uint, allowed bool) (int64, error) {
	res := r.db.Model(&models.Block{}).Where("id = ?", id).Update("call_allowed", allowed)
	return res.RowsAffected, res.Error
}

// ListForUser returns blocks the user created and blocks against the user.
func (r *BlockRepository) ListForUser(userID uint) (blocked, blockedBy []models.Block, err error) {
	if err = r.db.Preload("Blocked").Preload("Blocked.Profile").
		Where("blocker_id = ?", userID).Find(&blocked).Error; err != nil {
		return nil, nil, err
	}
	if err = r.db.Preload("Blocker").Preload("Blocker.Profile").
		Where("blocked_id = ?", userID).Find(&blockedBy).Error; err != nil {
		return nil, nil, err
	}
	return blocked, blockedBy, nil
}

func (r *BlockRepository) ListAll() ([]models.Block, error) {
	var out []models.Block
	err := r.db.Preload("Blocker").Preload("Blocked").Order("created_at DESC").Find(&out).Error
	return out, err
}

package repository

import (
	"time"

	"bandhan/internal/domain"
	"bandhan/internal/models"

	"gorm.io/gorm"
)

type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) Create(c *models.CallCredit) error {
	return r.db.Create(c).Error
}

func (r *CreditRepository) GetByID(id uint) (*models.CallCredit, error) {
	var c models.CallCredit
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ActiveAllocations returns the user's debitable allocations ordered by
// expiry, soonest first. Debits always consume from the head.
func (r *CreditRepository) ActiveAllocations(userID uint, now time.Time) ([]models.CallCredit, error) {
	var out []models.CallCredit
	err := r.db.
		Where("user_id = ? AND credits_remaining > 0 AND expires_at > ?", userID, now).
		Order("expires_at ASC").
		Find(&out).Error
	return out, err
}

// EarliestActive returns the allocation the next debit would hit, or
// gorm.ErrRecordNotFound when the user has no active credits.
func (r *CreditRepository) EarliestActive(userID uint, now time.Time) (*models.CallCredit, error) {
	var c models.CallCredit
	err := r.db.
		Where("user_id = ? AND credits_remaining > 0 AND expires_at > ?", userID, now).
		Order("expires_at ASC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LatestActive returns the allocation expiring last. Manual admin adjustments
// apply here, not to the allocation debits consume from.
func (r *CreditRepository) LatestActive(userID uint, now time.Time) (*models.CallCredit, error) {
	var c models.CallCredit
	err := r.db.
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("expires_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CreditRepository) HasActiveCredits(userID uint, now time.Time) (bool, error) {
	var n int64
	err := r.db.Model(&models.CallCredit{}).
		Where("user_id = ? AND credits_remaining > 0 AND expires_at > ?", userID, now).
		Count(&n).Error
	return n > 0, err
}

func (r *CreditRepository) TotalRemaining(userID uint, now time.Time) (int, error) {
	var total int64
	err := r.db.Model(&models.CallCredit{}).
		Where("user_id = ? AND credits_remaining > 0 AND expires_at > ?", userID, now).
		Select("COALESCE(SUM(credits_remaining), 0)").
		Scan(&total).Error
	return int(total), err
}

// DebitAllocation subtracts newRemaining from one allocation with a
// compare-and-swap on the balance read earlier. Returns affected rows; zero
// means a concurrent writer got there first and the caller should retry.
func (r *CreditRepository) DebitAllocation(id uint, expectRemaining, newRemaining int, now time.Time) (int64, error) {
	res := r.db.Model(&models.CallCredit{}).
		Where("id = ? AND credits_remaining = ?", id, expectRemaining).
		Updates(map[string]interface{}{
			"credits_remaining": newRemaining,
			"last_used_at":      now,
		})
	return res.RowsAffected, res.Error
}

// SetRemaining overwrites an allocation balance (manual admin adjustment).
func (r *CreditRepository) SetRemaining(id uint, remaining int) error {
	return r.db.Model(&models.CallCredit{}).Where("id = ?", id).
		Update("credits_remaining", remaining).Error
}

// TopUp adds credits to an allocation's remaining and purchased counts
// without touching its expiry.
func (r *CreditRepository) TopUp(id uint, credits int) error {
	return r.db.Model(&models.CallCredit{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"credits_purchased": gorm.Expr("credits_purchased + ?", credits),
			"credits_remaining": gorm.Expr("credits_remaining + ?", credits),
		}).Error
}

// AddToAllocation tops up an existing allocation and pushes out its expiry.
func (r *CreditRepository) AddToAllocation(id uint, credits int, newExpiry time.Time) error {
	return r.db.Model(&models.CallCredit{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"credits_purchased": gorm.Expr("credits_purchased + ?", credits),
			"credits_remaining": gorm.Expr("credits_remaining + ?", credits),
			"expires_at":        newExpiry,
		}).Error
}

// ListDistributions returns all allocations across users, newest first, for
// the admin credit-distribution view.
func (r *CreditRepository) ListDistributions(limit, offset int) ([]models.CallCredit, error) {
	var out []models.CallCredit
	err := r.db.Preload("User").Preload("User.Profile").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// SumAllocated returns total credits ever handed out to users.
func (r *CreditRepository) SumAllocated() (int, error) {
	var total int64
	err := r.db.Model(&models.CallCredit{}).
		Select("COALESCE(SUM(credits_purchased), 0)").Scan(&total).Error
	return int(total), err
}

// SumUsedSince sums debited credits recorded in the ledger from a cutoff,
// used for the monthly-limit check.
func (r *CreditRepository) SumUsedSince(since time.Time) (int, error) {
	var total int64
	err := r.db.Model(&models.CreditLedgerEntry{}).
		Where("action = ? AND created_at >= ?", domain.LedgerActionUsed, since).
		Select("COALESCE(SUM(credits), 0)").Scan(&total).Error
	return int(total), err
}

// AppendLedger writes one append-only audit entry.
func (r *CreditRepository) AppendLedger(e *models.CreditLedgerEntry) error {
	return r.db.Create(e).Error
}

func (r *CreditRepository) ListLedgerForUser(userID uint, limit, offset int) ([]models.CreditLedgerEntry, error) {
	var out []models.CreditLedgerEntry
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *CreditRepository) ListLedger(limit, offset int) ([]models.CreditLedgerEntry, error) {
	var out []models.CreditLedgerEntry
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bandhan/internal/domain"
	"bandhan/internal/models"
	"bandhan/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNoActiveAllocation  = errors.New("user has no active credit allocation")
	ErrUnknownAdjustAction = errors.New("unknown adjust action")
)

// Allocations created by an admin add with no prior allocation last this long.
const adminGrantValidity = 90 * 24 * time.Hour

const debitRetries = 3

// CreditService owns call-credit allocations and the append-only ledger.
// Debits consume from the allocation expiring first and clamp at zero; a
// debit against a user with no active allocation is a silent no-op.
type CreditService struct {
	creditRepo  *repository.CreditRepository
	settingRepo *repository.SettingRepository
}

func NewCreditService(creditRepo *repository.CreditRepository, settingRepo *repository.SettingRepository) *CreditService {
	return &CreditService{creditRepo: creditRepo, settingRepo: settingRepo}
}

func (s *CreditService) HasCredits(userID uint) (bool, error) {
	return s.creditRepo.HasActiveCredits(userID, time.Now())
}

func (s *CreditService) Balance(userID uint) (int, error) {
	return s.creditRepo.TotalRemaining(userID, time.Now())
}

func (s *CreditService) Allocations(userID uint) ([]models.CallCredit, error) {
	return s.creditRepo.ActiveAllocations(userID, time.Now())
}

// Debit deducts up to amount credits from the user's earliest-expiring active
// allocation and returns the amount actually taken, which is clamped at the
// allocation balance. Users with no active allocation are not an error; the
// call already happened and the debit records zero.
//
// The deduction is a compare-and-swap on the balance read first, retried a
// few times under contention.
func (s *CreditService) Debit(userID uint, amount int, callSessionID *uint, reason string) (int, error) {
	if amount <= 0 {
		return 0, s.ledgerUsed(userID, 0, callSessionID, reason)
	}
	now := time.Now()
	for attempt := 0; attempt < debitRetries; attempt++ {
		alloc, err := s.creditRepo.EarliestActive(userID, now)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[CREDIT] user %d has no active allocation, debit of %d skipped", userID, amount)
			return 0, s.ledgerUsed(userID, 0, callSessionID, reason)
		}
		if err != nil {
			return 0, err
		}
		taken := amount
		if taken > alloc.CreditsRemaining {
			taken = alloc.CreditsRemaining
		}
		affected, err := s.creditRepo.DebitAllocation(alloc.ID, alloc.CreditsRemaining, alloc.CreditsRemaining-taken, now)
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			continue // balance moved under us, re-read
		}
		if err := s.ledgerUsed(userID, taken, callSessionID, reason); err != nil {
			return taken, err
		}
		return taken, nil
	}
	return 0, fmt.Errorf("debit for user %d: retries exhausted", userID)
}

func (s *CreditService) ledgerUsed(userID uint, credits int, callSessionID *uint, reason string) error {
	return s.creditRepo.AppendLedger(&models.CreditLedgerEntry{
		Action:        domain.LedgerActionUsed,
		Credits:       credits,
		UserID:        &userID,
		CallSessionID: callSessionID,
		Reason:        reason,
	})
}

// Allocate grants credits to a user. If an active allocation exists it is
// topped up and its expiry extended, otherwise a fresh allocation is created.
func (s *CreditService) Allocate(userID uint, credits int, planID *uint, validity time.Duration, adminID *uint, notes string) (*models.CallCredit, error) {
	now := time.Now()
	newExpiry := now.Add(validity)

	alloc, err := s.creditRepo.EarliestActive(userID, now)
	if err == nil {
		if alloc.ExpiresAt.After(newExpiry) {
			newExpiry = alloc.ExpiresAt
		}
		if err := s.creditRepo.AddToAllocation(alloc.ID, credits, newExpiry); err != nil {
			return nil, err
		}
		alloc, err = s.creditRepo.GetByID(alloc.ID)
		if err != nil {
			return nil, err
		}
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		alloc = &models.CallCredit{
			UserID:           userID,
			PlanID:           planID,
			CreditsPurchased: credits,
			CreditsRemaining: credits,
			ExpiresAt:        newExpiry,
			AdminAllocated:   adminID != nil,
			AllocationNotes:  notes,
		}
		if err := s.creditRepo.Create(alloc); err != nil {
			return nil, err
		}
	} else {
		return nil, err
	}

	if err := s.creditRepo.AppendLedger(&models.CreditLedgerEntry{
		Action:  domain.LedgerActionAllocated,
		Credits: credits,
		UserID:  &userID,
		AdminID: adminID,
		Reason:  notes,
	}); err != nil {
		return nil, err
	}
	log.Printf("[CREDIT] allocated %d credits to user %d (expires %s)", credits, userID, alloc.ExpiresAt.Format(time.RFC3339))
	return alloc, nil
}

// AdjustResult reports a manual adjustment for the admin UI and ledger.
type AdjustResult struct {
	OldBalance int `json:"old_balance"`
	NewBalance int `json:"new_balance"`
}

// Adjust applies a manual admin adjustment to the user's latest-expiring
// active allocation. Debits drain the earliest allocation, so adjustments
// land on the one that survives longest. remove fails when the allocation
// holds fewer credits than requested; set overwrites the balance outright.
// Without an active allocation only add works and creates a fresh one.
func (s *CreditService) Adjust(userID uint, action string, credits int, adminID uint, reason string) (*AdjustResult, error) {
	switch action {
	case domain.AdjustActionAdd, domain.AdjustActionRemove, domain.AdjustActionSet:
	default:
		return nil, ErrUnknownAdjustAction
	}

	now := time.Now()
	alloc, err := s.creditRepo.LatestActive(userID, now)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if action != domain.AdjustActionAdd {
			return nil, ErrNoActiveAllocation
		}
		return s.adjustCreateFresh(userID, credits, adminID, reason, now)
	}
	if err != nil {
		return nil, err
	}

	oldBalance := alloc.CreditsRemaining
	var newBalance int
	var ledgerAction string
	switch action {
	case domain.AdjustActionAdd:
		newBalance = oldBalance + credits
		ledgerAction = domain.LedgerActionManualAdd
		if err := s.creditRepo.TopUp(alloc.ID, credits); err != nil {
			return nil, err
		}
	case domain.AdjustActionRemove:
		if credits > oldBalance {
			return nil, ErrInsufficientCredits
		}
		newBalance = oldBalance - credits
		ledgerAction = domain.LedgerActionManualRemove
		if err := s.creditRepo.SetRemaining(alloc.ID, newBalance); err != nil {
			return nil, err
		}
	case domain.AdjustActionSet:
		newBalance = credits
		ledgerAction = domain.LedgerActionManualSet
		if err := s.creditRepo.SetRemaining(alloc.ID, newBalance); err != nil {
			return nil, err
		}
	}

	if err := s.creditRepo.AppendLedger(&models.CreditLedgerEntry{
		Action:     ledgerAction,
		Credits:    credits,
		UserID:     &userID,
		AdminID:    &adminID,
		OldBalance: &oldBalance,
		NewBalance: &newBalance,
		Reason:     reason,
	}); err != nil {
		return nil, err
	}
	log.Printf("[CREDIT] admin %d %s %d credits for user %d (%d -> %d)", adminID, action, credits, userID, oldBalance, newBalance)
	return &AdjustResult{OldBalance: oldBalance, NewBalance: newBalance}, nil
}

func (s *CreditService) adjustCreateFresh(userID uint, credits int, adminID uint, reason string, now time.Time) (*AdjustResult, error) {
	alloc := &models.CallCredit{
		UserID:           userID,
		CreditsPurchased: credits,
		CreditsRemaining: credits,
		ExpiresAt:        now.Add(adminGrantValidity),
		AdminAllocated:   true,
		AllocationNotes:  reason,
	}
	if err := s.creditRepo.Create(alloc); err != nil {
		return nil, err
	}
	oldBalance, newBalance := 0, credits
	if err := s.creditRepo.AppendLedger(&models.CreditLedgerEntry{
		Action:     domain.LedgerActionManualAdd,
		Credits:    credits,
		UserID:     &userID,
		AdminID:    &adminID,
		OldBalance: &oldBalance,
		NewBalance: &newBalance,
		Reason:     reason,
	}); err != nil {
		return nil, err
	}
	log.Printf("[CREDIT] admin %d granted %d credits to user %d (fresh allocation)", adminID, credits, userID)
	return &AdjustResult{OldBalance: oldBalance, NewBalance: newBalance}, nil
}

// TelephonyOverview is the admin credit dashboard: pool size against what has
// been allocated and used.
type TelephonyOverview struct {
	TotalCredits     int     `json:"total_credits"`
	AllocatedCredits int     `json:"allocated_credits"`
	UsedThisMonth    int     `json:"used_this_month"`
	MonthlyLimit     int     `json:"monthly_limit"`
	CostPerMinute    float64 `json:"cost_per_minute"`
}

func (s *CreditService) Overview() (*TelephonyOverview, error) {
	settings, err := s.settingRepo.GetTelephony()
	if err != nil {
		return nil, err
	}
	allocated, err := s.creditRepo.SumAllocated()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	used, err := s.creditRepo.SumUsedSince(monthStart)
	if err != nil {
		return nil, err
	}
	return &TelephonyOverview{
		TotalCredits:     settings.TotalCredits,
		AllocatedCredits: allocated,
		UsedThisMonth:    used,
		MonthlyLimit:     settings.MonthlyLimit,
		CostPerMinute:    settings.CostPerMinute,
	}, nil
}

func (s *CreditService) Settings() (*models.TelephonySettings, error) {
	return s.settingRepo.GetTelephony()
}

// UpdateSettings persists new gateway settings and records the change in the
// ledger for audit.
func (s *CreditService) UpdateSettings(totalCredits int, costPerMinute float64, monthlyLimit int, adminID uint) (*models.TelephonySettings, error) {
	settings, err := s.settingRepo.GetTelephony()
	if err != nil {
		return nil, err
	}
	settings.TotalCredits = totalCredits
	settings.CostPerMinute = costPerMinute
	settings.MonthlyLimit = monthlyLimit
	if err := s.settingRepo.UpdateTelephony(settings); err != nil {
		return nil, err
	}
	if err := s.creditRepo.AppendLedger(&models.CreditLedgerEntry{
		Action:  domain.LedgerActionSettingsUpdate,
		Credits: totalCredits,
		AdminID: &adminID,
		Reason:  fmt.Sprintf("total=%d rate=%.2f monthly_limit=%d", totalCredits, costPerMinute, monthlyLimit),
	}); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *CreditService) Distributions(limit, offset int) ([]models.CallCredit, error) {
	return s.creditRepo.ListDistributions(limit, offset)
}

func (s *CreditService) LedgerForUser(userID uint, limit, offset int) ([]models.CreditLedgerEntry, error) {
	return s.creditRepo.ListLedgerForUser(userID, limit, offset)
}

// Ledger returns the full audit trail across users, newest first.
func (s *CreditService) Ledger(limit, offset int) ([]models.CreditLedgerEntry, error) {
	return s.creditRepo.ListLedger(limit, offset)
}

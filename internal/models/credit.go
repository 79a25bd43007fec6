package models

import "time"

// CallCredit is one prepaid call-minute allocation. A user may hold several
// active allocations; debits always consume from the one expiring first and
// credits_remaining is clamped at zero.
type CallCredit struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	PlanID           *uint      `json:"plan_id,omitempty"` // nil for admin-allocated credits
	CreditsPurchased int        `gorm:"not null" json:"credits_purchased"`
	CreditsRemaining int        `gorm:"not null" json:"credits_remaining"`
	ExpiresAt        time.Time  `gorm:"not null;index" json:"expires_at"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
	AdminAllocated   bool       `gorm:"not null;default:false" json:"admin_allocated"`
	AllocationNotes  string     `gorm:"size:512" json:"allocation_notes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (CallCredit) TableName() string {
	return "user_call_credits"
}

// Active reports whether the allocation can still be debited.
func (c *CallCredit) Active(now time.Time) bool {
	return c.CreditsRemaining > 0 && c.ExpiresAt.After(now)
}

// CreditLedgerEntry is the append-only audit log of every credit mutation.
// Entries are never updated or deleted.
type CreditLedgerEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Action        string    `gorm:"size:32;not null;index" json:"action"`
	Credits       int       `gorm:"not null" json:"credits"`
	UserID        *uint     `gorm:"index" json:"user_id,omitempty"` // nil for settings_update
	CallSessionID *uint     `gorm:"index" json:"call_session_id,omitempty"`
	AdminID       *uint     `json:"admin_id,omitempty"`
	OldBalance    *int      `json:"old_balance,omitempty"` // set for manual adjustments
	NewBalance    *int      `json:"new_balance,omitempty"`
	Reason        string    `gorm:"size:512" json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

func (CreditLedgerEntry) TableName() string {
	return "credit_ledger_entries"
}

package models

import "time"

// Payment is a manually verified purchase: the user submits a bank/UPI
// transaction id plus a screenshot URL, an admin verifies or rejects it.
// Verification activates the plan (subscription or call credits).
type Payment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	PlanID        uint       `gorm:"not null;index" json:"plan_id"`
	TransactionID string     `gorm:"size:255;uniqueIndex;not null" json:"transaction_id"`
	Amount        float64    `gorm:"not null" json:"amount"`
	Screenshot    string     `gorm:"size:512" json:"screenshot"`
	Status        string     `gorm:"size:20;not null;index;default:'pending'" json:"status"` // pending | verified | rejected
	AdminNotes    string     `gorm:"type:text" json:"admin_notes"`
	VerifiedBy    *uint      `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Plan Plan `gorm:"foreignKey:PlanID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

package models

import "time"

// Subscription grants access from a verified "normal" plan payment.
type Subscription struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	PlanID        uint      `gorm:"not null" json:"plan_id"`
	StartDate     time.Time `gorm:"not null" json:"start_date"`
	ExpiresAt     time.Time `gorm:"not null;index" json:"expires_at"`
	PaymentMethod string    `gorm:"size:50" json:"payment_method"`
	TransactionID string    `gorm:"size:255" json:"transaction_id"`
	Status        string    `gorm:"size:20;not null;index;default:'active'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Plan Plan `gorm:"foreignKey:PlanID" json:"-"`
}

func (Subscription) TableName() string {
	return "user_subscriptions"
}

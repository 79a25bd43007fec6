package models

import "time"

// Plan is a purchasable product: "normal" plans grant a subscription (profile
// detail access), "call" plans grant prepaid call credits (minutes).
type Plan struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Price          float64   `gorm:"not null" json:"price"`
	DurationMonths int       `gorm:"not null;default:1" json:"duration_months"`
	CallCredits    *int      `json:"call_credits,omitempty"` // required for call plans, nil otherwise
	Features       string    `gorm:"type:text" json:"features"` // comma-separated
	Description    string    `gorm:"type:text" json:"description"`
	Type           string    `gorm:"size:20;not null;index;default:'normal'" json:"type"` // normal | call
	CanViewDetails bool      `gorm:"not null;default:false" json:"can_view_details"`
	CanMakeCalls   bool      `gorm:"not null;default:false" json:"can_make_calls"`
	IsActive       bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

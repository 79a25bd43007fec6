package models

import "time"

// TelephonySettings is the platform-wide gateway credit configuration managed
// by admins: the total credit pool bought from the provider, the per-minute
// rate charged to users, and a monthly usage cap. A single row is kept.
type TelephonySettings struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TotalCredits  int       `gorm:"not null;default:10000" json:"total_credits"`
	CostPerMinute float64   `gorm:"not null;default:1" json:"cost_per_minute"`
	MonthlyLimit  int       `gorm:"not null;default:5000" json:"monthly_limit"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (TelephonySettings) TableName() string {
	return "telephony_settings"
}

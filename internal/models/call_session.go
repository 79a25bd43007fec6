package models

import (
	"time"

	"bandhan/internal/domain"
)

// CallSession is the single source of truth for one call attempt. It is
// created at call placement and afterwards mutated only by the webhook
// reconciler or the stuck-call sweeper; sessions are never deleted.
//
// ProviderCallID is the Exotel correlation key, unique and immutable once
// assigned. Status only moves forward; terminal statuses are absorbing.
type CallSession struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	CallerID       uint   `gorm:"not null;index" json:"caller_id"`
	ReceiverID     uint   `gorm:"not null;index" json:"receiver_id"`
	ProviderCallID string `gorm:"size:64;uniqueIndex;not null" json:"provider_call_id"`
	Status         string `gorm:"size:20;not null;index;default:'initiated'" json:"status"`

	DurationSeconds int     `gorm:"not null;default:0" json:"duration_seconds"`
	Cost            float64 `gorm:"not null;default:0" json:"cost"`
	CostPerMinute   float64 `gorm:"not null;default:1" json:"cost_per_minute"` // snapshot at placement
	RecordingURL    string  `gorm:"size:512" json:"recording_url"`

	CallerNumber   string `gorm:"size:20" json:"-"`
	ReceiverNumber string `gorm:"size:20" json:"-"`
	VirtualNumber  string `gorm:"size:20" json:"-"`

	// Per-leg detail from the gateway (leg 0 = caller, leg 1 = receiver).
	CallerLegStatus     string `gorm:"size:20" json:"caller_leg_status"`
	CallerLegDuration   int    `gorm:"not null;default:0" json:"caller_leg_duration"`
	ReceiverLegStatus   string `gorm:"size:20" json:"receiver_leg_status"`
	ReceiverLegDuration int    `gorm:"not null;default:0" json:"receiver_leg_duration"`

	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Caller   User `gorm:"foreignKey:CallerID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (CallSession) TableName() string {
	return "call_sessions"
}

func (s *CallSession) Terminal() bool {
	return domain.IsTerminalCallStatus(s.Status)
}

// CostFor computes the billed cost for a call duration at the session's
// per-minute rate: partial minutes round up.
func (s *CallSession) CostFor(durationSeconds int) float64 {
	return float64(BilledMinutes(durationSeconds)) * s.CostPerMinute
}

// BilledMinutes is ceil(seconds/60); zero-duration calls bill nothing.
func BilledMinutes(durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return (durationSeconds + 59) / 60
}

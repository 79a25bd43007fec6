package models

import "time"

// CallLog is one participant's view of a completed call. Exactly one
// outgoing/incoming pair is written per completed session with duration > 0.
type CallLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	OtherUserID   uint      `gorm:"not null" json:"other_user_id"`
	CallSessionID uint      `gorm:"not null;index" json:"call_session_id"`
	CallType      string    `gorm:"size:10;not null" json:"call_type"` // outgoing | incoming
	Duration      int       `gorm:"not null;default:0" json:"duration"`
	Cost          float64   `gorm:"not null;default:0" json:"cost"`
	CreatedAt     time.Time `json:"created_at"`

	User      User        `gorm:"foreignKey:UserID" json:"-"`
	OtherUser User        `gorm:"foreignKey:OtherUserID" json:"-"`
	Session   CallSession `gorm:"foreignKey:CallSessionID" json:"-"`
}

func (CallLog) TableName() string {
	return "call_logs"
}

package models

import "time"

// Block prevents contact between two users. CallAllowed lets an admin keep a
// block in place for messaging purposes while still permitting calls.
type Block struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BlockerID   uint      `gorm:"not null;uniqueIndex:idx_block_pair" json:"blocker_id"`
	BlockedID   uint      `gorm:"not null;uniqueIndex:idx_block_pair" json:"blocked_id"`
	CallAllowed bool      `gorm:"not null;default:false" json:"call_allowed"`
	Reason      string    `gorm:"size:512" json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Blocker User `gorm:"foreignKey:BlockerID" json:"-"`
	Blocked User `gorm:"foreignKey:BlockedID" json:"-"`
}

func (Block) TableName() string {
	return "user_blocks"
}

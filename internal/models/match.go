package models

import "time"

// Match is one direction of an admin-curated pairing. Matches are always
// created in both directions; a call is allowed only when a row exists in
// either direction between the two users.
type Match struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_match_pair" json:"user_id"`
	MatchedUserID  uint      `gorm:"not null;uniqueIndex:idx_match_pair" json:"matched_user_id"`
	CreatedByAdmin *uint     `json:"created_by_admin,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	User        User `gorm:"foreignKey:UserID" json:"-"`
	MatchedUser User `gorm:"foreignKey:MatchedUserID" json:"-"`
}

func (Match) TableName() string {
	return "matches"
}

package models

import (
	"time"

	"bandhan/internal/domain"
)

type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Email            string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone            string    `gorm:"uniqueIndex;size:20;not null" json:"phone"`
	PasswordHash     string    `gorm:"size:255;not null" json:"-"`
	RecoveryPassword string    `gorm:"size:32" json:"-"` // one-time fallback issued at registration
	Role             string    `gorm:"size:20;not null;index;default:'user'" json:"role"`
	Status           string    `gorm:"size:20;not null;index;default:'active'" json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool  { return u.Role == domain.RoleAdmin }
func (u *User) IsActive() bool { return u.Status == domain.UserStatusActive }

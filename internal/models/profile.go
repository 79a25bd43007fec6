package models

import "time"

// Profile is the matrimony profile attached to a user. Profiles require admin
// approval before they appear to other users.
type Profile struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Age                int       `gorm:"not null" json:"age"`
	Gender             string    `gorm:"size:10;not null;index" json:"gender"`
	Height             string    `gorm:"size:20" json:"height"`
	Weight             string    `gorm:"size:20" json:"weight"`
	Caste              string    `gorm:"size:100;not null" json:"caste"`
	Religion           string    `gorm:"size:100;not null" json:"religion"`
	MotherTongue       string    `gorm:"size:100" json:"mother_tongue"`
	MaritalStatus      string    `gorm:"size:50;not null" json:"marital_status"`
	Education          string    `gorm:"size:255;not null" json:"education"`
	Occupation         string    `gorm:"size:255;not null" json:"occupation"`
	Income             string    `gorm:"size:100" json:"income"`
	State              string    `gorm:"size:100;not null" json:"state"`
	City               string    `gorm:"size:100;not null" json:"city"`
	FamilyType         string    `gorm:"size:50" json:"family_type"`
	FamilyStatus       string    `gorm:"size:50" json:"family_status"`
	AboutMe            string    `gorm:"type:text" json:"about_me"`
	PartnerPreferences string    `gorm:"type:text" json:"partner_preferences"`
	ProfilePhoto       string    `gorm:"size:512" json:"profile_photo"`
	Status             string    `gorm:"size:20;not null;index;default:'pending'" json:"status"` // pending | approved | rejected
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Profile) TableName() string {
	return "user_profiles"
}

// Complete reports whether all mandatory matrimony fields are filled in.
func (p *Profile) Complete() bool {
	required := []string{p.Gender, p.Caste, p.Religion, p.MaritalStatus, p.Education, p.Occupation, p.State, p.City}
	for _, f := range required {
		if f == "" {
			return false
		}
	}
	return p.Age > 0
}

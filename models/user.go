package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleContributor Role = "Contributor"
	RoleAdmin       Role = "Admin"
	RoleSuperAdmin  Role = "Super Admin"
)

// ParseRole returns the role named s.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleContributor, RoleAdmin, RoleSuperAdmin:
		return Role(s), true
	}
	return "", false
}

// Location is the county / sub-county / specific-area triple shared by
// users and submissions.
type Location struct {
	County       string `json:"county" gorm:"index"`
	SubCounty    string `json:"sub_county"`
	SpecificArea string `json:"specific_area"`
}

type User struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string     `json:"name" gorm:"not null"`
	Phone             string     `json:"phone" gorm:"uniqueIndex;not null"`
	Email             *string    `json:"email,omitempty" gorm:"uniqueIndex"`
	PasswordHash      string     `json:"-"`
	ProfilePicture    string     `json:"profile_picture"`
	ProfilePictureID  string     `json:"-"`
	Location          Location   `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Clan              string     `json:"clan"`
	Role              Role       `json:"role" gorm:"not null;default:'Contributor';index"`
	PasswordChangedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasPassword reports whether the user authenticates with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

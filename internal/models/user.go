package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/access"
)

type User struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        string `gorm:"uniqueIndex"`
	BadgeID       string `gorm:"uniqueIndex"` // printed on the badge, e.g. SUP-001
	Username      string `gorm:"uniqueIndex"`
	FullName      string
	Email         string `gorm:"uniqueIndex"`
	Password      string
	Role          string `gorm:"index"`
	Workshop      string `gorm:"index"`
	Department    string
	StudentNumber string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	return nil
}

// Session returns the snapshot the access checks run against.
func (u User) Session() access.User {
	return access.User{Role: access.Role(u.Role), Workshop: access.Workshop(u.Workshop)}
}

// BadgePrefix is the badge id family for a role.
func BadgePrefix(role string) string {
	switch access.Role(role) {
	case access.RoleAdmin:
		return "ADM"
	case access.RoleSupervisor:
		return "SUP"
	}
	return "STF"
}

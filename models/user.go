package models

import (
	"strings"

	"gorm.io/gorm"
)

// RoleAdmin is the role claim that unlocks poll, vote and image management.
const RoleAdmin = "admin"

// User model for authentication
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"not null" json:"username"`
	UsernameKey  string `gorm:"uniqueIndex;not null" json:"-"` // lower-cased username, unique ignoring case
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"default:''" json:"role,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// BeforeSave keeps UsernameKey in sync with Username
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.UsernameKey = NormalizeUsername(u.Username)
	return nil
}

// IsAdmin reports whether the user carries the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeUsername returns the key usernames are compared by
func NormalizeUsername(username string) string {
	return strings.ToLower(username)
}

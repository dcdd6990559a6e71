package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles are a closed set; any other value gets no dashboard.
const (
	RoleClient         = "client"
	RoleDesigner       = "designer"
	RoleProjectManager = "project_manager"
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleClient, RoleDesigner, RoleProjectManager:
		return true
	}
	return false
}

// User represents an account. The role is fixed at sign-up.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Role      string         `gorm:"size:50;not null" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

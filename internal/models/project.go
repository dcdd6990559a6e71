package models

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses. The UI offers all three freely; no forward-only
// ordering is enforced.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// ValidStatus reports whether status is one of the three known statuses.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Project represents a design project created by a client. A project
// carries at most one file attachment and at most one designer
// assignment.
type Project struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	ClientID    uint               `gorm:"index;not null" json:"client_id"`
	Client      *User              `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Title       string             `gorm:"size:200;not null" json:"title"`
	Description string             `gorm:"type:text;not null" json:"description"`
	Status      string             `gorm:"size:50;default:pending" json:"status"`
	File        *ProjectFile       `gorm:"foreignKey:ProjectID" json:"file,omitempty"`
	Assignment  *ProjectAssignment `gorm:"foreignKey:ProjectID" json:"assignment,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

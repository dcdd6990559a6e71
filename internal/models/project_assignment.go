package models

import "time"

// ProjectAssignment links a project to the designer working on it.
// The unique index on ProjectID makes "at most one assignment per
// project" a storage-level constraint rather than an application-level
// delete-then-insert convention. Absence of a row means unassigned.
type ProjectAssignment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"uniqueIndex;not null" json:"project_id"`
	Project    *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	DesignerID uint      `gorm:"index;not null" json:"designer_id"`
	Designer   *User     `gorm:"foreignKey:DesignerID" json:"designer,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ProjectAssignment) TableName() string { return "project_assignments" }

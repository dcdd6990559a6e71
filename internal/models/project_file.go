package models

import "time"

// ProjectFile links a project to its uploaded blob. FilePath is a
// storage key, not a URL; the public URL is derived on read. Rows are
// created in the project-creation flow and never updated.
type ProjectFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"uniqueIndex;not null" json:"project_id"`
	FilePath   string    `gorm:"size:500;not null" json:"file_path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (ProjectFile) TableName() string { return "files" }

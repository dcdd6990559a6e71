package services

import (
	"github.com/dsolisav/designio/internal/models"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// DesignerOption is a selectable designer in the assignment form.
type DesignerOption struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// ListDesigners returns all users with the designer role, for the
// assignment selector.
func (s *UserService) ListDesigners() ([]DesignerOption, error) {
	var designers []DesignerOption
	err := s.db.Model(&models.User{}).
		Where("role = ?", models.RoleDesigner).
		Order("username").
		Find(&designers).Error
	if err != nil {
		return nil, err
	}
	return designers, nil
}

package handlers

import (
	"github.com/dsolisav/designio/internal/services"
	"github.com/dsolisav/designio/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		userService: services.NewUserService(db),
	}
}

// ListDesigners returns every designer account, for the project
// manager's assignment selector
// GET /api/designers
func (h *UserHandler) ListDesigners(c *gin.Context) {
	designers, err := h.userService.ListDesigners()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, designers)
}

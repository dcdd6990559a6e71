package handlers

import (
	"errors"
	"strconv"

	"github.com/dsolisav/designio/internal/middleware"
	"github.com/dsolisav/designio/internal/services"
	"github.com/dsolisav/designio/internal/storage"
	"github.com/dsolisav/designio/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB, store storage.Store) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db, store),
	}
}

// List returns the role-specific project table: clients get their own
// projects, designers their assigned ones, project managers all of them
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	rows, err := h.projectService.ListForRole(middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, rows)
}

// Create starts a client project with its single file attachment.
// Expects multipart/form-data with title, description, and file fields.
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	in := services.CreateProjectInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	// Opening the already-received multipart part is not a side effect;
	// nothing is stored until every field passes validation.
	fileHeader, err := c.FormFile("file")
	if err == nil {
		in.Filename = fileHeader.Filename
		f, openErr := fileHeader.Open()
		if openErr != nil {
			response.BadRequest(c, "could not read uploaded file")
			return
		}
		defer f.Close()
		in.Content = f
	}

	if fields := in.Validate(); len(fields) > 0 {
		response.ValidationFailed(c, fields)
		return
	}

	row, err := h.projectService.Create(middleware.GetUserID(c), &in)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, row)
}

// Update applies the project-manager edit form
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var in services.UpdateProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if fields := in.Validate(); len(fields) > 0 {
		response.ValidationFailed(c, fields)
		return
	}

	row, err := h.projectService.Update(uint(id), &in)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		if errors.Is(err, services.ErrDesignerNotFound) {
			response.BadRequest(c, "designer not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, row)
}

// Delete removes a project. The confirm/cancel step lives in the UI; a
// cancelled confirmation never reaches this handler.
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.projectService.Delete(uint(id)); err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "project deleted successfully"})
}

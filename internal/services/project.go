package services

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/dsolisav/designio/internal/models"
	"github.com/dsolisav/designio/internal/storage"
	"github.com/dsolisav/designio/pkg/logger"
	"gorm.io/gorm"
)

// DesignerUnassigned is the explicit "no designer" choice in the PM
// edit form. It is distinct from leaving the field out: the selection
// is required, unassignment is deliberate.
const DesignerUnassigned = "unassigned"

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrDesignerNotFound = errors.New("designer not found")
)

type ProjectService struct {
	db    *gorm.DB
	store storage.Store
}

func NewProjectService(db *gorm.DB, store storage.Store) *ProjectService {
	return &ProjectService{db: db, store: store}
}

// ProjectRow is a flattened project for table display. FileURL is the
// resolved public URL of the attachment, empty when there is none.
// Client and designer names are only populated for the manager view.
type ProjectRow struct {
	ID                   uint   `json:"id"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	Status               string `json:"status"`
	ClientID             uint   `json:"client_id"`
	ClientName           string `json:"client_name,omitempty"`
	AssignedDesignerID   *uint  `json:"assigned_designer_id,omitempty"`
	AssignedDesignerName string `json:"assigned_designer_name,omitempty"`
	FileURL              string `json:"file_url,omitempty"`
}

// ListForRole is the single dispatch point over the three role views:
// clients see their own projects, designers see projects assigned to
// them, project managers see everything. An unknown role sees nothing.
func (s *ProjectService) ListForRole(userID uint, role string) ([]ProjectRow, error) {
	switch role {
	case models.RoleClient:
		return s.listForClient(userID)
	case models.RoleDesigner:
		return s.listForDesigner(userID)
	case models.RoleProjectManager:
		return s.listForManager()
	default:
		return []ProjectRow{}, nil
	}
}

func (s *ProjectService) listForClient(clientID uint) ([]ProjectRow, error) {
	var projects []models.Project
	if err := s.db.Preload("File").
		Where("client_id = ?", clientID).
		Find(&projects).Error; err != nil {
		return nil, err
	}

	rows := make([]ProjectRow, 0, len(projects))
	for i := range projects {
		rows = append(rows, s.toRow(&projects[i]))
	}
	return rows, nil
}

func (s *ProjectService) listForDesigner(designerID uint) ([]ProjectRow, error) {
	var assignments []models.ProjectAssignment
	if err := s.db.Preload("Project.File").
		Where("designer_id = ?", designerID).
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	rows := make([]ProjectRow, 0, len(assignments))
	for i := range assignments {
		p := assignments[i].Project
		if p == nil {
			continue
		}
		rows = append(rows, s.toRow(p))
	}
	return rows, nil
}

func (s *ProjectService) listForManager() ([]ProjectRow, error) {
	var projects []models.Project
	if err := s.db.Preload("Client").Preload("Assignment").Preload("File").
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	rows := make([]ProjectRow, len(projects))
	var wg sync.WaitGroup
	for i := range projects {
		row := s.toRow(&projects[i])
		if c := projects[i].Client; c != nil {
			row.ClientName = c.Username
		}
		rows[i] = row

		// Designer names are resolved with a follow-up lookup per
		// assigned project, concurrently across rows.
		if a := projects[i].Assignment; a != nil {
			wg.Add(1)
			go func(i int, designerID uint) {
				defer wg.Done()
				name, err := s.designerName(designerID)
				if err != nil {
					logger.Error().Err(err).Uint("designer_id", designerID).Msg("resolve designer name")
					return
				}
				rows[i].AssignedDesignerName = name
			}(i, a.DesignerID)
		}
	}
	wg.Wait()

	return rows, nil
}

func (s *ProjectService) designerName(designerID uint) (string, error) {
	var designer models.User
	if err := s.db.Select("username").First(&designer, designerID).Error; err != nil {
		return "", err
	}
	return designer.Username, nil
}

// toRow flattens a project and its preloaded relations.
func (s *ProjectService) toRow(p *models.Project) ProjectRow {
	row := ProjectRow{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		ClientID:    p.ClientID,
	}
	if p.File != nil {
		row.FileURL = s.store.PublicURL(p.File.FilePath)
	}
	if p.Assignment != nil {
		id := p.Assignment.DesignerID
		row.AssignedDesignerID = &id
	}
	return row
}

type CreateProjectInput struct {
	Title       string
	Description string
	Filename    string
	Content     io.Reader
}

// Validate checks the create form; all three inputs are required. No
// side effect happens until every field passes.
func (in *CreateProjectInput) Validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "Title is required."
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = "Description is required."
	}
	if in.Filename == "" || in.Content == nil {
		fields["file"] = "A file is required."
	}
	return fields
}

// Create runs the client project-creation saga: upload the blob, insert
// the project with status forced to pending, insert the file row, then
// re-fetch the joined project. A failed project insert compensates by
// deleting the uploaded blob; a failed file insert leaves the project
// without a file reference and reports the error (the nightly sweep
// reclaims the blob).
func (s *ProjectService) Create(clientID uint, in *CreateProjectInput) (*ProjectRow, error) {
	key := storage.BuildKey(clientID, in.Filename)
	if err := s.store.Save(key, in.Content); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	project := models.Project{
		ClientID:    clientID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      models.StatusPending,
	}
	if err := s.db.Create(&project).Error; err != nil {
		if delErr := s.store.Delete(key); delErr != nil {
			logger.Error().Err(delErr).Str("key", key).Msg("compensating blob delete failed")
		}
		return nil, fmt.Errorf("create project: %w", err)
	}

	file := models.ProjectFile{
		ProjectID: project.ID,
		FilePath:  key,
	}
	if err := s.db.Create(&file).Error; err != nil {
		// The project row stays; only the file reference is missing.
		logger.Error().Err(err).Uint("project_id", project.ID).Msg("create file row")
		return nil, fmt.Errorf("link file: %w", err)
	}

	row, err := s.GetRow(project.ID)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// GetRow re-fetches a single project with client, assignment, and file
// joins, designer name resolved.
func (s *ProjectService) GetRow(id uint) (*ProjectRow, error) {
	var project models.Project
	err := s.db.Preload("Client").Preload("Assignment").Preload("File").
		First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	row := s.toRow(&project)
	if project.Client != nil {
		row.ClientName = project.Client.Username
	}
	if project.Assignment != nil {
		name, err := s.designerName(project.Assignment.DesignerID)
		if err != nil {
			logger.Error().Err(err).Uint("designer_id", project.Assignment.DesignerID).Msg("resolve designer name")
		} else {
			row.AssignedDesignerName = name
		}
	}
	return &row, nil
}

type UpdateProjectInput struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Status           string `json:"status"`
	AssignedDesigner string `json:"assigned_designer"` // designer id or "unassigned"
}

// Validate checks the PM edit form. All four fields are required; the
// designer selection accepts either a concrete id or the explicit
// unassigned sentinel.
func (in *UpdateProjectInput) Validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "Title is required."
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = "Description is required."
	}
	if !models.ValidStatus(in.Status) {
		fields["status"] = "Status must be pending, in_progress or completed."
	}
	if in.AssignedDesigner != DesignerUnassigned {
		if _, err := strconv.ParseUint(in.AssignedDesigner, 10, 32); err != nil {
			fields["assigned_designer"] = "A designer selection is required."
		}
	}
	return fields
}

// designerID returns the chosen designer id, or 0 for unassigned.
func (in *UpdateProjectInput) designerID() uint {
	if in.AssignedDesigner == DesignerUnassigned {
		return 0
	}
	id, _ := strconv.ParseUint(in.AssignedDesigner, 10, 32)
	return uint(id)
}

// Update applies the PM edit: project fields first, then assignment
// reconciliation in a single transaction, then a re-fetch of the joined
// row. Any step's failure aborts the later steps.
func (s *ProjectService) Update(id uint, in *UpdateProjectInput) (*ProjectRow, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"title":       strings.TrimSpace(in.Title),
		"description": strings.TrimSpace(in.Description),
		"status":      in.Status,
	}
	if err := s.db.Model(&project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	if err := s.reconcileAssignment(project.ID, in.designerID()); err != nil {
		return nil, err
	}

	return s.GetRow(project.ID)
}

// reconcileAssignment replaces the project's assignment with the chosen
// designer, or removes it when designerID is 0. The delete and insert
// run in one transaction, and the unique index on project_id backs the
// one-assignment-per-project invariant even across sessions.
func (s *ProjectService) reconcileAssignment(projectID, designerID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).
			Delete(&models.ProjectAssignment{}).Error; err != nil {
			return fmt.Errorf("remove assignment: %w", err)
		}

		if designerID == 0 {
			return nil
		}

		var designer models.User
		if err := tx.Where("id = ? AND role = ?", designerID, models.RoleDesigner).
			First(&designer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDesignerNotFound
			}
			return err
		}

		assignment := models.ProjectAssignment{
			ProjectID:  projectID,
			DesignerID: designerID,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
		return nil
	})
}

// Delete removes a project together with its assignment and file rows.
// The blob itself is removed best-effort.
func (s *ProjectService) Delete(id uint) error {
	var file models.ProjectFile
	hasFile := s.db.Where("project_id = ?", id).First(&file).Error == nil

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProjectNotFound
		}
		if err := tx.Where("project_id = ?", id).
			Delete(&models.ProjectAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).
			Delete(&models.ProjectFile{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if hasFile {
		if err := s.store.Delete(file.FilePath); err != nil {
			logger.Warn().Err(err).Str("key", file.FilePath).Msg("delete blob")
		}
	}
	return nil
}

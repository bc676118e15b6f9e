package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	"github.com/vibeplanner/vibeplanner/internal/policy"
	apperrors "github.com/vibeplanner/vibeplanner/pkg/errors"
)

// ErrProjectNotFound indicates the requested project does not exist.
var ErrProjectNotFound = apperrors.New("PROJECT_NOT_FOUND", "Project not found", http.StatusNotFound)

// CreateProjectInput captures new project metadata.
type CreateProjectInput struct {
	Name        string
	Slug        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// UpdateProjectInput describes mutable project fields.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// ProjectService handles project lifecycle within a team.
type ProjectService struct {
	db           *gorm.DB
	evaluator    *policy.Evaluator
	auditService *AuditService
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(db *gorm.DB, evaluator *policy.Evaluator, auditService *AuditService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	if evaluator == nil {
		return nil, errors.New("project service: evaluator is required")
	}
	return &ProjectService{db: db, evaluator: evaluator, auditService: auditService}, nil
}

// Create registers a new project under the team.
func (s *ProjectService) Create(ctx context.Context, teamID string, input CreateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))

	if name == "" {
		return nil, apperrors.NewBadRequest("project name is required")
	}
	if slug == "" {
		return nil, apperrors.NewBadRequest("project slug is required")
	}

	project := &models.Project{
		TeamID:      strings.TrimSpace(teamID),
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Status:      models.ProjectStatusPlanned,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}

	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("project slug already exists in this team")
		}
		return nil, fmt.Errorf("project service: create project: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   project.TeamID,
		Action:   "project.create",
		Resource: project.ID,
		Result:   "success",
		Metadata: map[string]any{"slug": project.Slug},
	})

	return project, nil
}

// Get loads a project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: load project: %w", err)
	}
	return &project, nil
}

// ListVisible returns the team's projects narrowed to what the caller's
// membership allows. Restricted roles only ever see their scoped projects.
func (s *ProjectService) ListVisible(ctx context.Context, userID, teamID string) ([]models.Project, error) {
	ctx = ensureContext(ctx)

	filter, err := s.evaluator.VisibleProjects(ctx, userID, teamID)
	if err != nil {
		return nil, fmt.Errorf("project service: resolve visibility: %w", err)
	}

	query := s.db.WithContext(ctx).Where("team_id = ?", teamID).Order("name")
	if !filter.All {
		if len(filter.IDs) == 0 {
			return []models.Project{}, nil
		}
		query = query.Where("id IN ?", filter.IDs)
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}
	return projects, nil
}

// Update modifies project metadata.
func (s *ProjectService) Update(ctx context.Context, id string, input UpdateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if !validProjectStatus(status) {
			return nil, apperrors.NewBadRequest("unknown project status")
		}
		updates["status"] = status
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}

	if len(updates) == 0 {
		return project, nil
	}

	if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project service: update project: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   project.TeamID,
		Action:   "project.update",
		Resource: project.ID,
		Result:   "success",
	})

	return project, nil
}

// Delete removes a project and its tasks.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", project.ID)
	if result.Error != nil {
		return fmt.Errorf("project service: delete project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   project.TeamID,
		Action:   "project.delete",
		Resource: project.ID,
		Result:   "success",
	})

	return nil
}

func validProjectStatus(status string) bool {
	switch status {
	case models.ProjectStatusPlanned, models.ProjectStatusActive, models.ProjectStatusOnHold, models.ProjectStatusCompleted:
		return true
	default:
		return false
	}
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/policy"
	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

type ProjectHandler struct {
	svc *services.ProjectService
}

type createProjectRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=128"`
	Slug        string     `json:"slug" validate:"required,min=2,max=64"`
	Description string     `json:"description" validate:"omitempty,max=2048"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type updateProjectRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=2,max=128"`
	Description *string    `json:"description" validate:"omitempty,max=2048"`
	Status      *string    `json:"status" validate:"omitempty,oneof=planned active on_hold completed"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func NewProjectHandler(db *gorm.DB, evaluator *policy.Evaluator) (*ProjectHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewProjectService(db, evaluator, audit)
	if err != nil {
		return nil, err
	}
	return &ProjectHandler{svc: svc}, nil
}

// GET /api/teams/:teamID/projects
//
// The listing is narrowed to the caller's visibility filter, so scoped
// members and read-only roles only ever see the projects on their list.
func (h *ProjectHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.svc.ListVisible(requestContext(c), userID, c.Param("teamID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, projects)
}

// POST /api/teams/:teamID/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var body createProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	project, err := h.svc.Create(requestContext(c), c.Param("teamID"), services.CreateProjectInput{
		Name:        strings.TrimSpace(body.Name),
		Slug:        strings.TrimSpace(body.Slug),
		Description: strings.TrimSpace(body.Description),
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, project)
}

// GET /api/projects/:projectID
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.Get(requestContext(c), c.Param("projectID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// PATCH /api/projects/:projectID
func (h *ProjectHandler) Update(c *gin.Context) {
	var body updateProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	project, err := h.svc.Update(requestContext(c), c.Param("projectID"), services.UpdateProjectInput{
		Name:        body.Name,
		Description: body.Description,
		Status:      body.Status,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// DELETE /api/projects/:projectID
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), c.Param("projectID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

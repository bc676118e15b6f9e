package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/errors"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

type TeamHandler struct {
	svc *services.TeamService
}

type createTeamRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=128"`
	Slug          string `json:"slug" validate:"required,min=2,max=64"`
	ExternalOrgID string `json:"external_org_id" validate:"omitempty,max=128"`
}

type updateTeamRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=128"`
}

type upsertMemberRequest struct {
	UserID     string   `json:"user_id" validate:"required"`
	Role       string   `json:"role" validate:"required"`
	ProjectIDs []string `json:"project_ids" validate:"omitempty,dive,required"`
}

func NewTeamHandler(db *gorm.DB) (*TeamHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewTeamService(db, audit)
	if err != nil {
		return nil, err
	}
	return &TeamHandler{svc: svc}, nil
}

// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	teams, err := h.svc.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, teams)
}

// POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body createTeamRequest
	if !bindAndValidate(c, &body) {
		return
	}

	team, err := h.svc.Create(requestContext(c), services.CreateTeamInput{
		Name:          strings.TrimSpace(body.Name),
		Slug:          strings.TrimSpace(body.Slug),
		ExternalOrgID: strings.TrimSpace(body.ExternalOrgID),
		CreatorUserID: userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, team)
}

// GET /api/teams/:teamID
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.svc.Get(requestContext(c), c.Param("teamID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

// PATCH /api/teams/:teamID
func (h *TeamHandler) Update(c *gin.Context) {
	var body updateTeamRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Name == nil {
		response.Error(c, errors.NewBadRequest("no fields provided for update"))
		return
	}

	trimmed := strings.TrimSpace(*body.Name)
	if trimmed == "" {
		response.Error(c, errors.NewBadRequest("name must not be empty"))
		return
	}

	team, err := h.svc.Update(requestContext(c), c.Param("teamID"), services.UpdateTeamInput{Name: &trimmed})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

// DELETE /api/teams/:teamID
func (h *TeamHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), c.Param("teamID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/teams/:teamID/members
func (h *TeamHandler) ListMembers(c *gin.Context) {
	members, err := h.svc.ListMembers(requestContext(c), c.Param("teamID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

// PUT /api/teams/:teamID/members
func (h *TeamHandler) UpsertMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body upsertMemberRequest
	if !bindAndValidate(c, &body) {
		return
	}

	member, err := h.svc.UpsertMember(requestContext(c), c.Param("teamID"), services.UpsertMemberInput{
		UserID:     strings.TrimSpace(body.UserID),
		Role:       strings.TrimSpace(body.Role),
		ProjectIDs: body.ProjectIDs,
		InvitedBy:  userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// DELETE /api/teams/:teamID/members/:userID
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	if err := h.svc.DeactivateMember(requestContext(c), c.Param("teamID"), c.Param("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

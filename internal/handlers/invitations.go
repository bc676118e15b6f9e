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

type InvitationHandler struct {
	svc *services.InvitationService
}

type createInvitationRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	Role       string   `json:"role" validate:"required"`
	ProjectIDs []string `json:"project_ids" validate:"omitempty,dive,required"`
}

type redeemInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

func NewInvitationHandler(db *gorm.DB) (*InvitationHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	teams, err := services.NewTeamService(db, audit)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewInvitationService(db, teams, audit)
	if err != nil {
		return nil, err
	}
	return &InvitationHandler{svc: svc}, nil
}

// POST /api/teams/:teamID/invitations
//
// The raw token is returned exactly once; only its hash is stored.
func (h *InvitationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body createInvitationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	invitation, token, err := h.svc.Create(requestContext(c), c.Param("teamID"), services.CreateInvitationInput{
		Email:      strings.TrimSpace(body.Email),
		Role:       strings.TrimSpace(body.Role),
		ProjectIDs: body.ProjectIDs,
		InvitedBy:  userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"invitation": invitation,
		"token":      token,
	})
}

// GET /api/teams/:teamID/invitations
func (h *InvitationHandler) ListPending(c *gin.Context) {
	invitations, err := h.svc.ListPending(requestContext(c), c.Param("teamID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitations)
}

// DELETE /api/teams/:teamID/invitations/:invitationID
func (h *InvitationHandler) Revoke(c *gin.Context) {
	if err := h.svc.Revoke(requestContext(c), c.Param("teamID"), c.Param("invitationID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// POST /api/invitations/redeem
//
// Redemption needs only an authenticated principal: the caller is not a team
// member yet, so no team access check applies.
func (h *InvitationHandler) Redeem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body redeemInvitationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	token := strings.TrimSpace(body.Token)
	if token == "" {
		response.Error(c, errors.NewBadRequest("token is required"))
		return
	}

	membership, err := h.svc.Redeem(requestContext(c), token, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, membership)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vibeplanner/vibeplanner/internal/policy"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

type NavigationHandler struct {
	evaluator *policy.Evaluator
}

func NewNavigationHandler(evaluator *policy.Evaluator) (*NavigationHandler, error) {
	if evaluator == nil {
		return nil, errors.New("navigation handler: evaluator is required")
	}
	return &NavigationHandler{evaluator: evaluator}, nil
}

// GET /api/teams/:teamID/navigation
//
// The sidebar is computed from the caller's membership role on the team.
// A caller without a membership still receives the unrestricted entries so
// the shell renders minimally instead of erroring.
func (h *NavigationHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter, err := h.evaluator.VisibleProjects(requestContext(c), userID, c.Param("teamID"))
	if err != nil {
		response.Error(c, err)
		return
	}

	entries := policy.FilterEntries(filter.Role, policy.DefaultEntries())

	payload := gin.H{"entries": entries}
	if filter.Role != "" {
		payload["role"] = filter.Role
		payload["role_display_name"] = filter.Role.DisplayName()
	}
	response.Success(c, http.StatusOK, payload)
}

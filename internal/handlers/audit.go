package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/middleware"
	"github.com/vibeplanner/vibeplanner/internal/policy"
	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/errors"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(db *gorm.DB) (*AuditHandler, error) {
	svc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	return &AuditHandler{svc: svc}, nil
}

// GET /api/teams/:teamID/audit
//
// Routed behind team read access; the trail itself is restricted to admins.
func (h *AuditHandler) List(c *gin.Context) {
	decision, ok := middleware.Decision(c)
	if !ok || decision.Role != policy.RoleAdmin {
		response.Error(c, errors.ErrForbidden)
		return
	}

	page := parseIntQuery(c, "page", 1)
	per := parseIntQuery(c, "per_page", 50)

	// The trail is tenant-scoped: only entries recorded against the route's
	// team are ever returned, whatever other filters apply.
	var filters services.AuditFilters
	filters.TeamID = c.Param("teamID")
	filters.ActorID = c.Query("actor_id")
	filters.Action = c.Query("action")
	filters.Result = c.Query("result")
	filters.Resource = c.Query("resource")

	if s := c.Query("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filters.Since = &t
		}
	}
	if u := c.Query("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			filters.Until = &t
		}
	}

	logs, total, err := h.svc.List(requestContext(c), services.AuditListOptions{Page: page, PageSize: per, Filters: filters})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, response.Paginate(page, per, total))
}

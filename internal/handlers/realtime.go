package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/vibeplanner/vibeplanner/internal/auth"
	"github.com/vibeplanner/vibeplanner/internal/policy"
	"github.com/vibeplanner/vibeplanner/internal/realtime"
	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/errors"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into authenticated WebSocket
// streams. The set of allowed streams is computed per connection from the
// caller's project visibility, so a scoped membership can never subscribe
// beyond its project list.
type RealtimeHandler struct {
	hub       *realtime.Hub
	tokens    *iauth.TokenService
	evaluator *policy.Evaluator
	projects  *services.ProjectService
}

func NewRealtimeHandler(hub *realtime.Hub, tokens *iauth.TokenService, evaluator *policy.Evaluator, projects *services.ProjectService) *RealtimeHandler {
	return &RealtimeHandler{
		hub:       hub,
		tokens:    tokens,
		evaluator: evaluator,
		projects:  projects,
	}
}

// GET /api/teams/:teamID/realtime
//
// WebSocket clients cannot set headers, so the token is accepted from the
// query string as well as the Authorization header.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil || h.tokens == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		authz := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}
	if token == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	teamID := c.Param("teamID")

	filter, err := h.evaluator.VisibleProjects(requestContext(c), userID, teamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if filter.Role == "" {
		// No membership renders as not-found, matching denied reads.
		response.Error(c, errors.ErrNotFound)
		return
	}

	visible, err := h.projects.ListVisible(requestContext(c), userID, teamID)
	if err != nil {
		response.Error(c, err)
		return
	}

	allowed := make(map[string]struct{}, 2*len(visible))
	for _, project := range visible {
		allowed[realtime.ProjectTaskStream(project.ID)] = struct{}{}
		if !filter.Role.ReadOnly() {
			allowed[realtime.ProjectChatStream(project.ID)] = struct{}{}
		}
	}

	streams := gatherStreams(c)
	if len(streams) == 0 {
		// Default to every stream the caller may see.
		for stream := range allowed {
			streams = append(streams, stream)
		}
	}

	for _, stream := range streams {
		if _, ok := allowed[stream]; !ok {
			response.Error(c, errors.ErrNotFound)
			return
		}
	}

	h.hub.Serve(userID, streams, allowed, c.Writer, c.Request)
}

func gatherStreams(c *gin.Context) []string {
	var streams []string

	for _, queryStream := range c.QueryArray("stream") {
		if normalized := normalizeStream(queryStream); normalized != "" {
			streams = append(streams, normalized)
		}
	}

	raw := c.Query("streams")
	if raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if normalized := normalizeStream(part); normalized != "" {
				streams = append(streams, normalized)
			}
		}
	}

	return uniqueStreams(streams)
}

func normalizeStream(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func uniqueStreams(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vibeplanner/vibeplanner/internal/middleware"
	"github.com/vibeplanner/vibeplanner/internal/policy"
	"github.com/vibeplanner/vibeplanner/internal/services"
)

func TestAuditHandlerListRequiresAdmin(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewAuditHandler(db)
	require.NoError(t, err)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	require.NoError(t, audit.Log(testContext(), services.AuditEntry{
		TeamID:  "team-a",
		ActorID: "user-admin",
		Action:  "team.create",
		Result:  "success",
	}))

	params := gin.Params{{Key: "teamID", Value: "team-a"}}

	c, recorder := newJSONContext(t, http.MethodGet, nil, params, "user-admin")
	c.Set(middleware.CtxDecisionKey, policy.Decision{Allowed: true, Role: policy.RoleAdmin})
	handler.List(c)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var logs []struct {
		Action string `json:"action"`
	}
	decodeDataInto(t, recorder, &logs)
	require.Len(t, logs, 1)
	require.Equal(t, "team.create", logs[0].Action)

	// Non-admin roles are rejected even when the route read check passed.
	c, recorder = newJSONContext(t, http.MethodGet, nil, params, "user-member")
	c.Set(middleware.CtxDecisionKey, policy.Decision{Allowed: true, Role: policy.RoleMember})
	handler.List(c)
	require.Equal(t, http.StatusForbidden, recorder.Code)

	c, recorder = newJSONContext(t, http.MethodGet, nil, params, "user-member")
	handler.List(c)
	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestAuditHandlerListIsTenantScoped(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewAuditHandler(db)
	require.NoError(t, err)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	require.NoError(t, audit.Log(testContext(), services.AuditEntry{
		TeamID:  "team-alpha",
		ActorID: "alpha-admin",
		Action:  "team.member.upsert",
		Result:  "success",
	}))
	require.NoError(t, audit.Log(testContext(), services.AuditEntry{
		TeamID:   "team-beta",
		ActorID:  "beta-admin",
		Action:   "invitation.create",
		Result:   "success",
		Metadata: map[string]any{"email": "customer@beta.example"},
	}))

	params := gin.Params{{Key: "teamID", Value: "team-alpha"}}
	c, recorder := newJSONContext(t, http.MethodGet, nil, params, "alpha-admin")
	c.Set(middleware.CtxDecisionKey, policy.Decision{Allowed: true, Role: policy.RoleAdmin})
	handler.List(c)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var logs []struct {
		TeamID string `json:"team_id"`
		Action string `json:"action"`
	}
	decodeDataInto(t, recorder, &logs)
	require.Len(t, logs, 1)
	require.Equal(t, "team-alpha", logs[0].TeamID)
	require.Equal(t, "team.member.upsert", logs[0].Action)
	require.NotContains(t, recorder.Body.String(), "customer@beta.example")
}

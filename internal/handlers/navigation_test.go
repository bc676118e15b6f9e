package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vibeplanner/vibeplanner/internal/policy"
	"github.com/vibeplanner/vibeplanner/internal/services"
)

func TestNavigationHandlerPerRole(t *testing.T) {
	db := openHandlerTestDB(t)
	evaluator, err := policy.NewEvaluator(db)
	require.NoError(t, err)
	handler, err := NewNavigationHandler(evaluator)
	require.NoError(t, err)

	team, project := seedTeamWithProject(t, db, "user-admin")

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	teams, err := services.NewTeamService(db, audit)
	require.NoError(t, err)
	_, err = teams.UpsertMember(testContext(), team.ID, services.UpsertMemberInput{
		UserID:     "user-customer",
		Role:       "customer",
		ProjectIDs: []string{project.ID},
	})
	require.NoError(t, err)

	params := gin.Params{{Key: "teamID", Value: team.ID}}

	type navPayload struct {
		Role            string `json:"role"`
		RoleDisplayName string `json:"role_display_name"`
		Entries         []struct {
			Href string `json:"href"`
		} `json:"entries"`
	}

	hrefs := func(p navPayload) []string {
		out := make([]string, 0, len(p.Entries))
		for _, entry := range p.Entries {
			out = append(out, entry.Href)
		}
		return out
	}

	c, recorder := newJSONContext(t, http.MethodGet, nil, params, "user-admin")
	handler.Get(c)
	require.Equal(t, http.StatusOK, recorder.Code)
	var nav navPayload
	decodeDataInto(t, recorder, &nav)
	require.Equal(t, "admin", nav.Role)
	require.Contains(t, hrefs(nav), "/settings")

	c, recorder = newJSONContext(t, http.MethodGet, nil, params, "user-customer")
	handler.Get(c)
	require.Equal(t, http.StatusOK, recorder.Code)
	nav = navPayload{}
	decodeDataInto(t, recorder, &nav)
	require.Equal(t, "customer", nav.Role)
	require.Equal(t, "Customer", nav.RoleDisplayName)
	entries := hrefs(nav)
	require.Contains(t, entries, "/surveys")
	require.NotContains(t, entries, "/chat")
	require.NotContains(t, entries, "/members")

	// A caller without any membership still gets the minimal shell.
	c, recorder = newJSONContext(t, http.MethodGet, nil, params, "user-stranger")
	handler.Get(c)
	require.Equal(t, http.StatusOK, recorder.Code)
	nav = navPayload{}
	decodeDataInto(t, recorder, &nav)
	require.Empty(t, nav.Role)
	require.NotEmpty(t, nav.Entries)
	require.NotContains(t, hrefs(nav), "/settings")
}

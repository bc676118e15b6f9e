package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestTeamHandlerCreateAndList(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewTeamHandler(db)
	require.NoError(t, err)

	c, recorder := newJSONContext(t, http.MethodPost, gin.H{
		"name": "Acme",
		"slug": "acme",
	}, nil, "user-admin")
	handler.Create(c)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var team struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	decodeDataInto(t, recorder, &team)
	require.Equal(t, "acme", team.Slug)

	c, recorder = newJSONContext(t, http.MethodGet, nil, nil, "user-admin")
	handler.List(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var teams []struct {
		ID string `json:"id"`
	}
	decodeDataInto(t, recorder, &teams)
	require.Len(t, teams, 1)
	require.Equal(t, team.ID, teams[0].ID)

	// Listing only returns teams the caller belongs to.
	c, recorder = newJSONContext(t, http.MethodGet, nil, nil, "user-other")
	handler.List(c)
	require.Equal(t, http.StatusOK, recorder.Code)
	teams = nil
	decodeDataInto(t, recorder, &teams)
	require.Empty(t, teams)
}

func TestTeamHandlerCreateValidation(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewTeamHandler(db)
	require.NoError(t, err)

	c, recorder := newJSONContext(t, http.MethodPost, gin.H{"name": "A"}, nil, "user-admin")
	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	payload := decodeResponse(t, recorder)
	require.False(t, payload.Success)
	require.Equal(t, "BAD_REQUEST", payload.Error.Code)
}

func TestTeamHandlerMemberLifecycle(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewTeamHandler(db)
	require.NoError(t, err)

	team, project := seedTeamWithProject(t, db, "user-admin")

	params := gin.Params{{Key: "teamID", Value: team.ID}}
	c, recorder := newJSONContext(t, http.MethodPut, gin.H{
		"user_id":     "user-customer",
		"role":        "customer",
		"project_ids": []string{project.ID},
	}, params, "user-admin")
	handler.UpsertMember(c)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	c, recorder = newJSONContext(t, http.MethodGet, nil, params, "user-admin")
	handler.ListMembers(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var members []struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	decodeDataInto(t, recorder, &members)
	require.Len(t, members, 2)

	removeParams := gin.Params{
		{Key: "teamID", Value: team.ID},
		{Key: "userID", Value: "user-customer"},
	}
	c, recorder = newJSONContext(t, http.MethodDelete, nil, removeParams, "user-admin")
	handler.RemoveMember(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	c, recorder = newJSONContext(t, http.MethodDelete, nil, removeParams, "user-admin")
	handler.RemoveMember(c)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestTeamHandlerUpsertMemberRejectsUnknownRole(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewTeamHandler(db)
	require.NoError(t, err)

	team, _ := seedTeamWithProject(t, db, "user-admin")

	params := gin.Params{{Key: "teamID", Value: team.ID}}
	c, recorder := newJSONContext(t, http.MethodPut, gin.H{
		"user_id": "user-x",
		"role":    "superuser",
	}, params, "user-admin")
	handler.UpsertMember(c)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	payload := decodeResponse(t, recorder)
	require.Equal(t, "INVALID_ROLE", payload.Error.Code)
}

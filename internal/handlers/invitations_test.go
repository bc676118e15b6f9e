package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestInvitationHandlerCreateAndRedeem(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewInvitationHandler(db)
	require.NoError(t, err)

	team, project := seedTeamWithProject(t, db, "user-admin")
	teamParams := gin.Params{{Key: "teamID", Value: team.ID}}

	c, recorder := newJSONContext(t, http.MethodPost, gin.H{
		"email":       "Newcomer@Example.com",
		"role":        "customer",
		"project_ids": []string{project.ID},
	}, teamParams, "user-admin")
	handler.Create(c)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var created struct {
		Token      string `json:"token"`
		Invitation struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"invitation"`
	}
	decodeDataInto(t, recorder, &created)
	require.NotEmpty(t, created.Token)
	require.Equal(t, "newcomer@example.com", created.Invitation.Email)

	c, recorder = newJSONContext(t, http.MethodGet, nil, teamParams, "user-admin")
	handler.ListPending(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var pending []struct {
		ID string `json:"id"`
	}
	decodeDataInto(t, recorder, &pending)
	require.Len(t, pending, 1)

	c, recorder = newJSONContext(t, http.MethodPost, gin.H{"token": created.Token}, nil, "user-newcomer")
	handler.Redeem(c)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var membership struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	decodeDataInto(t, recorder, &membership)
	require.Equal(t, "user-newcomer", membership.UserID)
	require.Equal(t, "customer", membership.Role)

	// A redeemed token cannot be replayed.
	c, recorder = newJSONContext(t, http.MethodPost, gin.H{"token": created.Token}, nil, "user-other")
	handler.Redeem(c)
	require.Equal(t, http.StatusConflict, recorder.Code)
}

func TestInvitationHandlerRevoke(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewInvitationHandler(db)
	require.NoError(t, err)

	team, _ := seedTeamWithProject(t, db, "user-admin")
	teamParams := gin.Params{{Key: "teamID", Value: team.ID}}

	c, recorder := newJSONContext(t, http.MethodPost, gin.H{
		"email": "pending@example.com",
		"role":  "member",
	}, teamParams, "user-admin")
	handler.Create(c)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created struct {
		Invitation struct {
			ID string `json:"id"`
		} `json:"invitation"`
	}
	decodeDataInto(t, recorder, &created)

	revokeParams := gin.Params{
		{Key: "teamID", Value: team.ID},
		{Key: "invitationID", Value: created.Invitation.ID},
	}
	c, recorder = newJSONContext(t, http.MethodDelete, nil, revokeParams, "user-admin")
	handler.Revoke(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	// Revoking through another team id renders as not-found.
	c, recorder = newJSONContext(t, http.MethodDelete, nil, gin.Params{
		{Key: "teamID", Value: "other-team"},
		{Key: "invitationID", Value: created.Invitation.ID},
	}, "user-admin")
	handler.Revoke(c)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestInvitationHandlerRedeemValidation(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewInvitationHandler(db)
	require.NoError(t, err)

	c, recorder := newJSONContext(t, http.MethodPost, gin.H{"token": ""}, nil, "user-x")
	handler.Redeem(c)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	c, recorder = newJSONContext(t, http.MethodPost, gin.H{"token": "does-not-exist"}, nil, "user-x")
	handler.Redeem(c)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

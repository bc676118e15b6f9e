package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSurveyHandlerLifecycle(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewSurveyHandler(db)
	require.NoError(t, err)

	_, project := seedTeamWithProject(t, db, "user-admin")
	projectParams := gin.Params{{Key: "projectID", Value: project.ID}}

	c, recorder := newJSONContext(t, http.MethodPost, gin.H{
		"title":     "Kickoff feedback",
		"questions": json.RawMessage(`[{"id":"q1","label":"How did it go?"}]`),
	}, projectParams, "user-admin")
	handler.Create(c)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var survey struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeDataInto(t, recorder, &survey)
	require.Equal(t, "draft", survey.Status)

	surveyParams := gin.Params{
		{Key: "projectID", Value: project.ID},
		{Key: "surveyID", Value: survey.ID},
	}

	// Responses are rejected until the survey opens.
	c, recorder = newJSONContext(t, http.MethodPost, gin.H{
		"answers": json.RawMessage(`{"q1":"great"}`),
	}, surveyParams, "user-customer")
	handler.Respond(c)
	require.Equal(t, http.StatusConflict, recorder.Code)

	c, recorder = newJSONContext(t, http.MethodPatch, gin.H{"status": "open"}, surveyParams, "user-admin")
	handler.SetStatus(c)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	c, recorder = newJSONContext(t, http.MethodPost, gin.H{
		"answers": json.RawMessage(`{"q1":"great"}`),
	}, surveyParams, "user-customer")
	handler.Respond(c)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	// One response per respondent.
	c, recorder = newJSONContext(t, http.MethodPost, gin.H{
		"answers": json.RawMessage(`{"q1":"changed my mind"}`),
	}, surveyParams, "user-customer")
	handler.Respond(c)
	require.Equal(t, http.StatusConflict, recorder.Code)

	c, recorder = newJSONContext(t, http.MethodGet, nil, surveyParams, "user-admin")
	handler.ListResponses(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var responses []struct {
		RespondentID string `json:"respondent_id"`
	}
	decodeDataInto(t, recorder, &responses)
	require.Len(t, responses, 1)
	require.Equal(t, "user-customer", responses[0].RespondentID)
}

func TestSurveyHandlerProjectMismatchIsNotFound(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewSurveyHandler(db)
	require.NoError(t, err)

	_, project := seedTeamWithProject(t, db, "user-admin")

	c, recorder := newJSONContext(t, http.MethodPost, gin.H{
		"title":     "Kickoff feedback",
		"questions": json.RawMessage(`[]`),
	}, gin.Params{{Key: "projectID", Value: project.ID}}, "user-admin")
	handler.Create(c)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var survey struct {
		ID string `json:"id"`
	}
	decodeDataInto(t, recorder, &survey)

	// Reaching the survey through another project id renders as not-found.
	c, recorder = newJSONContext(t, http.MethodGet, nil, gin.Params{
		{Key: "projectID", Value: "other-project"},
		{Key: "surveyID", Value: survey.ID},
	}, "user-admin")
	handler.Get(c)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

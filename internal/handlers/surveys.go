package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/errors"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

type SurveyHandler struct {
	svc *services.SurveyService
}

type createSurveyRequest struct {
	Title       string          `json:"title" validate:"required,min=2,max=256"`
	Description string          `json:"description" validate:"omitempty,max=2048"`
	Questions   json.RawMessage `json:"questions" validate:"required"`
}

type surveyStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft open closed"`
}

type surveyResponseRequest struct {
	Answers json.RawMessage `json:"answers" validate:"required"`
}

func NewSurveyHandler(db *gorm.DB) (*SurveyHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewSurveyService(db, audit)
	if err != nil {
		return nil, err
	}
	return &SurveyHandler{svc: svc}, nil
}

// surveyInProject loads the survey and verifies it belongs to the project the
// route is scoped to. A mismatch renders as not-found.
func (h *SurveyHandler) surveyInProject(c *gin.Context) (*models.Survey, bool) {
	survey, err := h.svc.Get(requestContext(c), c.Param("surveyID"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if survey.ProjectID != c.Param("projectID") {
		response.Error(c, errors.ErrNotFound)
		return nil, false
	}
	return survey, true
}

// GET /api/projects/:projectID/surveys
func (h *SurveyHandler) List(c *gin.Context) {
	surveys, err := h.svc.List(requestContext(c), c.Param("projectID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, surveys)
}

// POST /api/projects/:projectID/surveys
func (h *SurveyHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body createSurveyRequest
	if !bindAndValidate(c, &body) {
		return
	}

	survey, err := h.svc.Create(requestContext(c), c.Param("projectID"), services.CreateSurveyInput{
		Title:       strings.TrimSpace(body.Title),
		Description: strings.TrimSpace(body.Description),
		Questions:   body.Questions,
		CreatedBy:   userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, survey)
}

// GET /api/projects/:projectID/surveys/:surveyID
func (h *SurveyHandler) Get(c *gin.Context) {
	survey, ok := h.surveyInProject(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, survey)
}

// PATCH /api/projects/:projectID/surveys/:surveyID/status
func (h *SurveyHandler) SetStatus(c *gin.Context) {
	if _, ok := h.surveyInProject(c); !ok {
		return
	}

	var body surveyStatusRequest
	if !bindAndValidate(c, &body) {
		return
	}

	survey, err := h.svc.SetStatus(requestContext(c), c.Param("surveyID"), body.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, survey)
}

// POST /api/projects/:projectID/surveys/:surveyID/responses
//
// Responding is reachable with read access: surveys exist to collect answers
// from customers and clients, so this is the one write their roles permit.
func (h *SurveyHandler) Respond(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if _, ok := h.surveyInProject(c); !ok {
		return
	}

	var body surveyResponseRequest
	if !bindAndValidate(c, &body) {
		return
	}

	resp, err := h.svc.Respond(requestContext(c), c.Param("surveyID"), userID, body.Answers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// GET /api/projects/:projectID/surveys/:surveyID/responses
func (h *SurveyHandler) ListResponses(c *gin.Context) {
	if _, ok := h.surveyInProject(c); !ok {
		return
	}

	responses, err := h.svc.ListResponses(requestContext(c), c.Param("surveyID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, responses)
}

// DELETE /api/projects/:projectID/surveys/:surveyID
func (h *SurveyHandler) Delete(c *gin.Context) {
	if _, ok := h.surveyInProject(c); !ok {
		return
	}

	if err := h.svc.Delete(requestContext(c), c.Param("surveyID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

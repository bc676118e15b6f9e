package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	apperrors "github.com/vibeplanner/vibeplanner/pkg/errors"
)

var (
	// ErrSurveyNotFound indicates the requested survey does not exist.
	ErrSurveyNotFound = apperrors.New("SURVEY_NOT_FOUND", "Survey not found", http.StatusNotFound)
	// ErrSurveyClosed signals a response against a survey that is not open.
	ErrSurveyClosed = apperrors.New("SURVEY_NOT_OPEN", "Survey is not accepting responses", http.StatusConflict)
	// ErrAlreadyResponded signals a duplicate response from one respondent.
	ErrAlreadyResponded = apperrors.New("SURVEY_ALREADY_RESPONDED", "Survey response already submitted", http.StatusConflict)
)

// CreateSurveyInput captures new survey fields. Questions is an arbitrary
// JSON document shaped by the frontend form builder.
type CreateSurveyInput struct {
	Title       string
	Description string
	Questions   json.RawMessage
	CreatedBy   string
}

// SurveyService manages project surveys and their responses. Responding is
// the one write a read-only role is allowed, which is why it lives here
// rather than behind the generic write gate.
type SurveyService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewSurveyService constructs a SurveyService instance.
func NewSurveyService(db *gorm.DB, auditService *AuditService) (*SurveyService, error) {
	if db == nil {
		return nil, errors.New("survey service: db is required")
	}
	return &SurveyService{db: db, auditService: auditService}, nil
}

// Create registers a draft survey under the project.
func (s *SurveyService) Create(ctx context.Context, projectID string, input CreateSurveyInput) (*models.Survey, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("survey title is required")
	}

	survey := &models.Survey{
		ProjectID:   strings.TrimSpace(projectID),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      models.SurveyStatusDraft,
		Questions:   []byte(input.Questions),
		CreatedBy:   strings.TrimSpace(input.CreatedBy),
	}

	if err := s.db.WithContext(ctx).Create(survey).Error; err != nil {
		return nil, fmt.Errorf("survey service: create survey: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   projectTeamID(ctx, s.db, survey.ProjectID),
		Action:   "survey.create",
		Resource: survey.ID,
		Result:   "success",
		Metadata: map[string]any{"project_id": survey.ProjectID},
	})

	return survey, nil
}

// Get loads a survey by id.
func (s *SurveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	ctx = ensureContext(ctx)

	var survey models.Survey
	err := s.db.WithContext(ctx).First(&survey, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("survey service: load survey: %w", err)
	}
	return &survey, nil
}

// List returns the project's surveys.
func (s *SurveyService) List(ctx context.Context, projectID string) ([]models.Survey, error) {
	ctx = ensureContext(ctx)

	var surveys []models.Survey
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&surveys).Error
	if err != nil {
		return nil, fmt.Errorf("survey service: list surveys: %w", err)
	}
	return surveys, nil
}

// SetStatus transitions a survey between draft, open, and closed.
func (s *SurveyService) SetStatus(ctx context.Context, id, status string) (*models.Survey, error) {
	ctx = ensureContext(ctx)

	status = strings.TrimSpace(status)
	switch status {
	case models.SurveyStatusDraft, models.SurveyStatusOpen, models.SurveyStatusClosed:
	default:
		return nil, apperrors.NewBadRequest("unknown survey status")
	}

	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if survey.Status != status {
		if err := s.db.WithContext(ctx).Model(survey).Update("status", status).Error; err != nil {
			return nil, fmt.Errorf("survey service: update status: %w", err)
		}
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   projectTeamID(ctx, s.db, survey.ProjectID),
		Action:   "survey.status",
		Resource: survey.ID,
		Result:   "success",
		Metadata: map[string]any{"status": status},
	})

	return survey, nil
}

// Respond records one respondent's answers. Each respondent may answer an
// open survey exactly once.
func (s *SurveyService) Respond(ctx context.Context, surveyID, respondentID string, answers json.RawMessage) (*models.SurveyResponse, error) {
	ctx = ensureContext(ctx)

	respondentID = strings.TrimSpace(respondentID)
	if respondentID == "" {
		return nil, apperrors.NewBadRequest("respondent id is required")
	}

	survey, err := s.Get(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.Status != models.SurveyStatusOpen {
		return nil, ErrSurveyClosed
	}

	response := &models.SurveyResponse{
		SurveyID:     survey.ID,
		RespondentID: respondentID,
		Answers:      []byte(answers),
	}

	if err := s.db.WithContext(ctx).Create(response).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAlreadyResponded
		}
		return nil, fmt.Errorf("survey service: create response: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   projectTeamID(ctx, s.db, survey.ProjectID),
		Action:   "survey.respond",
		Resource: survey.ID,
		Result:   "success",
	})

	return response, nil
}

// ListResponses returns all responses for a survey.
func (s *SurveyService) ListResponses(ctx context.Context, surveyID string) ([]models.SurveyResponse, error) {
	ctx = ensureContext(ctx)

	var responses []models.SurveyResponse
	err := s.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("survey service: list responses: %w", err)
	}
	return responses, nil
}

// Delete removes a survey and its responses.
func (s *SurveyService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	survey, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Survey{}, "id = ?", survey.ID)
	if result.Error != nil {
		return fmt.Errorf("survey service: delete survey: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSurveyNotFound
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   projectTeamID(ctx, s.db, survey.ProjectID),
		Action:   "survey.delete",
		Resource: survey.ID,
		Result:   "success",
	})

	return nil
}

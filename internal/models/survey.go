package models

import "gorm.io/datatypes"

// Survey statuses.
const (
	SurveyStatusDraft  = "draft"
	SurveyStatusOpen   = "open"
	SurveyStatusClosed = "closed"
)

// Survey is a project-scoped questionnaire. Questions are stored as a JSON
// document; answers live in SurveyResponse rows keyed by respondent.
type Survey struct {
	BaseModel

	ProjectID string   `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project `gorm:"constraint:OnDelete:CASCADE" json:"project,omitempty"`

	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Status      string         `gorm:"default:draft" json:"status"`
	Questions   datatypes.JSON `json:"questions"`

	CreatedBy string `json:"created_by"`
}

// SurveyResponse stores one respondent's answers to a survey.
type SurveyResponse struct {
	BaseModel

	SurveyID string  `gorm:"type:uuid;not null;uniqueIndex:idx_survey_respondent;index" json:"survey_id"`
	Survey   *Survey `gorm:"constraint:OnDelete:CASCADE" json:"survey,omitempty"`

	RespondentID string         `gorm:"not null;uniqueIndex:idx_survey_respondent" json:"respondent_id"`
	Answers      datatypes.JSON `json:"answers"`
}

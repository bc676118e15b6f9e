package models

import (
	"time"

	"gorm.io/datatypes"
)

// Invitation represents a pending offer to join a team with a specific role
// and optional project scope. The raw token is never stored; only its hash.
type Invitation struct {
	BaseModel

	TeamID string `gorm:"type:uuid;not null;index" json:"team_id"`
	Team   *Team  `gorm:"constraint:OnDelete:CASCADE" json:"team,omitempty"`

	Email      string                      `gorm:"not null;index" json:"email"`
	Role       string                      `gorm:"not null" json:"role"`
	ProjectIDs datatypes.JSONSlice[string] `json:"project_ids,omitempty"`

	TokenHash  string     `gorm:"not null;uniqueIndex" json:"-"`
	InvitedBy  string     `json:"invited_by"`
	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy string     `json:"accepted_by,omitempty"`
}

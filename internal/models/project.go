package models

import "time"

// Project statuses mirror the planning board columns.
const (
	ProjectStatusPlanned   = "planned"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
)

// Project belongs to exactly one team; the owning reference never changes.
type Project struct {
	BaseModel

	TeamID string `gorm:"type:uuid;not null;uniqueIndex:idx_team_slug;index" json:"team_id"`
	Team   *Team  `json:"team,omitempty"`

	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"not null;uniqueIndex:idx_team_slug" json:"slug"`
	Description string `json:"description"`
	Status      string `gorm:"default:planned" json:"status"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// The cascade lives on this side: gorm derives the tasks foreign key
	// from the has-many association, not from Task.Project.
	Tasks []Task `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}

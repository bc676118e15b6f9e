package models

import "time"

// Task statuses and priorities.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusInReview   = "in_review"
	TaskStatusDone       = "done"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Task belongs to exactly one project. It carries no access rule of its own;
// authorization is always resolved through the owning project's team.
type Task struct {
	BaseModel

	ProjectID string   `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project `json:"project,omitempty"`

	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Status      string `gorm:"default:todo;index" json:"status"`
	Priority    string `gorm:"default:medium" json:"priority"`

	// AssigneeID is an external user identifier; it may reference a user
	// whose membership has since been deactivated.
	AssigneeID string     `gorm:"index" json:"assignee_id,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	CreatedBy  string     `json:"created_by"`
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/models"
	apperrors "github.com/vibeplanner/vibeplanner/pkg/errors"
)

// ErrTaskNotFound indicates the requested task does not exist.
var ErrTaskNotFound = apperrors.New("TASK_NOT_FOUND", "Task not found", http.StatusNotFound)

// CreateTaskInput captures new task fields.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	AssigneeID  string
	DueDate     *time.Time
	CreatedBy   string
}

// UpdateTaskInput describes mutable task fields.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssigneeID  *string
	DueDate     *time.Time
}

// TaskListOptions filters task listings within a project.
type TaskListOptions struct {
	Status     string
	AssigneeID string
}

// TaskService handles task lifecycle within a project.
type TaskService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(db *gorm.DB, auditService *AuditService) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	return &TaskService{db: db, auditService: auditService}, nil
}

// Create registers a new task under the project.
func (s *TaskService) Create(ctx context.Context, projectID string, input CreateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("task title is required")
	}

	priority := strings.TrimSpace(input.Priority)
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !validTaskPriority(priority) {
		return nil, apperrors.NewBadRequest("unknown task priority")
	}

	task := &models.Task{
		ProjectID:   strings.TrimSpace(projectID),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      models.TaskStatusTodo,
		Priority:    priority,
		AssigneeID:  strings.TrimSpace(input.AssigneeID),
		DueDate:     input.DueDate,
		CreatedBy:   strings.TrimSpace(input.CreatedBy),
	}

	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("task service: create task: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   projectTeamID(ctx, s.db, task.ProjectID),
		Action:   "task.create",
		Resource: task.ID,
		Result:   "success",
		Metadata: map[string]any{"project_id": task.ProjectID},
	})

	return task, nil
}

// Get loads a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	ctx = ensureContext(ctx)

	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: load task: %w", err)
	}
	return &task, nil
}

// List returns the project's tasks, optionally filtered.
func (s *TaskService) List(ctx context.Context, projectID string, opts TaskListOptions) ([]models.Task, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Where("project_id = ?", projectID)
	if status := strings.TrimSpace(opts.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if assignee := strings.TrimSpace(opts.AssigneeID); assignee != "" {
		query = query.Where("assignee_id = ?", assignee)
	}

	var tasks []models.Task
	if err := query.Order("created_at").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task service: list tasks: %w", err)
	}
	return tasks, nil
}

// Update modifies task fields.
func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			updates["title"] = title
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if !validTaskStatus(status) {
			return nil, apperrors.NewBadRequest("unknown task status")
		}
		updates["status"] = status
	}
	if input.Priority != nil {
		priority := strings.TrimSpace(*input.Priority)
		if !validTaskPriority(priority) {
			return nil, apperrors.NewBadRequest("unknown task priority")
		}
		updates["priority"] = priority
	}
	if input.AssigneeID != nil {
		updates["assignee_id"] = strings.TrimSpace(*input.AssigneeID)
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}

	if len(updates) == 0 {
		return task, nil
	}

	if err := s.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("task service: update task: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   projectTeamID(ctx, s.db, task.ProjectID),
		Action:   "task.update",
		Resource: task.ID,
		Result:   "success",
	})

	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", task.ID)
	if result.Error != nil {
		return fmt.Errorf("task service: delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		TeamID:   projectTeamID(ctx, s.db, task.ProjectID),
		Action:   "task.delete",
		Resource: task.ID,
		Result:   "success",
	})

	return nil
}

func validTaskStatus(status string) bool {
	switch status {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusInReview, models.TaskStatusDone:
		return true
	default:
		return false
	}
}

func validTaskPriority(priority string) bool {
	switch priority {
	case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh, models.TaskPriorityUrgent:
		return true
	default:
		return false
	}
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

type TaskHandler struct {
	svc *services.TaskService
}

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=256"`
	Description string     `json:"description" validate:"omitempty,max=4096"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  string     `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=256"`
	Description *string    `json:"description" validate:"omitempty,max=4096"`
	Status      *string    `json:"status" validate:"omitempty,oneof=todo in_progress in_review done"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *string    `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

func NewTaskHandler(db *gorm.DB) (*TaskHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewTaskService(db, audit)
	if err != nil {
		return nil, err
	}
	return &TaskHandler{svc: svc}, nil
}

// GET /api/projects/:projectID/tasks
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.svc.List(requestContext(c), c.Param("projectID"), services.TaskListOptions{
		Status:     strings.TrimSpace(c.Query("status")),
		AssigneeID: strings.TrimSpace(c.Query("assignee_id")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tasks)
}

// POST /api/projects/:projectID/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body createTaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	task, err := h.svc.Create(requestContext(c), c.Param("projectID"), services.CreateTaskInput{
		Title:       strings.TrimSpace(body.Title),
		Description: strings.TrimSpace(body.Description),
		Priority:    strings.TrimSpace(body.Priority),
		AssigneeID:  strings.TrimSpace(body.AssigneeID),
		DueDate:     body.DueDate,
		CreatedBy:   userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, task)
}

// GET /api/tasks/:taskID
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.svc.Get(requestContext(c), c.Param("taskID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// PATCH /api/tasks/:taskID
func (h *TaskHandler) Update(c *gin.Context) {
	var body updateTaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	task, err := h.svc.Update(requestContext(c), c.Param("taskID"), services.UpdateTaskInput{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		AssigneeID:  body.AssigneeID,
		DueDate:     body.DueDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// DELETE /api/tasks/:taskID
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), c.Param("taskID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

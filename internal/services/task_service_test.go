package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vibeplanner/vibeplanner/internal/models"
)

func TestTaskServiceLifecycle(t *testing.T) {
	db := openServiceTestDB(t)
	taskSvc, err := NewTaskService(db, newAuditService(t, db))
	require.NoError(t, err)

	ctx := context.Background()

	team := models.Team{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&team).Error)
	project := createTestProject(t, db, team.ID, "website")

	task, err := taskSvc.Create(ctx, project.ID, CreateTaskInput{
		Title:     "Draft homepage copy",
		CreatedBy: "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusTodo, task.Status)
	require.Equal(t, models.TaskPriorityMedium, task.Priority)

	status := models.TaskStatusInProgress
	assignee := "user-2"
	updated, err := taskSvc.Update(ctx, task.ID, UpdateTaskInput{Status: &status, AssigneeID: &assignee})
	require.NoError(t, err)

	found, err := taskSvc.Get(ctx, updated.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusInProgress, found.Status)
	require.Equal(t, "user-2", found.AssigneeID)

	tasks, err := taskSvc.List(ctx, project.ID, TaskListOptions{Status: models.TaskStatusInProgress})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	tasks, err = taskSvc.List(ctx, project.ID, TaskListOptions{AssigneeID: "nobody"})
	require.NoError(t, err)
	require.Empty(t, tasks)

	require.NoError(t, taskSvc.Delete(ctx, task.ID))
	require.ErrorIs(t, taskSvc.Delete(ctx, task.ID), ErrTaskNotFound)
}

func TestTaskServiceValidation(t *testing.T) {
	db := openServiceTestDB(t)
	taskSvc, err := NewTaskService(db, newAuditService(t, db))
	require.NoError(t, err)

	ctx := context.Background()

	team := models.Team{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&team).Error)
	project := createTestProject(t, db, team.ID, "website")

	_, err = taskSvc.Create(ctx, project.ID, CreateTaskInput{Title: "  "})
	require.Error(t, err)

	_, err = taskSvc.Create(ctx, project.ID, CreateTaskInput{Title: "ok", Priority: "severe"})
	require.Error(t, err)

	task, err := taskSvc.Create(ctx, project.ID, CreateTaskInput{Title: "ok", Priority: "urgent"})
	require.NoError(t, err)

	bad := "paused"
	_, err = taskSvc.Update(ctx, task.ID, UpdateTaskInput{Status: &bad})
	require.Error(t, err)
}

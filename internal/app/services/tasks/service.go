// Package tasks manages task CRUD within a user's projects.
package tasks

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/taskflow-app/taskflow/internal/errors"

	"github.com/taskflow-app/taskflow/internal/app/domain/task"
	"github.com/taskflow-app/taskflow/internal/app/storage"
	"github.com/taskflow-app/taskflow/pkg/logger"
)

// Service manages tasks. Creation verifies the parent project is owned by
// the caller; everything else is scoped by the store lookups.
type Service struct {
	store    storage.TaskStore
	projects storage.ProjectStore
	log      *logger.Logger
}

// New constructs a task service.
func New(store storage.TaskStore, projects storage.ProjectStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tasks")
	}
	return &Service{store: store, projects: projects, log: log}
}

// CreateInput carries the fields accepted when creating a task.
type CreateInput struct {
	ProjectID   string
	Title       string
	Description string
	Status      string
}

// Create validates and persists a new task under an owned project.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (task.Task, error) {
	if _, err := s.projects.GetProject(ctx, in.ProjectID, owner); err != nil {
		return task.Task{}, notFound(err, "project not found")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return task.Task{}, apperrors.Validation("title is required")
	}

	status := task.Status(in.Status)
	if in.Status == "" {
		status = task.StatusPending
	} else if !status.Valid() {
		return task.Task{}, apperrors.Validation("status must be pending, in-progress or done")
	}

	created, err := s.store.CreateTask(ctx, task.Task{
		Owner:       owner,
		Project:     in.ProjectID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
	})
	if err != nil {
		return task.Task{}, apperrors.Internal("", err)
	}
	s.log.WithField("task_id", created.ID).WithField("project_id", in.ProjectID).Info("task created")
	return created, nil
}

// ListByProject returns the tasks of an owned project.
func (s *Service) ListByProject(ctx context.Context, owner, projectID string) ([]task.Task, error) {
	if _, err := s.projects.GetProject(ctx, projectID, owner); err != nil {
		return nil, notFound(err, "project not found")
	}
	list, err := s.store.ListTasks(ctx, projectID, owner)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	return list, nil
}

// UpdateInput carries the optional fields of a partial task update.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
}

// Update applies a partial update to an owned task.
func (s *Service) Update(ctx context.Context, owner, id string, in UpdateInput) (task.Task, error) {
	t, err := s.store.GetTask(ctx, id, owner)
	if err != nil {
		return task.Task{}, notFound(err, "task not found")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return task.Task{}, apperrors.Validation("title is required")
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		status := task.Status(*in.Status)
		if !status.Valid() {
			return task.Task{}, apperrors.Validation("status must be pending, in-progress or done")
		}
		t.Status = status
	}

	updated, err := s.store.UpdateTask(ctx, t)
	if err != nil {
		return task.Task{}, notFound(err, "task not found")
	}
	return updated, nil
}

// Delete removes an owned task.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteTask(ctx, id, owner); err != nil {
		return notFound(err, "task not found")
	}
	return nil
}

// Summary aggregates the owner's tasks by status for the dashboard.
func (s *Service) Summary(ctx context.Context, owner string) (task.Summary, error) {
	sum, err := s.store.CountTasksByStatus(ctx, owner)
	if err != nil {
		return task.Summary{}, apperrors.Internal("", err)
	}
	return sum, nil
}

func notFound(err error, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound(message)
	}
	return apperrors.Internal("", err)
}

// Package projects manages project CRUD scoped to the owning user.
package projects

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/taskflow-app/taskflow/internal/errors"

	"github.com/taskflow-app/taskflow/internal/app/domain/habit"
	"github.com/taskflow-app/taskflow/internal/app/domain/project"
	"github.com/taskflow-app/taskflow/internal/app/storage"
	"github.com/taskflow-app/taskflow/pkg/logger"
)

// Service manages projects and the cascade to their tasks.
type Service struct {
	store storage.ProjectStore
	tasks storage.TaskStore
	log   *logger.Logger
}

// New constructs a project service. The task store is needed so deleting a
// project can take its tasks with it.
func New(store storage.ProjectStore, tasks storage.TaskStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("projects")
	}
	return &Service{store: store, tasks: tasks, log: log}
}

// CreateInput carries the fields accepted when creating a project.
type CreateInput struct {
	Title       string
	Description string
	StartDate   string
	EndDate     string
}

// Create validates and persists a new project for owner.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (project.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return project.Project{}, apperrors.Validation("title is required")
	}
	if err := validateDate(in.StartDate); err != nil {
		return project.Project{}, err
	}
	if err := validateDate(in.EndDate); err != nil {
		return project.Project{}, err
	}

	created, err := s.store.CreateProject(ctx, project.Project{
		Owner:       owner,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	})
	if err != nil {
		return project.Project{}, apperrors.Internal("", err)
	}
	s.log.WithField("project_id", created.ID).WithField("owner", owner).Info("project created")
	return created, nil
}

// List returns the owner's projects, newest first.
func (s *Service) List(ctx context.Context, owner string) ([]project.Project, error) {
	list, err := s.store.ListProjects(ctx, owner)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	return list, nil
}

// UpdateInput carries the optional fields of a partial project update.
type UpdateInput struct {
	Title       *string
	Description *string
	StartDate   *string
	EndDate     *string
}

// Update applies a partial update to an owned project.
func (s *Service) Update(ctx context.Context, owner, id string, in UpdateInput) (project.Project, error) {
	p, err := s.store.GetProject(ctx, id, owner)
	if err != nil {
		return project.Project{}, notFound(err, "project not found")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return project.Project{}, apperrors.Validation("title is required")
		}
		p.Title = title
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.StartDate != nil {
		if err := validateDate(*in.StartDate); err != nil {
			return project.Project{}, err
		}
		p.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		if err := validateDate(*in.EndDate); err != nil {
			return project.Project{}, err
		}
		p.EndDate = *in.EndDate
	}

	updated, err := s.store.UpdateProject(ctx, p)
	if err != nil {
		return project.Project{}, notFound(err, "project not found")
	}
	return updated, nil
}

// Delete removes an owned project together with every task that references
// it. Tasks of other users or other projects are untouched.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.store.GetProject(ctx, id, owner); err != nil {
		return notFound(err, "project not found")
	}

	if err := s.tasks.DeleteTasksByProject(ctx, id, owner); err != nil {
		return apperrors.Internal("", err)
	}
	if err := s.store.DeleteProject(ctx, id, owner); err != nil {
		return notFound(err, "project not found")
	}

	s.log.WithField("project_id", id).WithField("owner", owner).Info("project deleted with tasks")
	return nil
}

// validateDate accepts an empty string (unset) or a strict calendar date.
func validateDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := habit.ParseDay(s); err != nil {
		return apperrors.Validation("dates must be YYYY-MM-DD")
	}
	return nil
}

func notFound(err error, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound(message)
	}
	return apperrors.Internal("", err)
}

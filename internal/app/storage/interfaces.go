// Package storage defines the persistence interfaces consumed by the
// TaskFlow services. Lookups are scoped to the owning user wherever a
// resource has one, so a missing record and a record owned by someone else
// are indistinguishable to callers.
package storage

import (
	"context"
	"errors"

	"github.com/taskflow-app/taskflow/internal/app/domain/habit"
	"github.com/taskflow-app/taskflow/internal/app/domain/project"
	"github.com/taskflow-app/taskflow/internal/app/domain/task"
	"github.com/taskflow-app/taskflow/internal/app/domain/user"
)

// ErrNotFound is returned when a record is absent or not owned by the caller.
var ErrNotFound = errors.New("not found")

// UserStore persists user identities.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

// ProjectStore persists projects scoped to their owner.
type ProjectStore interface {
	CreateProject(ctx context.Context, p project.Project) (project.Project, error)
	UpdateProject(ctx context.Context, p project.Project) (project.Project, error)
	GetProject(ctx context.Context, id, owner string) (project.Project, error)
	ListProjects(ctx context.Context, owner string) ([]project.Project, error)
	DeleteProject(ctx context.Context, id, owner string) error
}

// TaskStore persists tasks scoped to their owner and parent project.
type TaskStore interface {
	CreateTask(ctx context.Context, t task.Task) (task.Task, error)
	UpdateTask(ctx context.Context, t task.Task) (task.Task, error)
	GetTask(ctx context.Context, id, owner string) (task.Task, error)
	ListTasks(ctx context.Context, projectID, owner string) ([]task.Task, error)
	DeleteTask(ctx context.Context, id, owner string) error
	DeleteTasksByProject(ctx context.Context, projectID, owner string) error
	CountTasksByStatus(ctx context.Context, owner string) (task.Summary, error)
}

// HabitStore persists habits and their done-date sets.
type HabitStore interface {
	CreateHabit(ctx context.Context, h habit.Habit) (habit.Habit, error)
	UpdateHabit(ctx context.Context, h habit.Habit) (habit.Habit, error)
	GetHabit(ctx context.Context, id, owner string) (habit.Habit, error)
	ListHabits(ctx context.Context, owner string) ([]habit.Habit, error)
	DeleteHabit(ctx context.Context, id, owner string) error
}

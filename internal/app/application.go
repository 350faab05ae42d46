// Package app ties the TaskFlow domain services together over pluggable
// stores.
package app

import (
	"github.com/taskflow-app/taskflow/internal/app/services/auth"
	"github.com/taskflow-app/taskflow/internal/app/services/habits"
	"github.com/taskflow-app/taskflow/internal/app/services/projects"
	"github.com/taskflow-app/taskflow/internal/app/services/tasks"
	"github.com/taskflow-app/taskflow/internal/app/storage"
	"github.com/taskflow-app/taskflow/internal/app/storage/memory"
	"github.com/taskflow-app/taskflow/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users    storage.UserStore
	Projects storage.ProjectStore
	Tasks    storage.TaskStore
	Habits   storage.HabitStore
}

// Application exposes the wired domain services.
type Application struct {
	log *logger.Logger

	Auth     *auth.Service
	Projects *projects.Service
	Tasks    *tasks.Service
	Habits   *habits.Service
}

// Config carries the application-level settings the services need.
type Config struct {
	JWTSecret string
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, cfg Config, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Projects == nil {
		stores.Projects = mem
	}
	if stores.Tasks == nil {
		stores.Tasks = mem
	}
	if stores.Habits == nil {
		stores.Habits = mem
	}

	return &Application{
		log:      log,
		Auth:     auth.New(stores.Users, cfg.JWTSecret, log.WithField("component", "auth")),
		Projects: projects.New(stores.Projects, stores.Tasks, log.WithField("component", "projects")),
		Tasks:    tasks.New(stores.Tasks, stores.Projects, log.WithField("component", "tasks")),
		Habits:   habits.New(stores.Habits, log.WithField("component", "habits")),
	}
}

// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/taskflow-app/taskflow/internal/app/domain/habit"
	"github.com/taskflow-app/taskflow/internal/app/domain/project"
	"github.com/taskflow-app/taskflow/internal/app/domain/task"
	"github.com/taskflow-app/taskflow/internal/app/domain/user"
	"github.com/taskflow-app/taskflow/internal/app/storage"
)

// Store implements the storage interfaces over a database/sql handle.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ProjectStore = (*Store)(nil)
var _ storage.TaskStore = (*Store)(nil)
var _ storage.HabitStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the TaskFlow tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS taskflow_users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS taskflow_projects (
			id          TEXT PRIMARY KEY,
			owner       TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_date  TEXT NOT NULL DEFAULT '',
			end_date    TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS taskflow_tasks (
			id          TEXT PRIMARY KEY,
			owner       TEXT NOT NULL,
			project     TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'pending',
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS taskflow_habits (
			id         TEXT PRIMARY KEY,
			owner      TEXT NOT NULL,
			name       TEXT NOT NULL,
			done_dates TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS taskflow_projects_owner_idx ON taskflow_projects (owner);
		CREATE INDEX IF NOT EXISTS taskflow_tasks_owner_idx ON taskflow_tasks (owner, project);
		CREATE INDEX IF NOT EXISTS taskflow_habits_owner_idx ON taskflow_habits (owner);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// --- UserStore ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO taskflow_users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM taskflow_users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM taskflow_users
		WHERE email = lower($1)
	`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// --- ProjectStore ------------------------------------------------------------

func (s *Store) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO taskflow_projects (id, owner, title, description, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Owner, p.Title, p.Description, p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, p project.Project) (project.Project, error) {
	p.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE taskflow_projects
		SET title = $3, description = $4, start_date = $5, end_date = $6, updated_at = $7
		WHERE id = $1 AND owner = $2
	`, p.ID, p.Owner, p.Title, p.Description, p.StartDate, p.EndDate, p.UpdatedAt)
	if err != nil {
		return project.Project{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return project.Project{}, storage.ErrNotFound
	}
	return s.GetProject(ctx, p.ID, p.Owner)
}

func (s *Store) GetProject(ctx context.Context, id, owner string) (project.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, title, description, start_date, end_date, created_at, updated_at
		FROM taskflow_projects
		WHERE id = $1 AND owner = $2
	`, id, owner)

	var p project.Project
	err := row.Scan(&p.ID, &p.Owner, &p.Title, &p.Description, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, storage.ErrNotFound
	}
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, owner string) ([]project.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, title, description, start_date, end_date, created_at, updated_at
		FROM taskflow_projects
		WHERE owner = $1
		ORDER BY created_at DESC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]project.Project, 0)
	for rows.Next() {
		var p project.Project
		if err := rows.Scan(&p.ID, &p.Owner, &p.Title, &p.Description, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id, owner string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM taskflow_projects WHERE id = $1 AND owner = $2
	`, id, owner)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- TaskStore ---------------------------------------------------------------

func (s *Store) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO taskflow_tasks (id, owner, project, title, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.Owner, t.Project, t.Title, t.Description, string(t.Status), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (s *Store) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE taskflow_tasks
		SET title = $3, description = $4, status = $5, updated_at = $6
		WHERE id = $1 AND owner = $2
	`, t.ID, t.Owner, t.Title, t.Description, string(t.Status), t.UpdatedAt)
	if err != nil {
		return task.Task{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return task.Task{}, storage.ErrNotFound
	}
	return s.GetTask(ctx, t.ID, t.Owner)
}

func (s *Store) GetTask(ctx context.Context, id, owner string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, project, title, description, status, created_at, updated_at
		FROM taskflow_tasks
		WHERE id = $1 AND owner = $2
	`, id, owner)

	var t task.Task
	err := row.Scan(&t.ID, &t.Owner, &t.Project, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, projectID, owner string) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, project, title, description, status, created_at, updated_at
		FROM taskflow_tasks
		WHERE project = $1 AND owner = $2
		ORDER BY created_at ASC
	`, projectID, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]task.Task, 0)
	for rows.Next() {
		var t task.Task
		if err := rows.Scan(&t.ID, &t.Owner, &t.Project, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) DeleteTask(ctx context.Context, id, owner string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM taskflow_tasks WHERE id = $1 AND owner = $2
	`, id, owner)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTasksByProject(ctx context.Context, projectID, owner string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM taskflow_tasks WHERE project = $1 AND owner = $2
	`, projectID, owner)
	return err
}

func (s *Store) CountTasksByStatus(ctx context.Context, owner string) (task.Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in-progress'),
			COUNT(*) FILTER (WHERE status = 'done')
		FROM taskflow_tasks
		WHERE owner = $1
	`, owner)

	var sum task.Summary
	if err := row.Scan(&sum.Total, &sum.Pending, &sum.InProgress, &sum.Done); err != nil {
		return task.Summary{}, err
	}
	return sum, nil
}

// --- HabitStore --------------------------------------------------------------

func (s *Store) CreateHabit(ctx context.Context, h habit.Habit) (habit.Habit, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now
	if h.DoneDates == nil {
		h.DoneDates = []string{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO taskflow_habits (id, owner, name, done_dates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, h.ID, h.Owner, h.Name, pq.Array(h.DoneDates), h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return habit.Habit{}, err
	}
	return h, nil
}

func (s *Store) UpdateHabit(ctx context.Context, h habit.Habit) (habit.Habit, error) {
	h.UpdatedAt = time.Now().UTC()
	if h.DoneDates == nil {
		h.DoneDates = []string{}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE taskflow_habits
		SET name = $3, done_dates = $4, updated_at = $5
		WHERE id = $1 AND owner = $2
	`, h.ID, h.Owner, h.Name, pq.Array(h.DoneDates), h.UpdatedAt)
	if err != nil {
		return habit.Habit{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return habit.Habit{}, storage.ErrNotFound
	}
	return s.GetHabit(ctx, h.ID, h.Owner)
}

func (s *Store) GetHabit(ctx context.Context, id, owner string) (habit.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, name, done_dates, created_at, updated_at
		FROM taskflow_habits
		WHERE id = $1 AND owner = $2
	`, id, owner)

	var h habit.Habit
	var dates pq.StringArray
	err := row.Scan(&h.ID, &h.Owner, &h.Name, &dates, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return habit.Habit{}, storage.ErrNotFound
	}
	if err != nil {
		return habit.Habit{}, err
	}
	h.DoneDates = []string(dates)
	if h.DoneDates == nil {
		h.DoneDates = []string{}
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context, owner string) ([]habit.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, name, done_dates, created_at, updated_at
		FROM taskflow_habits
		WHERE owner = $1
		ORDER BY created_at DESC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]habit.Habit, 0)
	for rows.Next() {
		var h habit.Habit
		var dates pq.StringArray
		if err := rows.Scan(&h.ID, &h.Owner, &h.Name, &dates, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		h.DoneDates = []string(dates)
		if h.DoneDates == nil {
			h.DoneDates = []string{}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) DeleteHabit(ctx context.Context, id, owner string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM taskflow_habits WHERE id = $1 AND owner = $2
	`, id, owner)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

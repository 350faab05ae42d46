// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development; it is also the default backing store when no
// database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taskflow-app/taskflow/internal/app/domain/habit"
	"github.com/taskflow-app/taskflow/internal/app/domain/project"
	"github.com/taskflow-app/taskflow/internal/app/domain/task"
	"github.com/taskflow-app/taskflow/internal/app/domain/user"
	"github.com/taskflow-app/taskflow/internal/app/storage"
)

// Store is the in-memory store. Records are cloned on the way in and out so
// callers can never alias internal state.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	seq          map[string]int64 // record id -> creation order
	users        map[string]user.User
	usersByEmail map[string]string
	projects     map[string]project.Project
	tasks        map[string]task.Task
	habits       map[string]habit.Habit
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ProjectStore = (*Store)(nil)
var _ storage.TaskStore = (*Store)(nil)
var _ storage.HabitStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		seq:          make(map[string]int64),
		users:        make(map[string]user.User),
		usersByEmail: make(map[string]string),
		projects:     make(map[string]project.Project),
		tasks:        make(map[string]task.Task),
		habits:       make(map[string]habit.Habit),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func (s *Store) recordLocked(id string) {
	s.seq[id] = s.nextID
	s.nextID++
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := s.usersByEmail[email]; exists {
		return user.User{}, fmt.Errorf("user with email %s already exists", email)
	}

	if u.ID == "" {
		u.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	s.recordLocked(u.ID)
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	return s.users[id], nil
}

// ProjectStore implementation -------------------------------------------------

func (s *Store) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.projects[p.ID] = p
	s.recordLocked(p.ID)
	return p, nil
}

func (s *Store) UpdateProject(_ context.Context, p project.Project) (project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.projects[p.ID]
	if !ok || original.Owner != p.Owner {
		return project.Project{}, fmt.Errorf("project %s: %w", p.ID, storage.ErrNotFound)
	}

	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.projects[p.ID] = p
	return p, nil
}

func (s *Store) GetProject(_ context.Context, id, owner string) (project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok || p.Owner != owner {
		return project.Project{}, fmt.Errorf("project %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) ListProjects(_ context.Context, owner string) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]project.Project, 0)
	for _, p := range s.projects {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] > s.seq[out[j].ID] })
	return out, nil
}

func (s *Store) DeleteProject(_ context.Context, id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok || p.Owner != owner {
		return fmt.Errorf("project %s: %w", id, storage.ErrNotFound)
	}
	delete(s.projects, id)
	delete(s.seq, id)
	return nil
}

// TaskStore implementation ----------------------------------------------------

func (s *Store) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	s.tasks[t.ID] = t
	s.recordLocked(t.ID)
	return t, nil
}

func (s *Store) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.tasks[t.ID]
	if !ok || original.Owner != t.Owner {
		return task.Task{}, fmt.Errorf("task %s: %w", t.ID, storage.ErrNotFound)
	}

	t.CreatedAt = original.CreatedAt
	t.Project = original.Project
	t.UpdatedAt = time.Now().UTC()
	s.tasks[t.ID] = t
	return t, nil
}

func (s *Store) GetTask(_ context.Context, id, owner string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.Owner != owner {
		return task.Task{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return t, nil
}

func (s *Store) ListTasks(_ context.Context, projectID, owner string) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0)
	for _, t := range s.tasks {
		if t.Project == projectID && t.Owner == owner {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] < s.seq[out[j].ID] })
	return out, nil
}

func (s *Store) DeleteTask(_ context.Context, id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Owner != owner {
		return fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	delete(s.tasks, id)
	delete(s.seq, id)
	return nil
}

func (s *Store) DeleteTasksByProject(_ context.Context, projectID, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tasks {
		if t.Project == projectID && t.Owner == owner {
			delete(s.tasks, id)
			delete(s.seq, id)
		}
	}
	return nil
}

func (s *Store) CountTasksByStatus(_ context.Context, owner string) (task.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum task.Summary
	for _, t := range s.tasks {
		if t.Owner != owner {
			continue
		}
		sum.Total++
		switch t.Status {
		case task.StatusPending:
			sum.Pending++
		case task.StatusInProgress:
			sum.InProgress++
		case task.StatusDone:
			sum.Done++
		}
	}
	return sum, nil
}

// HabitStore implementation ---------------------------------------------------

func (s *Store) CreateHabit(_ context.Context, h habit.Habit) (habit.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now
	h.DoneDates = cloneDates(h.DoneDates)

	s.habits[h.ID] = h
	s.recordLocked(h.ID)
	return cloneHabit(h), nil
}

func (s *Store) UpdateHabit(_ context.Context, h habit.Habit) (habit.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.habits[h.ID]
	if !ok || original.Owner != h.Owner {
		return habit.Habit{}, fmt.Errorf("habit %s: %w", h.ID, storage.ErrNotFound)
	}

	h.CreatedAt = original.CreatedAt
	h.UpdatedAt = time.Now().UTC()
	h.DoneDates = cloneDates(h.DoneDates)
	s.habits[h.ID] = h
	return cloneHabit(h), nil
}

func (s *Store) GetHabit(_ context.Context, id, owner string) (habit.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[id]
	if !ok || h.Owner != owner {
		return habit.Habit{}, fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
	}
	return cloneHabit(h), nil
}

func (s *Store) ListHabits(_ context.Context, owner string) ([]habit.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]habit.Habit, 0)
	for _, h := range s.habits {
		if h.Owner == owner {
			out = append(out, cloneHabit(h))
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] > s.seq[out[j].ID] })
	return out, nil
}

func (s *Store) DeleteHabit(_ context.Context, id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.habits[id]
	if !ok || h.Owner != owner {
		return fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
	}
	delete(s.habits, id)
	delete(s.seq, id)
	return nil
}

func cloneHabit(h habit.Habit) habit.Habit {
	h.DoneDates = cloneDates(h.DoneDates)
	return h
}

func cloneDates(dates []string) []string {
	if dates == nil {
		return []string{}
	}
	out := make([]string, len(dates))
	copy(out, dates)
	return out
}

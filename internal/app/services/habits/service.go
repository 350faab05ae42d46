// Package habits manages habit CRUD and day toggling. Streaks and month
// grids are computed by the pure calendar functions in the habit domain
// package; this service only orchestrates fetch, compute and persist.
package habits

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/taskflow-app/taskflow/internal/errors"

	"github.com/taskflow-app/taskflow/internal/app/domain/habit"
	"github.com/taskflow-app/taskflow/internal/app/storage"
	"github.com/taskflow-app/taskflow/pkg/logger"
)

// Service manages a user's habits.
type Service struct {
	store storage.HabitStore
	log   *logger.Logger
}

// New constructs a habit service.
func New(store storage.HabitStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("habits")
	}
	return &Service{store: store, log: log}
}

// Create persists a new habit with an empty done-date set.
func (s *Service) Create(ctx context.Context, owner, name string) (habit.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return habit.Habit{}, apperrors.Validation("habit name is required")
	}

	created, err := s.store.CreateHabit(ctx, habit.Habit{
		Owner:     owner,
		Name:      name,
		DoneDates: []string{},
	})
	if err != nil {
		return habit.Habit{}, apperrors.Internal("", err)
	}
	s.log.WithField("habit_id", created.ID).WithField("owner", owner).Info("habit created")
	return created, nil
}

// List returns the owner's habits, newest first, done dates sorted.
func (s *Service) List(ctx context.Context, owner string) ([]habit.Habit, error) {
	list, err := s.store.ListHabits(ctx, owner)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	return list, nil
}

// Get returns a single owned habit.
func (s *Service) Get(ctx context.Context, owner, id string) (habit.Habit, error) {
	h, err := s.store.GetHabit(ctx, id, owner)
	if err != nil {
		return habit.Habit{}, notFound(err)
	}
	return h, nil
}

// Toggle flips one day in an owned habit's done-date set and persists the
// full replacement set. The read-modify-write is not atomic: two
// concurrent toggles of the same habit race and the last writer wins,
// which is accepted for a single-owner resource.
func (s *Service) Toggle(ctx context.Context, owner, id, date string) (habit.Habit, error) {
	if strings.TrimSpace(date) == "" {
		return habit.Habit{}, apperrors.Validation("date is required (YYYY-MM-DD)")
	}

	h, err := s.store.GetHabit(ctx, id, owner)
	if err != nil {
		return habit.Habit{}, notFound(err)
	}

	newDates, err := habit.Toggle(h.DoneDates, date)
	if err != nil {
		return habit.Habit{}, apperrors.Validation("date must be a valid YYYY-MM-DD calendar date")
	}

	h.DoneDates = newDates
	updated, err := s.store.UpdateHabit(ctx, h)
	if err != nil {
		return habit.Habit{}, notFound(err)
	}

	s.log.WithField("habit_id", id).WithField("date", date).Debug("habit day toggled")
	return updated, nil
}

// Delete removes an owned habit and its entire date set.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteHabit(ctx, id, owner); err != nil {
		return notFound(err)
	}
	s.log.WithField("habit_id", id).Info("habit deleted")
	return nil
}

// MonthView is the rendered calendar month for one habit.
type MonthView struct {
	Year    int               `json:"year"`
	Month   int               `json:"month"`
	Days    []habit.GridEntry `json:"days"`
	Count   int               `json:"count"`
	Percent int               `json:"percent"`
}

// MonthGrid materializes the month grid of an owned habit together with the
// completion count and rounded percentage.
func (s *Service) MonthGrid(ctx context.Context, owner, id string, year, month int) (MonthView, error) {
	h, err := s.store.GetHabit(ctx, id, owner)
	if err != nil {
		return MonthView{}, notFound(err)
	}

	grid, err := habit.MonthGrid(h.DoneDates, year, time.Month(month))
	if err != nil {
		return MonthView{}, apperrors.Validation("month must be between 1 and 12")
	}

	count, percent := habit.MonthCompletion(grid)
	return MonthView{Year: year, Month: month, Days: grid, Count: count, Percent: percent}, nil
}

func notFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound("habit not found")
	}
	return apperrors.Internal("", err)
}

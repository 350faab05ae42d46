package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/taskflow-app/taskflow/internal/app/domain/habit"
	"github.com/taskflow-app/taskflow/internal/app/domain/task"
	"github.com/taskflow-app/taskflow/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestGetHabitNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, owner, name, done_dates").
		WithArgs("h1", "u1").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetHabit(context.Background(), "h1", "u1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetHabitScansDateArray(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "owner", "name", "done_dates", "created_at", "updated_at"}).
		AddRow("h1", "u1", "Read", "{2026-01-12,2026-01-13}", now, now)
	mock.ExpectQuery("SELECT id, owner, name, done_dates").
		WithArgs("h1", "u1").
		WillReturnRows(rows)

	h, err := store.GetHabit(context.Background(), "h1", "u1")
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if len(h.DoneDates) != 2 || h.DoneDates[0] != "2026-01-12" || h.DoneDates[1] != "2026-01-13" {
		t.Fatalf("unexpected done dates: %v", h.DoneDates)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetHabitNormalisesNullArray(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "owner", "name", "done_dates", "created_at", "updated_at"}).
		AddRow("h1", "u1", "Read", nil, now, now)
	mock.ExpectQuery("SELECT id, owner, name, done_dates").
		WithArgs("h1", "u1").
		WillReturnRows(rows)

	h, err := store.GetHabit(context.Background(), "h1", "u1")
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if h.DoneDates == nil || len(h.DoneDates) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", h.DoneDates)
	}
}

func TestUpdateHabitUnmatchedRowIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE taskflow_habits").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateHabit(context.Background(), habit.Habit{ID: "h1", Owner: "stranger", Name: "Read"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteProjectUnmatchedRowIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM taskflow_projects").
		WithArgs("p1", "stranger").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteProject(context.Background(), "p1", "stranger")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCountTasksByStatus(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"count", "pending", "in_progress", "done"}).
		AddRow(6, 2, 1, 3)
	mock.ExpectQuery("SELECT").
		WithArgs("u1").
		WillReturnRows(rows)

	sum, err := store.CountTasksByStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	want := task.Summary{Total: 6, Pending: 2, InProgress: 1, Done: 3}
	if sum != want {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

// TestIntegrationPostgres exercises the real schema end to end. It only runs
// when TEST_POSTGRES_DSN points at a reachable database.
func TestIntegrationPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	store := New(db)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	h, err := store.CreateHabit(ctx, habit.Habit{Owner: "it-user", Name: "Stretch"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	defer store.DeleteHabit(ctx, h.ID, h.Owner)

	h.DoneDates = []string{"2026-01-12", "2026-01-13"}
	updated, err := store.UpdateHabit(ctx, h)
	if err != nil {
		t.Fatalf("update habit: %v", err)
	}
	if len(updated.DoneDates) != 2 {
		t.Fatalf("round trip lost dates: %v", updated.DoneDates)
	}

	if _, err := store.GetHabit(ctx, h.ID, "someone-else"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner, got %v", err)
	}
}

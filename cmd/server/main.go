// Command server runs the TaskFlow REST API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/taskflow-app/taskflow/internal/app"
	"github.com/taskflow-app/taskflow/internal/app/httpapi"
	"github.com/taskflow-app/taskflow/internal/app/storage/postgres"
	"github.com/taskflow-app/taskflow/internal/config"
	"github.com/taskflow-app/taskflow/pkg/logger"
)

func main() {
	_ = godotenv.Load() // allow .env for local runs

	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("server").WithError(err).Error("load configuration")
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}).WithField("component", "server")

	stores, db, err := buildStores(cfg)
	if err != nil {
		log.WithError(err).Error("configure stores")
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	application := app.New(stores, app.Config{JWTSecret: cfg.Auth.JWTSecret}, log)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      httpapi.NewHandler(application, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("TaskFlow API listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}

// buildStores returns Postgres-backed stores when a DSN is configured and
// falls back to the in-memory store otherwise.
func buildStores(cfg *config.Config) (app.Stores, *sql.DB, error) {
	if cfg.Database.DSN == "" {
		return app.Stores{}, nil, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return app.Stores{}, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return app.Stores{}, nil, err
	}

	store := postgres.New(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return app.Stores{}, nil, err
	}

	return app.Stores{
		Users:    store,
		Projects: store,
		Tasks:    store,
		Habits:   store,
	}, db, nil
}

// Package httpapi exposes the TaskFlow REST API. Request bodies are decoded
// into explicit per-route payload structs and every error leaving the
// handlers is a ServiceError mapped to its HTTP status.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/taskflow-app/taskflow/internal/errors"

	app "github.com/taskflow-app/taskflow/internal/app"
	"github.com/taskflow-app/taskflow/internal/app/metrics"
	"github.com/taskflow-app/taskflow/internal/app/services/projects"
	"github.com/taskflow-app/taskflow/internal/app/services/tasks"
	"github.com/taskflow-app/taskflow/pkg/logger"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logger.Logger
}

// NewHandler returns the router exposing the TaskFlow REST API.
func NewHandler(application *app.Application, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return metrics.Instrument(routeTemplate, next)
	})

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)

	api := r.PathPrefix("/").Subrouter()
	api.Use(h.requireAuth)

	api.HandleFunc("/habits", h.listHabits).Methods(http.MethodGet)
	api.HandleFunc("/habits", h.createHabit).Methods(http.MethodPost)
	api.HandleFunc("/habits/{habitID}/toggle", h.toggleHabit).Methods(http.MethodPatch)
	api.HandleFunc("/habits/{habitID}/grid", h.habitMonthGrid).Methods(http.MethodGet)
	api.HandleFunc("/habits/{habitID}", h.deleteHabit).Methods(http.MethodDelete)

	api.HandleFunc("/projects", h.listProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", h.createProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{projectID}", h.updateProject).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{projectID}", h.deleteProject).Methods(http.MethodDelete)

	// summary must be registered before the parameterised task routes
	api.HandleFunc("/tasks/summary/me", h.taskSummary).Methods(http.MethodGet)
	api.HandleFunc("/tasks", h.createTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{projectID}", h.listTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{taskID}", h.updateTask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{taskID}", h.deleteTask).Methods(http.MethodDelete)

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "taskflow",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Auth --------------------------------------------------------------------

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	token, u, err := h.app.Auth.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "user registered successfully",
		"token":   token,
		"user":    u,
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	token, u, err := h.app.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "login successful",
		"token":   token,
		"user":    u,
	})
}

// --- Habits ------------------------------------------------------------------

func (h *handler) listHabits(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Habits.List(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) createHabit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	created, err := h.app.Habits.Create(r.Context(), GetUserID(r.Context()), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) toggleHabit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	updated, err := h.app.Habits.Toggle(r.Context(), GetUserID(r.Context()), mux.Vars(r)["habitID"], payload.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) habitMonthGrid(w http.ResponseWriter, r *http.Request) {
	year, errYear := strconv.Atoi(r.URL.Query().Get("year"))
	month, errMonth := strconv.Atoi(r.URL.Query().Get("month"))
	if errYear != nil || errMonth != nil {
		writeError(w, apperrors.Validation("year and month query parameters are required"))
		return
	}

	view, err := h.app.Habits.MonthGrid(r.Context(), GetUserID(r.Context()), mux.Vars(r)["habitID"], year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) deleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Habits.Delete(r.Context(), GetUserID(r.Context()), mux.Vars(r)["habitID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Projects ----------------------------------------------------------------

func (h *handler) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Projects.List(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) createProject(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	created, err := h.app.Projects.Create(r.Context(), GetUserID(r.Context()), projects.CreateInput{
		Title:       payload.Title,
		Description: payload.Description,
		StartDate:   payload.StartDate,
		EndDate:     payload.EndDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		StartDate   *string `json:"startDate"`
		EndDate     *string `json:"endDate"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	updated, err := h.app.Projects.Update(r.Context(), GetUserID(r.Context()), mux.Vars(r)["projectID"], projects.UpdateInput{
		Title:       payload.Title,
		Description: payload.Description,
		StartDate:   payload.StartDate,
		EndDate:     payload.EndDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Projects.Delete(r.Context(), GetUserID(r.Context()), mux.Vars(r)["projectID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Tasks -------------------------------------------------------------------

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProjectID   string `json:"projectId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	created, err := h.app.Tasks.Create(r.Context(), GetUserID(r.Context()), tasks.CreateInput{
		ProjectID:   payload.ProjectID,
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Tasks.ListByProject(r.Context(), GetUserID(r.Context()), mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) updateTask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	updated, err := h.app.Tasks.Update(r.Context(), GetUserID(r.Context()), mux.Vars(r)["taskID"], tasks.UpdateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      payload.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Tasks.Delete(r.Context(), GetUserID(r.Context()), mux.Vars(r)["taskID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) taskSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.app.Tasks.Summary(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// --- Helpers -----------------------------------------------------------------

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps a ServiceError to its status; anything else becomes a
// generic 500 so internals never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	if svcErr := apperrors.GetServiceError(err); svcErr != nil {
		status = svcErr.HTTPStatus
		message = svcErr.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

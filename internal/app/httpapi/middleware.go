package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	apperrors "github.com/taskflow-app/taskflow/internal/errors"
)

type contextKey string

const userIDKey contextKey = "taskflow.user_id"

// GetUserID extracts the authenticated user's ID from the request context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// requireAuth validates the bearer token and resolves it to the acting
// user. Requests without a valid token never reach the handlers.
func (h *handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, apperrors.Unauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, apperrors.Unauthorized("invalid authorization header format"))
			return
		}

		u, err := h.app.Auth.Authenticate(r.Context(), parts[1])
		if err != nil {
			h.log.WithError(err).Debug("token validation failed")
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeTemplate resolves the matched mux route pattern for metric labels.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return ""
}

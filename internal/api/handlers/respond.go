package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/attend/internal/api/pagination"
	"github.com/Togather-Foundation/attend/internal/api/problem"
	"github.com/Togather-Foundation/attend/internal/domain/events"
)

// Resources are wrapped in a data envelope; lists carry page metadata
// alongside.
type itemResponse struct {
	Data any `json:"data"`
}

type listResponse struct {
	Data []map[string]any `json:"data"`
	Meta pagination.Meta  `json:"meta"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, env string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithDetail("The request body is not valid JSON."))
		return false
	}
	return true
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

// writeDomainError maps service errors onto problem responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var verr *events.ValidationError
	switch {
	case errors.As(err, &verr):
		problem.WriteValidation(w, r, verr.Fields, env)
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not Found", err, env,
			problem.WithDetail("Event not found."))
	case errors.Is(err, events.ErrAttendeeNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not Found", err, env,
			problem.WithDetail("Attendee not found."))
	case errors.Is(err, events.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, env,
			problem.WithDetail("This action is unauthorized."))
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}

func writePageError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var perr pagination.PageError
	if errors.As(err, &perr) {
		problem.WriteValidation(w, r, map[string][]string{perr.Field: {perr.Message}}, env)
		return
	}
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env)
}

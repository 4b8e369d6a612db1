package handlers

import (
	"net/http"
	"strings"

	"github.com/Togather-Foundation/attend/internal/api/middleware"
	"github.com/Togather-Foundation/attend/internal/api/pagination"
	"github.com/Togather-Foundation/attend/internal/api/problem"
	"github.com/Togather-Foundation/attend/internal/domain/events"
	"github.com/Togather-Foundation/attend/internal/domain/ids"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		writePageError(w, r, err, h.Env)
		return
	}
	inc := events.EventIncludesFromQuery(r.URL.Query())

	result, err := h.Service.List(r.Context(), inc, page)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	items := make([]map[string]any, 0, len(result.Events))
	for i := range result.Events {
		items = append(items, events.ProjectEvent(&result.Events[i], inc))
	}
	writeJSON(w, http.StatusOK, listResponse{Data: items, Meta: page.MetaFor(result.Total)})
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input events.CreateInput
	if !decodeJSON(w, r, &input, h.Env) {
		return
	}
	inc := events.EventIncludesFromQuery(r.URL.Query())

	event, err := h.Service.Create(r.Context(), middleware.CurrentUserID(r), input, inc)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{Data: events.ProjectEvent(event, inc)})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r, h.Env)
	if !ok {
		return
	}
	inc := events.EventIncludesFromQuery(r.URL.Query())

	event, err := h.Service.Get(r.Context(), id, inc)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Data: events.ProjectEvent(event, inc)})
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r, h.Env)
	if !ok {
		return
	}
	var input events.UpdateInput
	if !decodeJSON(w, r, &input, h.Env) {
		return
	}
	inc := events.EventIncludesFromQuery(r.URL.Query())

	event, err := h.Service.Update(r.Context(), middleware.CurrentUserID(r), id, input, inc)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Data: events.ProjectEvent(event, inc)})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r, h.Env)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), middleware.CurrentUserID(r), id); err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// eventID reads the {id} path segment. A malformed identifier cannot match
// any row, so it reads as not found rather than a validation error.
func eventID(w http.ResponseWriter, r *http.Request, env string) (string, bool) {
	value := strings.TrimSpace(pathParam(r, "id"))
	if !ids.IsULID(value) {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not Found", events.ErrNotFound, env,
			problem.WithDetail("Event not found."))
		return "", false
	}
	return value, true
}

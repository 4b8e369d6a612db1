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

// AttendeesHandler serves the nested attendees resource. Attendees are
// immutable, so there is no update operation.
type AttendeesHandler struct {
	Service *events.Service
	Env     string
}

func NewAttendeesHandler(service *events.Service, env string) *AttendeesHandler {
	return &AttendeesHandler{Service: service, Env: env}
}

func (h *AttendeesHandler) List(w http.ResponseWriter, r *http.Request) {
	eventULID, ok := attendeePathID(w, r, "event", h.Env)
	if !ok {
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		writePageError(w, r, err, h.Env)
		return
	}
	inc := events.AttendeeIncludesFromQuery(r.URL.Query())

	result, err := h.Service.ListAttendees(r.Context(), eventULID, inc, page)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	items := make([]map[string]any, 0, len(result.Attendees))
	for i := range result.Attendees {
		items = append(items, events.ProjectAttendee(&result.Attendees[i], inc))
	}
	writeJSON(w, http.StatusOK, listResponse{Data: items, Meta: page.MetaFor(result.Total)})
}

func (h *AttendeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventULID, ok := attendeePathID(w, r, "event", h.Env)
	if !ok {
		return
	}
	inc := events.AttendeeIncludesFromQuery(r.URL.Query())

	attendee, err := h.Service.CreateAttendee(r.Context(), middleware.CurrentUserID(r), eventULID, inc)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{Data: events.ProjectAttendee(attendee, inc)})
}

func (h *AttendeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventULID, ok := attendeePathID(w, r, "event", h.Env)
	if !ok {
		return
	}
	attendeeULID, ok := attendeePathID(w, r, "attendee", h.Env)
	if !ok {
		return
	}
	inc := events.AttendeeIncludesFromQuery(r.URL.Query())

	attendee, err := h.Service.GetAttendee(r.Context(), eventULID, attendeeULID, inc)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Data: events.ProjectAttendee(attendee, inc)})
}

func (h *AttendeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventULID, ok := attendeePathID(w, r, "event", h.Env)
	if !ok {
		return
	}
	attendeeULID, ok := attendeePathID(w, r, "attendee", h.Env)
	if !ok {
		return
	}

	if err := h.Service.DeleteAttendee(r.Context(), middleware.CurrentUserID(r), eventULID, attendeeULID); err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func attendeePathID(w http.ResponseWriter, r *http.Request, key, env string) (string, bool) {
	value := strings.TrimSpace(pathParam(r, key))
	if !ids.IsULID(value) {
		detail := "Event not found."
		err := events.ErrNotFound
		if key == "attendee" {
			detail = "Attendee not found."
			err = events.ErrAttendeeNotFound
		}
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not Found", err, env,
			problem.WithDetail(detail))
		return "", false
	}
	return value, true
}

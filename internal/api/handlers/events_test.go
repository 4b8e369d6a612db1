package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestEventsList(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)
	mustCreateEvent(t, svc, "owner")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Len(t, body["data"], 1)
	meta := body["meta"].(map[string]any)
	require.EqualValues(t, 1, meta["page"])
	require.EqualValues(t, 15, meta["per_page"])
	require.EqualValues(t, 1, meta["total"])
}

func TestEventsListInvalidPage(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?per_page=9999", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEventsListIgnoresUnknownInclude(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)
	mustCreateEvent(t, svc, "owner")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?include=owner.secrets,user", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	item := decodeBody(t, rec)["data"].([]any)[0].(map[string]any)
	require.Contains(t, item, "user")
	require.NotContains(t, item, "owner.secrets")
	require.NotContains(t, item, "attendees")
}

func TestEventsCreate(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)

	req := asUser(jsonRequest(http.MethodPost, "/api/v1/events",
		`{"name":"Launch","start_time":"2025-06-01T18:00","end_time":"2025-06-01T21:00"}`), "owner")
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	require.Equal(t, "Launch", data["name"])
	require.NotEmpty(t, data["id"])
}

func TestEventsCreateValidationError(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)

	req := asUser(jsonRequest(http.MethodPost, "/api/v1/events", `{}`), "owner")
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	require.Equal(t, "The given data was invalid.", body["detail"])
	errs := body["errors"].(map[string]any)
	require.Contains(t, errs, "name")
	require.Contains(t, errs, "start_time")
}

func TestEventsCreateMalformedJSON(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)

	req := asUser(jsonRequest(http.MethodPost, "/api/v1/events", `{not json`), "owner")
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsGetNotFound(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/01HV4E5W6X7Y8Z9A0B1C2D3E4F", nil)
	req.SetPathValue("id", "01HV4E5W6X7Y8Z9A0B1C2D3E4F")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsGetMalformedID(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/42", nil)
	req.SetPathValue("id", "42")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsGetWithIncludes(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)
	event := mustCreateEvent(t, svc, "owner")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+event.ULID+"?include=user,attendees", nil)
	req.SetPathValue("id", event.ULID)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	require.Contains(t, data, "user")
	require.Contains(t, data, "attendees")
	require.Empty(t, data["attendees"])
}

func TestEventsUpdateForbiddenForNonOwner(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)
	event := mustCreateEvent(t, svc, "owner")

	req := asUser(jsonRequest(http.MethodPut, "/api/v1/events/"+event.ULID, `{"name":"Hijacked"}`), "intruder")
	req.SetPathValue("id", event.ULID)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEventsUpdate(t *testing.T) {
	svc, _ := newEventsService()
	handler := NewEventsHandler(svc, testEnv)
	event := mustCreateEvent(t, svc, "owner")

	req := asUser(jsonRequest(http.MethodPut, "/api/v1/events/"+event.ULID, `{"name":"Launch v2"}`), "owner")
	req.SetPathValue("id", event.ULID)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	require.Equal(t, "Launch v2", data["name"])
}

func TestEventsDelete(t *testing.T) {
	svc, repo := newEventsService()
	handler := NewEventsHandler(svc, testEnv)
	event := mustCreateEvent(t, svc, "owner")

	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/events/"+event.ULID, nil), "owner")
	req.SetPathValue("id", event.ULID)
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.Bytes())
	require.Empty(t, repo.events)
}

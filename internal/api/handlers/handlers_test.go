package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/attend/internal/api/middleware"
	"github.com/Togather-Foundation/attend/internal/api/pagination"
	"github.com/Togather-Foundation/attend/internal/auth"
	"github.com/Togather-Foundation/attend/internal/domain/events"
	"github.com/Togather-Foundation/attend/internal/domain/users"
)

// memEventRepo is an in-memory events.Repository for handler tests.
// attendeeOrder preserves insertion order; listings reverse it, matching
// the newest-first contract of the real repository.
type memEventRepo struct {
	events        map[string]*events.Event
	attendees     map[string]*events.Attendee
	attendeeOrder []string
	nextID        int
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{
		events:    make(map[string]*events.Event),
		attendees: make(map[string]*events.Attendee),
	}
}

func (m *memEventRepo) newID() string {
	m.nextID++
	return fmt.Sprintf("row-%d", m.nextID)
}

func (m *memEventRepo) List(_ context.Context, inc events.IncludeSet, _ pagination.Page) (events.ListResult, error) {
	result := events.ListResult{Total: len(m.events)}
	for _, event := range m.events {
		copied := *event
		m.load(&copied, inc)
		result.Events = append(result.Events, copied)
	}
	return result, nil
}

func (m *memEventRepo) GetByULID(_ context.Context, ulid string) (*events.Event, error) {
	for _, event := range m.events {
		if event.ULID == ulid {
			copied := *event
			return &copied, nil
		}
	}
	return nil, events.ErrNotFound
}

func (m *memEventRepo) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	event := &events.Event{
		ID:          m.newID(),
		ULID:        params.ULID,
		Name:        params.Name,
		Description: params.Description,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		OwnerID:     params.OwnerID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	m.events[event.ID] = event
	copied := *event
	return &copied, nil
}

func (m *memEventRepo) Update(_ context.Context, id string, fields events.EventFields) (*events.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	event.Name = fields.Name
	event.Description = fields.Description
	event.StartTime = fields.StartTime
	event.EndTime = fields.EndTime
	copied := *event
	return &copied, nil
}

func (m *memEventRepo) Delete(_ context.Context, id string) error {
	delete(m.events, id)
	return nil
}

func (m *memEventRepo) AttachRelations(_ context.Context, event *events.Event, inc events.IncludeSet) error {
	m.load(event, inc)
	return nil
}

func (m *memEventRepo) load(event *events.Event, inc events.IncludeSet) {
	if inc.Has(events.IncludeUser) {
		event.Owner = &events.UserSummary{ULID: event.OwnerID, Name: "Owner", Email: "owner@example.net"}
	}
	if inc.Has(events.IncludeAttendees) {
		event.Attendees = []events.Attendee{}
		for _, id := range m.attendeeOrder {
			attendee := m.attendees[id]
			if attendee.EventID != event.ID {
				continue
			}
			copied := *attendee
			if inc.Has(events.IncludeAttendeeUsers) {
				copied.User = &events.UserSummary{ULID: attendee.UserID, Name: "Guest", Email: "guest@example.net"}
			}
			event.Attendees = append(event.Attendees, copied)
		}
	}
}

func (m *memEventRepo) ListAttendees(_ context.Context, eventID string, inc events.IncludeSet, _ pagination.Page) (events.AttendeeListResult, error) {
	result := events.AttendeeListResult{}
	for i := len(m.attendeeOrder) - 1; i >= 0; i-- {
		attendee := m.attendees[m.attendeeOrder[i]]
		if attendee.EventID != eventID {
			continue
		}
		copied := *attendee
		if inc.Has(events.IncludeUser) {
			copied.User = &events.UserSummary{ULID: attendee.UserID, Name: "Guest", Email: "guest@example.net"}
		}
		result.Attendees = append(result.Attendees, copied)
		result.Total++
	}
	return result, nil
}

func (m *memEventRepo) GetAttendeeByULID(_ context.Context, ulid string) (*events.Attendee, error) {
	for _, attendee := range m.attendees {
		if attendee.ULID == ulid {
			copied := *attendee
			return &copied, nil
		}
	}
	return nil, events.ErrAttendeeNotFound
}

func (m *memEventRepo) CreateAttendee(_ context.Context, params events.AttendeeCreateParams) (*events.Attendee, error) {
	attendee := &events.Attendee{
		ID:        m.newID(),
		ULID:      params.ULID,
		EventID:   params.EventID,
		UserID:    params.UserID,
		UserULID:  params.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if event, ok := m.events[params.EventID]; ok {
		attendee.EventULID = event.ULID
	}
	m.attendees[attendee.ID] = attendee
	m.attendeeOrder = append(m.attendeeOrder, attendee.ID)
	copied := *attendee
	return &copied, nil
}

func (m *memEventRepo) DeleteAttendee(_ context.Context, id string) error {
	delete(m.attendees, id)
	for i, existing := range m.attendeeOrder {
		if existing == id {
			m.attendeeOrder = append(m.attendeeOrder[:i], m.attendeeOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memEventRepo) AttachAttendeeRelations(_ context.Context, attendee *events.Attendee, inc events.IncludeSet) error {
	if inc.Has(events.IncludeUser) {
		attendee.User = &events.UserSummary{ULID: attendee.UserID, Name: "Guest", Email: "guest@example.net"}
	}
	return nil
}

// memUserRepo backs the auth handler tests.
type memUserRepo struct {
	byEmail map[string]*users.User
	byID    map[string]*users.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]*users.User), byID: make(map[string]*users.User)}
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func (m *memUserRepo) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	user := &users.User{
		ID:           params.ULID,
		ULID:         params.ULID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return user, nil
}

type memTokenStore struct {
	tokens map[string]auth.Token
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]auth.Token)}
}

func (m *memTokenStore) Insert(_ context.Context, token auth.Token) error {
	m.tokens[token.Hash] = token
	return nil
}

func (m *memTokenStore) LookupByHash(_ context.Context, hash string) (*auth.Token, error) {
	token, ok := m.tokens[hash]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &token, nil
}

func (m *memTokenStore) UpdateLastUsed(_ context.Context, _ string) error { return nil }

func (m *memTokenStore) DeleteForUser(_ context.Context, userID string) error {
	for hash, token := range m.tokens {
		if token.UserID == userID {
			delete(m.tokens, hash)
		}
	}
	return nil
}

const testEnv = "test"

func newEventsService() (*events.Service, *memEventRepo) {
	repo := newMemEventRepo()
	return events.NewService(repo), repo
}

func newUsersService() (*users.Service, *memUserRepo, *memTokenStore) {
	repo := newMemUserRepo()
	tokens := newMemTokenStore()
	return users.NewService(repo, tokens, time.Hour, zerolog.Nop()), repo, tokens
}

// asUser injects an authenticated user the way the auth middleware would.
func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func mustCreateEvent(t *testing.T, svc *events.Service, owner string) *events.Event {
	t.Helper()
	event, err := svc.Create(context.Background(), owner, events.CreateInput{
		Name:      "Launch",
		StartTime: "2025-06-01T18:00",
		EndTime:   "2025-06-01T21:00",
	}, events.IncludeSet{})
	require.NoError(t, err)
	return event
}

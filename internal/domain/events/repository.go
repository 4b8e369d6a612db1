package events

import (
	"context"
	"time"

	"github.com/Togather-Foundation/attend/internal/api/pagination"
)

// Event is an event owned by the user who created it.
type Event struct {
	ID          string // internal UUID
	ULID        string // public identifier
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	OwnerID     string
	OwnerULID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relations, populated only when requested via include=.
	Owner     *UserSummary
	Attendees []Attendee
}

// Attendee is a user's registration for an event. Immutable after creation.
type Attendee struct {
	ID        string
	ULID      string
	EventID   string
	EventULID string
	UserID    string
	UserULID  string
	CreatedAt time.Time

	User *UserSummary
}

// UserSummary is the slice of a user that event payloads expose.
type UserSummary struct {
	ULID  string
	Name  string
	Email string
}

// EventFields is a validated, sanitized set of event attributes.
type EventFields struct {
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

type CreateParams struct {
	ULID        string
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	OwnerID     string
}

type AttendeeCreateParams struct {
	ULID    string
	EventID string
	UserID  string
}

type ListResult struct {
	Events []Event
	Total  int
}

type AttendeeListResult struct {
	Attendees []Attendee
	Total     int
}

type Repository interface {
	// List returns one page of events, newest first, with the relations named
	// by inc eager-loaded.
	List(ctx context.Context, inc IncludeSet, page pagination.Page) (ListResult, error)
	GetByULID(ctx context.Context, ulid string) (*Event, error)
	Create(ctx context.Context, params CreateParams) (*Event, error)
	Update(ctx context.Context, id string, fields EventFields) (*Event, error)
	// Delete removes the event; attendee and reminder rows cascade with it.
	Delete(ctx context.Context, id string) error
	// AttachRelations loads the relations named by inc onto an already-fetched event.
	AttachRelations(ctx context.Context, event *Event, inc IncludeSet) error

	ListAttendees(ctx context.Context, eventID string, inc IncludeSet, page pagination.Page) (AttendeeListResult, error)
	GetAttendeeByULID(ctx context.Context, ulid string) (*Attendee, error)
	CreateAttendee(ctx context.Context, params AttendeeCreateParams) (*Attendee, error)
	DeleteAttendee(ctx context.Context, id string) error
	AttachAttendeeRelations(ctx context.Context, attendee *Attendee, inc IncludeSet) error
}

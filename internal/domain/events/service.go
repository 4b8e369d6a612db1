package events

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/attend/internal/api/pagination"
	"github.com/Togather-Foundation/attend/internal/domain/ids"
)

// Service implements the event and attendee operations. Handlers call it with
// the authenticated actor's internal ID; authorization, validation, and the
// nested attendee scoping all live here.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, inc IncludeSet, page pagination.Page) (ListResult, error) {
	return s.repo.List(ctx, inc, page)
}

func (s *Service) Get(ctx context.Context, ulid string, inc IncludeSet) (*Event, error) {
	event, err := s.repo.GetByULID(ctx, ids.Normalize(ulid))
	if err != nil {
		return nil, err
	}
	if err := s.repo.AttachRelations(ctx, event, inc); err != nil {
		return nil, fmt.Errorf("attach event relations: %w", err)
	}
	return event, nil
}

func (s *Service) Create(ctx context.Context, actorID string, in CreateInput, inc IncludeSet) (*Event, error) {
	if err := CanCreateEvent(actorID); err != nil {
		return nil, err
	}

	fields, err := in.Validate()
	if err != nil {
		return nil, err
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	event, err := s.repo.Create(ctx, CreateParams{
		ULID:        ulid,
		Name:        fields.Name,
		Description: fields.Description,
		StartTime:   fields.StartTime,
		EndTime:     fields.EndTime,
		OwnerID:     actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	if err := s.repo.AttachRelations(ctx, event, inc); err != nil {
		return nil, fmt.Errorf("attach event relations: %w", err)
	}
	return event, nil
}

func (s *Service) Update(ctx context.Context, actorID, ulid string, in UpdateInput, inc IncludeSet) (*Event, error) {
	event, err := s.repo.GetByULID(ctx, ids.Normalize(ulid))
	if err != nil {
		return nil, err
	}
	if err := CanUpdateEvent(actorID, event); err != nil {
		return nil, err
	}

	fields, err := in.Apply(event)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, event.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if err := s.repo.AttachRelations(ctx, updated, inc); err != nil {
		return nil, fmt.Errorf("attach event relations: %w", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actorID, ulid string) error {
	event, err := s.repo.GetByULID(ctx, ids.Normalize(ulid))
	if err != nil {
		return err
	}
	if err := CanDeleteEvent(actorID, event); err != nil {
		return err
	}
	return s.repo.Delete(ctx, event.ID)
}

func (s *Service) ListAttendees(ctx context.Context, eventULID string, inc IncludeSet, page pagination.Page) (AttendeeListResult, error) {
	event, err := s.repo.GetByULID(ctx, ids.Normalize(eventULID))
	if err != nil {
		return AttendeeListResult{}, err
	}
	return s.repo.ListAttendees(ctx, event.ID, inc, page)
}

func (s *Service) CreateAttendee(ctx context.Context, actorID, eventULID string, inc IncludeSet) (*Attendee, error) {
	event, err := s.repo.GetByULID(ctx, ids.Normalize(eventULID))
	if err != nil {
		return nil, err
	}
	if err := CanCreateAttendee(actorID, event); err != nil {
		return nil, err
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate attendee id: %w", err)
	}

	attendee, err := s.repo.CreateAttendee(ctx, AttendeeCreateParams{
		ULID:    ulid,
		EventID: event.ID,
		UserID:  actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create attendee: %w", err)
	}

	if err := s.repo.AttachAttendeeRelations(ctx, attendee, inc); err != nil {
		return nil, fmt.Errorf("attach attendee relations: %w", err)
	}
	return attendee, nil
}

func (s *Service) GetAttendee(ctx context.Context, eventULID, attendeeULID string, inc IncludeSet) (*Attendee, error) {
	_, attendee, err := s.scopedAttendee(ctx, eventULID, attendeeULID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AttachAttendeeRelations(ctx, attendee, inc); err != nil {
		return nil, fmt.Errorf("attach attendee relations: %w", err)
	}
	return attendee, nil
}

func (s *Service) DeleteAttendee(ctx context.Context, actorID, eventULID, attendeeULID string) error {
	event, attendee, err := s.scopedAttendee(ctx, eventULID, attendeeULID)
	if err != nil {
		return err
	}
	if err := CanDeleteAttendee(actorID, event, attendee); err != nil {
		return err
	}
	return s.repo.DeleteAttendee(ctx, attendee.ID)
}

// scopedAttendee resolves an attendee within its parent event. An attendee
// that exists but belongs to a different event reads as not found, so the
// nested URL space never exposes rows across events.
func (s *Service) scopedAttendee(ctx context.Context, eventULID, attendeeULID string) (*Event, *Attendee, error) {
	event, err := s.repo.GetByULID(ctx, ids.Normalize(eventULID))
	if err != nil {
		return nil, nil, err
	}
	attendee, err := s.repo.GetAttendeeByULID(ctx, ids.Normalize(attendeeULID))
	if err != nil {
		return nil, nil, err
	}
	if attendee.EventID != event.ID {
		return nil, nil, ErrAttendeeNotFound
	}
	return event, attendee, nil
}

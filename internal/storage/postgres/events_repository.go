package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Togather-Foundation/attend/internal/api/pagination"
	"github.com/Togather-Foundation/attend/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `
e.id, e.ulid, e.name, e.description, e.start_time, e.end_time,
e.owner_id, u.ulid, u.name, u.email, e.created_at, e.updated_at`

// Lists page newest-first, matching the API contract.
const listEventsQuery = `
SELECT ` + eventColumns + `
  FROM events e
  JOIN users u ON u.id = e.owner_id
 ORDER BY e.created_at DESC, e.id DESC
 LIMIT $1 OFFSET $2
`

const listAttendeesQuery = `
SELECT a.id, a.ulid, a.event_id, e.ulid, a.user_id, u.ulid, u.name, u.email, a.created_at
  FROM attendees a
  JOIN events e ON e.id = a.event_id
  JOIN users u ON u.id = a.user_id
 WHERE a.event_id = $1
 ORDER BY a.created_at DESC, a.id DESC
 LIMIT $2 OFFSET $3
`

type eventRow struct {
	ID          string
	ULID        string
	Name        string
	Description *string
	StartTime   pgtype.Timestamptz
	EndTime     pgtype.Timestamptz
	OwnerID     string
	OwnerULID   string
	OwnerName   string
	OwnerEmail  string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

func (row eventRow) toEvent(withOwner bool) events.Event {
	event := events.Event{
		ID:          row.ID,
		ULID:        row.ULID,
		Name:        row.Name,
		Description: derefString(row.Description),
		OwnerID:     row.OwnerID,
		OwnerULID:   row.OwnerULID,
	}
	if row.StartTime.Valid {
		event.StartTime = row.StartTime.Time
	}
	if row.EndTime.Valid {
		event.EndTime = row.EndTime.Time
	}
	if row.CreatedAt.Valid {
		event.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		event.UpdatedAt = row.UpdatedAt.Time
	}
	if withOwner {
		event.Owner = &events.UserSummary{
			ULID:  row.OwnerULID,
			Name:  row.OwnerName,
			Email: row.OwnerEmail,
		}
	}
	return event
}

func scanEventRow(row pgx.Row) (eventRow, error) {
	var r eventRow
	err := row.Scan(
		&r.ID, &r.ULID, &r.Name, &r.Description, &r.StartTime, &r.EndTime,
		&r.OwnerID, &r.OwnerULID, &r.OwnerName, &r.OwnerEmail, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (r *EventRepository) List(ctx context.Context, inc events.IncludeSet, page pagination.Page) (events.ListResult, error) {
	q := r.queryer()

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM events`).Scan(&total); err != nil {
		return events.ListResult{}, fmt.Errorf("count events: %w", err)
	}

	rows, err := q.Query(ctx, listEventsQuery, page.PerPage, page.Offset())
	if err != nil {
		return events.ListResult{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	withOwner := inc.Has(events.IncludeUser)
	items := make([]events.Event, 0, page.PerPage)
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(
			&row.ID, &row.ULID, &row.Name, &row.Description, &row.StartTime, &row.EndTime,
			&row.OwnerID, &row.OwnerULID, &row.OwnerName, &row.OwnerEmail, &row.CreatedAt, &row.UpdatedAt,
		); err != nil {
			return events.ListResult{}, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, row.toEvent(withOwner))
	}
	if err := rows.Err(); err != nil {
		return events.ListResult{}, fmt.Errorf("iterate events: %w", err)
	}

	if inc.Has(events.IncludeAttendees) {
		if err := r.loadAttendees(ctx, items, inc.Has(events.IncludeAttendeeUsers)); err != nil {
			return events.ListResult{}, err
		}
	}

	return events.ListResult{Events: items, Total: total}, nil
}

func (r *EventRepository) GetByULID(ctx context.Context, ulid string) (*events.Event, error) {
	row, err := scanEventRow(r.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events e
  JOIN users u ON u.id = e.owner_id
 WHERE e.ulid = $1
`, ulid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	event := row.toEvent(false)
	return &event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row, err := scanEventRow(r.queryer().QueryRow(ctx, `
WITH inserted AS (
  INSERT INTO events (ulid, name, description, start_time, end_time, owner_id)
  VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
  RETURNING id, ulid, name, description, start_time, end_time, owner_id, created_at, updated_at
)
SELECT e.id, e.ulid, e.name, e.description, e.start_time, e.end_time,
       e.owner_id, u.ulid, u.name, u.email, e.created_at, e.updated_at
  FROM inserted e
  JOIN users u ON u.id = e.owner_id
`, params.ULID, params.Name, params.Description, params.StartTime, params.EndTime, params.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	event := row.toEvent(false)
	return &event, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, fields events.EventFields) (*events.Event, error) {
	row, err := scanEventRow(r.queryer().QueryRow(ctx, `
WITH updated AS (
  UPDATE events
     SET name = $2, description = NULLIF($3, ''), start_time = $4, end_time = $5, updated_at = now()
   WHERE id = $1
  RETURNING id, ulid, name, description, start_time, end_time, owner_id, created_at, updated_at
)
SELECT e.id, e.ulid, e.name, e.description, e.start_time, e.end_time,
       e.owner_id, u.ulid, u.name, u.email, e.created_at, e.updated_at
  FROM updated e
  JOIN users u ON u.id = e.owner_id
`, id, fields.Name, fields.Description, fields.StartTime, fields.EndTime))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	event := row.toEvent(false)
	return &event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) AttachRelations(ctx context.Context, event *events.Event, inc events.IncludeSet) error {
	if event == nil {
		return nil
	}

	if inc.Has(events.IncludeUser) && event.Owner == nil {
		var summary events.UserSummary
		err := r.queryer().QueryRow(ctx,
			`SELECT ulid, name, email FROM users WHERE id = $1`, event.OwnerID,
		).Scan(&summary.ULID, &summary.Name, &summary.Email)
		if err != nil {
			return fmt.Errorf("load event owner: %w", err)
		}
		event.Owner = &summary
	}

	if inc.Has(events.IncludeAttendees) {
		single := []events.Event{*event}
		if err := r.loadAttendees(ctx, single, inc.Has(events.IncludeAttendeeUsers)); err != nil {
			return err
		}
		event.Attendees = single[0].Attendees
	}
	return nil
}

// loadAttendees fills the Attendees slice of every event in one query.
func (r *EventRepository) loadAttendees(ctx context.Context, items []events.Event, withUsers bool) error {
	if len(items) == 0 {
		return nil
	}

	index := make(map[string]int, len(items))
	ids := make([]string, 0, len(items))
	for i := range items {
		items[i].Attendees = []events.Attendee{}
		index[items[i].ID] = i
		ids = append(ids, items[i].ID)
	}

	rows, err := r.queryer().Query(ctx, `
SELECT a.id, a.ulid, a.event_id, e.ulid, a.user_id, u.ulid, u.name, u.email, a.created_at
  FROM attendees a
  JOIN events e ON e.id = a.event_id
  JOIN users u ON u.id = a.user_id
 WHERE a.event_id = ANY($1)
 ORDER BY a.created_at ASC, a.id ASC
`, ids)
	if err != nil {
		return fmt.Errorf("load attendees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		attendee, err := scanAttendee(rows, withUsers)
		if err != nil {
			return err
		}
		if i, ok := index[attendee.EventID]; ok {
			items[i].Attendees = append(items[i].Attendees, attendee)
		}
	}
	return rows.Err()
}

func (r *EventRepository) ListAttendees(ctx context.Context, eventID string, inc events.IncludeSet, page pagination.Page) (events.AttendeeListResult, error) {
	q := r.queryer()

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM attendees WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return events.AttendeeListResult{}, fmt.Errorf("count attendees: %w", err)
	}

	rows, err := q.Query(ctx, listAttendeesQuery, eventID, page.PerPage, page.Offset())
	if err != nil {
		return events.AttendeeListResult{}, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	withUsers := inc.Has(events.IncludeUser)
	items := make([]events.Attendee, 0, page.PerPage)
	for rows.Next() {
		attendee, err := scanAttendee(rows, withUsers)
		if err != nil {
			return events.AttendeeListResult{}, err
		}
		items = append(items, attendee)
	}
	if err := rows.Err(); err != nil {
		return events.AttendeeListResult{}, fmt.Errorf("iterate attendees: %w", err)
	}

	return events.AttendeeListResult{Attendees: items, Total: total}, nil
}

func (r *EventRepository) GetAttendeeByULID(ctx context.Context, ulid string) (*events.Attendee, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT a.id, a.ulid, a.event_id, e.ulid, a.user_id, u.ulid, u.name, u.email, a.created_at
  FROM attendees a
  JOIN events e ON e.id = a.event_id
  JOIN users u ON u.id = a.user_id
 WHERE a.ulid = $1
`, ulid)

	attendee, err := scanAttendee(row, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrAttendeeNotFound
		}
		return nil, err
	}
	return &attendee, nil
}

func (r *EventRepository) CreateAttendee(ctx context.Context, params events.AttendeeCreateParams) (*events.Attendee, error) {
	row := r.queryer().QueryRow(ctx, `
WITH inserted AS (
  INSERT INTO attendees (ulid, event_id, user_id)
  VALUES ($1, $2, $3)
  RETURNING id, ulid, event_id, user_id, created_at
)
SELECT a.id, a.ulid, a.event_id, e.ulid, a.user_id, u.ulid, u.name, u.email, a.created_at
  FROM inserted a
  JOIN events e ON e.id = a.event_id
  JOIN users u ON u.id = a.user_id
`, params.ULID, params.EventID, params.UserID)

	attendee, err := scanAttendee(row, false)
	if err != nil {
		return nil, fmt.Errorf("insert attendee: %w", err)
	}
	return &attendee, nil
}

func (r *EventRepository) DeleteAttendee(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM attendees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attendee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrAttendeeNotFound
	}
	return nil
}

func (r *EventRepository) AttachAttendeeRelations(ctx context.Context, attendee *events.Attendee, inc events.IncludeSet) error {
	if attendee == nil || !inc.Has(events.IncludeUser) {
		return nil
	}
	var summary events.UserSummary
	err := r.queryer().QueryRow(ctx,
		`SELECT ulid, name, email FROM users WHERE id = $1`, attendee.UserID,
	).Scan(&summary.ULID, &summary.Name, &summary.Email)
	if err != nil {
		return fmt.Errorf("load attendee user: %w", err)
	}
	attendee.User = &summary
	return nil
}

func scanAttendee(row pgx.Row, withUser bool) (events.Attendee, error) {
	var (
		attendee  events.Attendee
		userULID  string
		userName  string
		userEmail string
		createdAt pgtype.Timestamptz
	)
	err := row.Scan(
		&attendee.ID, &attendee.ULID, &attendee.EventID, &attendee.EventULID,
		&attendee.UserID, &userULID, &userName, &userEmail, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.Attendee{}, err
		}
		return events.Attendee{}, fmt.Errorf("scan attendee: %w", err)
	}
	attendee.UserULID = userULID
	if createdAt.Valid {
		attendee.CreatedAt = createdAt.Time
	}
	if withUser {
		attendee.User = &events.UserSummary{ULID: userULID, Name: userName, Email: userEmail}
	}
	return attendee, nil
}

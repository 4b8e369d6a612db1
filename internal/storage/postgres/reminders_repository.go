package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Togather-Foundation/attend/internal/jobs"
)

var _ jobs.ReminderStore = (*ReminderRepository)(nil)

// DueReminders returns one row per attendee of an event starting in
// [from, until) that has no reminder recorded yet.
func (r *ReminderRepository) DueReminders(ctx context.Context, from, until time.Time) ([]jobs.Reminder, error) {
	query := `
		SELECT e.id, e.ulid, e.name, e.start_time, u.id, u.name, u.email
		FROM attendees a
		JOIN events e ON e.id = a.event_id
		JOIN users u ON u.id = a.user_id
		WHERE e.start_time >= $1 AND e.start_time < $2
		  AND NOT EXISTS (
			SELECT 1 FROM event_reminders er
			WHERE er.event_id = a.event_id AND er.user_id = a.user_id
		  )
		ORDER BY e.start_time ASC, e.id ASC`

	rows, err := r.queryer().Query(ctx, query, from, until)
	if err != nil {
		return nil, fmt.Errorf("querying due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []jobs.Reminder
	for rows.Next() {
		var rem jobs.Reminder
		var startTime pgtype.Timestamptz
		if err := rows.Scan(&rem.EventID, &rem.EventULID, &rem.EventName, &startTime, &rem.UserID, &rem.UserName, &rem.UserEmail); err != nil {
			return nil, fmt.Errorf("scanning reminder: %w", err)
		}
		rem.StartTime = startTime.Time
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reminders: %w", err)
	}
	return reminders, nil
}

// Claim records the pair as sent. The insert is the lock: only one caller
// gets a row back.
func (r *ReminderRepository) Claim(ctx context.Context, eventID, userID string) (bool, error) {
	tag, err := r.queryer().Exec(ctx, `
		INSERT INTO event_reminders (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING`, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("claiming reminder: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release removes a claim so a later run can retry the pair.
func (r *ReminderRepository) Release(ctx context.Context, eventID, userID string) error {
	if _, err := r.queryer().Exec(ctx, `
		DELETE FROM event_reminders
		WHERE event_id = $1 AND user_id = $2`, eventID, userID); err != nil {
		return fmt.Errorf("releasing reminder: %w", err)
	}
	return nil
}

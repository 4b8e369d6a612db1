package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/attend/internal/metrics"
)

// Reminder is one pending notification: an attendee of an event that starts
// inside the look-ahead window and has not been reminded yet.
type Reminder struct {
	EventID   string
	EventULID string
	EventName string
	StartTime time.Time
	UserID    string
	UserName  string
	UserEmail string
}

// ReminderStore finds due reminders and tracks which have been sent. Claim
// must be atomic so concurrent dispatch runs never double-send a pair.
type ReminderStore interface {
	DueReminders(ctx context.Context, from, until time.Time) ([]Reminder, error)
	// Claim marks the (event, user) pair as sent and reports whether this
	// caller won the claim.
	Claim(ctx context.Context, eventID, userID string) (bool, error)
	// Release undoes a claim after a failed send so a later run retries it.
	Release(ctx context.Context, eventID, userID string) error
}

// ReminderSender delivers one reminder notification.
type ReminderSender interface {
	SendEventReminder(ctx context.Context, to, userName, eventName string, startTime time.Time) error
}

// Stats summarizes one dispatch run.
type Stats struct {
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeSkipped
	outcomeFailed
)

// ReminderDispatcher notifies attendees of events starting within the window.
// One failed recipient never blocks the rest of the run.
type ReminderDispatcher struct {
	Store       ReminderStore
	Sender      ReminderSender
	Logger      zerolog.Logger
	Window      time.Duration
	Concurrency int
}

func NewReminderDispatcher(store ReminderStore, sender ReminderSender, logger zerolog.Logger, window time.Duration, concurrency int) *ReminderDispatcher {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ReminderDispatcher{
		Store:       store,
		Sender:      sender,
		Logger:      logger.With().Str("component", "reminders").Logger(),
		Window:      window,
		Concurrency: concurrency,
	}
}

// Run dispatches all reminders due at now. The window is half-open:
// [now, now+window).
func (d *ReminderDispatcher) Run(ctx context.Context, now time.Time) (Stats, error) {
	start := time.Now()
	defer func() {
		metrics.ReminderRunDuration.Observe(time.Since(start).Seconds())
	}()

	due, err := d.Store.DueReminders(ctx, now, now.Add(d.Window))
	if err != nil {
		return Stats{}, err
	}

	eventIDs := make(map[string]struct{}, len(due))
	for _, reminder := range due {
		eventIDs[reminder.EventID] = struct{}{}
	}
	d.Logger.Info().
		Int("events", len(eventIDs)).
		Int("recipients", len(due)).
		Msg("dispatching event reminders")

	stats := Stats{Due: len(due)}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.Concurrency)

	results := make(chan outcome, len(due))
	for _, reminder := range due {
		group.Go(func() error {
			results <- d.dispatch(groupCtx, reminder)
			return nil
		})
	}
	_ = group.Wait()
	close(results)

	for result := range results {
		switch result {
		case outcomeSent:
			stats.Sent++
		case outcomeSkipped:
			stats.Skipped++
		case outcomeFailed:
			stats.Failed++
		}
	}

	d.Logger.Info().
		Int("due", stats.Due).
		Int("sent", stats.Sent).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("reminder run complete")
	return stats, nil
}

func (d *ReminderDispatcher) dispatch(ctx context.Context, reminder Reminder) outcome {
	claimed, err := d.Store.Claim(ctx, reminder.EventID, reminder.UserID)
	if err != nil {
		d.Logger.Error().Err(err).
			Str("event_id", reminder.EventULID).
			Str("to", reminder.UserEmail).
			Msg("reminder claim failed")
		metrics.RemindersFailed.Inc()
		return outcomeFailed
	}
	if !claimed {
		// another run already sent this one
		return outcomeSkipped
	}

	if err := d.Sender.SendEventReminder(ctx, reminder.UserEmail, reminder.UserName, reminder.EventName, reminder.StartTime); err != nil {
		d.Logger.Error().Err(err).
			Str("event_id", reminder.EventULID).
			Str("to", reminder.UserEmail).
			Msg("reminder send failed")
		if releaseErr := d.Store.Release(ctx, reminder.EventID, reminder.UserID); releaseErr != nil {
			d.Logger.Error().Err(releaseErr).
				Str("event_id", reminder.EventULID).
				Str("to", reminder.UserEmail).
				Msg("reminder release failed, pair will not be retried")
		}
		metrics.RemindersFailed.Inc()
		return outcomeFailed
	}

	metrics.RemindersSent.Inc()
	return outcomeSent
}

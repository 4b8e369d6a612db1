package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"
)

// EventRemindersArgs is the payload for a reminder dispatch job. The job is
// self-contained; the worker computes the window from the current time.
type EventRemindersArgs struct{}

func (EventRemindersArgs) Kind() string { return JobKindEventReminders }

func (EventRemindersArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: ReminderMaxAttempts}
}

// EventRemindersWorker runs the dispatcher from the job queue.
type EventRemindersWorker struct {
	river.WorkerDefaults[EventRemindersArgs]

	Dispatcher *ReminderDispatcher
}

func (w *EventRemindersWorker) Work(ctx context.Context, _ *river.Job[EventRemindersArgs]) error {
	_, err := w.Dispatcher.Run(ctx, time.Now().UTC())
	return err
}

// NewWorkers registers every worker this service runs.
func NewWorkers(dispatcher *ReminderDispatcher) (*river.Workers, error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, &EventRemindersWorker{Dispatcher: dispatcher}); err != nil {
		return nil, err
	}
	return workers, nil
}

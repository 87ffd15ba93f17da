package audit

import (
	"context"
	"log/slog"
	"time"
)

// Worker consumes activity events from a channel and persists them. The
// channel keeps recording off the request path; publishers drop rather than
// block when the inbox is full.
type Worker struct {
	store  Store
	inbox  chan Event
	logger *slog.Logger
}

// NewWorker builds a worker with a buffered inbox.
func NewWorker(store Store, logger *slog.Logger) *Worker {
	return &Worker{
		store:  store,
		inbox:  make(chan Event, 256),
		logger: logger,
	}
}

// Record queues an event for persistence. Non-blocking; a full inbox means
// the event is dropped and counted against the log.
func (w *Worker) Record(action Action, subject string) {
	e := Event{Timestamp: time.Now(), Subject: subject, Action: action}
	select {
	case w.inbox <- e:
	default:
		w.logger.Warn("activity inbox full, dropping event", "action", string(action))
	}
}

// Run drains the inbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-w.inbox:
			if err := w.store.Append(ctx, e); err != nil {
				w.logger.Error("failed to append activity event", "error", err)
			}
		}
	}
}

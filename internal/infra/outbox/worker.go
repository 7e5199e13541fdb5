package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Worker struct {
	Store      *Store
	Publisher  *Publisher
	Interval   time.Duration
	StaleAfter time.Duration
	ID         string
	Backoff    []time.Duration
	Logger     *slog.Logger
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Run drains due records on every tick until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Publisher == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				sent, err := w.processOnce(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					w.logger().Error("outbox relay failed", "worker", w.ID, "error", err)
					break
				}
				if !sent {
					break
				}
			}
		}
	}
}

// processOnce relays one due record. It reports false when nothing was due.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.ID, w.staleAfter())
	if err != nil || doc == nil {
		return false, err
	}
	if err := w.Publisher.PublishRecord(ctx, doc.record()); err != nil {
		w.logger().Warn("outbox publish failed", "event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "error", err)
		return true, w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	return true, w.Store.MarkSent(ctx, doc.ID)
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) staleAfter() time.Duration {
	if w.StaleAfter <= 0 {
		return time.Minute
	}
	return w.StaleAfter
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

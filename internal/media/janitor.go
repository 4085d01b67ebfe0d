package media

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultBatch = 50
	defaultLease = 5 * time.Minute
	maxBackoff   = 6 * time.Hour
)

// Janitor retries queued deletions.
type Janitor struct {
	store Store
	queue DeletionQueue
	batch int
	lease time.Duration
	now   func() time.Time
}

func NewJanitor(store Store, queue DeletionQueue) *Janitor {
	return &Janitor{
		store: store,
		queue: queue,
		batch: defaultBatch,
		lease: defaultLease,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Drain claims due handles once and tries to delete them. It returns the
// number of handles deleted.
func (j *Janitor) Drain(ctx context.Context) (int, error) {
	now := j.now()
	pending, err := j.queue.ClaimPending(ctx, now, j.lease, j.batch)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, p := range pending {
		if err := j.store.Delete(ctx, p.Handle); err != nil {
			// Attempts was already bumped by the claim.
			next := now.Add(Backoff(p.Attempts))
			if rerr := j.queue.Reschedule(ctx, p.ID, next, err.Error()); rerr != nil {
				slog.ErrorContext(ctx, "failed to reschedule media deletion",
					slog.Uint64("id", uint64(p.ID)),
					slog.String("error", rerr.Error()),
				)
			}
			continue
		}
		if err := j.queue.MarkDone(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "failed to mark media deletion done",
				slog.Uint64("id", uint64(p.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Run drains the queue every interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.Drain(ctx)
			if err != nil {
				slog.WarnContext(ctx, "media janitor pass failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "media janitor removed objects", slog.Int("count", n))
			}
		}
	}
}

// Backoff is the delay before retry number attempts: one minute doubled per
// attempt, capped at six hours.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := time.Minute
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

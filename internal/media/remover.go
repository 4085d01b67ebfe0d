package media

import (
	"context"
	"log/slog"
	"time"

	"videotube/internal/models"
	"videotube/internal/observability"
)

// DeletionQueue holds handles whose deletion has to be retried later.
type DeletionQueue interface {
	Enqueue(ctx context.Context, handle, lastErr string) error
	ClaimPending(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.MediaDeletion, error)
	MarkDone(ctx context.Context, id uint) error
	Reschedule(ctx context.Context, id uint, next time.Time, lastErr string) error
}

// Remover deletes objects that are no longer referenced. A failed delete
// never fails the caller: the handle is queued for the Janitor instead.
type Remover struct {
	store Store
	queue DeletionQueue
}

func NewRemover(store Store, queue DeletionQueue) *Remover {
	return &Remover{store: store, queue: queue}
}

// Remove deletes each non-empty handle.
func (r *Remover) Remove(ctx context.Context, handles ...string) {
	for _, h := range handles {
		if h == "" {
			continue
		}
		err := r.store.Delete(ctx, h)
		if err == nil {
			observability.MediaDeletions.WithLabelValues("deleted").Inc()
			continue
		}

		slog.WarnContext(ctx, "media delete failed, deferring",
			slog.String("handle", h),
			slog.String("error", err.Error()),
		)
		if qerr := r.queue.Enqueue(ctx, h, err.Error()); qerr != nil {
			observability.MediaDeletions.WithLabelValues("failed").Inc()
			observability.LogAsyncOperationError(ctx, "media_delete_enqueue", qerr, map[string]any{"handle": h})
			continue
		}
		observability.MediaDeletions.WithLabelValues("deferred").Inc()
	}
}

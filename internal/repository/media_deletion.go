package repository

import (
	"context"
	"time"

	"videotube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MediaDeletionRepository is the queue of media handles whose deletion
// failed and must be retried.
type MediaDeletionRepository interface {
	// Enqueue records handle for a later retry. Enqueuing a handle twice keeps one row.
	Enqueue(ctx context.Context, handle, lastErr string) error
	// ClaimPending leases up to limit due rows until now+lease so that
	// concurrent janitors do not pick the same handle.
	ClaimPending(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.MediaDeletion, error)
	// MarkDone removes a row whose handle was deleted.
	MarkDone(ctx context.Context, id uint) error
	// Reschedule makes a row due again at next.
	Reschedule(ctx context.Context, id uint, next time.Time, lastErr string) error
	CountPending(ctx context.Context) (int64, error)
}

type mediaDeletionRepository struct {
	base
}

func NewMediaDeletionRepository(db *gorm.DB) MediaDeletionRepository {
	return &mediaDeletionRepository{base: newBase(db, "media_deletions")}
}

func (r *mediaDeletionRepository) Enqueue(ctx context.Context, handle, lastErr string) (err error) {
	ctx, end := r.observe(ctx, "Enqueue")
	defer end(&err)

	row := &models.MediaDeletion{Handle: handle, LastError: lastErr, AvailableAt: time.Now().UTC()}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	return r.translate(err, "MediaDeletion", handle)
}

func (r *mediaDeletionRepository) ClaimPending(ctx context.Context, now time.Time, lease time.Duration, limit int) (_ []models.MediaDeletion, err error) {
	ctx, end := r.observe(ctx, "ClaimPending")
	defer end(&err)

	var rows []models.MediaDeletion
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("available_at <= ?", now).
			Order("available_at ASC").Order("id ASC").
			Limit(limit).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uint, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
			rows[i].Attempts++
		}
		return tx.Model(&models.MediaDeletion{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"available_at": now.Add(lease),
				"attempts":     gorm.Expr("attempts + 1"),
			}).Error
	})
	if err != nil {
		return nil, r.translate(err, "MediaDeletion", "pending")
	}
	return rows, nil
}

func (r *mediaDeletionRepository) MarkDone(ctx context.Context, id uint) (err error) {
	ctx, end := r.observe(ctx, "MarkDone")
	defer end(&err)
	return r.translate(r.db.WithContext(ctx).Delete(&models.MediaDeletion{}, id).Error, "MediaDeletion", id)
}

func (r *mediaDeletionRepository) Reschedule(ctx context.Context, id uint, next time.Time, lastErr string) (err error) {
	ctx, end := r.observe(ctx, "Reschedule")
	defer end(&err)

	err = r.db.WithContext(ctx).Model(&models.MediaDeletion{}).
		Where("id = ?", id).
		Updates(map[string]any{"available_at": next, "last_error": lastErr}).Error
	return r.translate(err, "MediaDeletion", id)
}

func (r *mediaDeletionRepository) CountPending(ctx context.Context) (_ int64, err error) {
	ctx, end := r.observe(ctx, "CountPending")
	defer end(&err)

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.MediaDeletion{}).Count(&n).Error; err != nil {
		return 0, r.translate(err, "MediaDeletion", "count")
	}
	return n, nil
}

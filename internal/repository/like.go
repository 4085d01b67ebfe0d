package repository

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	// Toggle flips the like of userID on target and reports whether the
	// like exists afterwards.
	Toggle(ctx context.Context, target models.LikeTarget, userID uint) (bool, error)
	// ByTargets loads every like on the given targets of one kind.
	ByTargets(ctx context.Context, kind models.LikeTargetKind, ids []uint) ([]models.Like, error)
	// VideoLikesBy returns the video likes of a user, newest first.
	VideoLikesBy(ctx context.Context, userID uint) ([]models.Like, error)
	// CountOnOwnerVideos counts likes across all videos of a channel.
	CountOnOwnerVideos(ctx context.Context, ownerID uint) (int64, error)
}

type likeRepository struct {
	base
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{base: newBase(db, "likes")}
}

// Toggle relies on the per-kind unique indexes: the insert is a no-op when
// the like exists, in which case the like is removed instead. Concurrent
// identical toggles serialize on the index and never leave two rows.
func (r *likeRepository) Toggle(ctx context.Context, target models.LikeTarget, userID uint) (active bool, err error) {
	ctx, end := r.observe(ctx, "Toggle")
	defer end(&err)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(target.NewLike(userID))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			active = true
			return nil
		}

		active = false
		return tx.Where(target.Column()+" = ? AND liked_by_id = ?", target.ID, userID).
			Delete(&models.Like{}).Error
	})
	if err != nil {
		return false, r.translate(err, "Like", target.ID)
	}

	observability.ToggleTotal.WithLabelValues(string(target.Kind)+"_like", observability.ToggleState(active)).Inc()
	return active, nil
}

func (r *likeRepository) ByTargets(ctx context.Context, kind models.LikeTargetKind, ids []uint) (_ []models.Like, err error) {
	ctx, end := r.observe(ctx, "ByTargets")
	defer end(&err)

	var likes []models.Like
	if len(ids) == 0 {
		return likes, nil
	}
	column := models.LikeTarget{Kind: kind}.Column()
	if err := r.db.WithContext(ctx).Where(column+" IN ?", ids).Find(&likes).Error; err != nil {
		return nil, r.translate(err, "Like", ids)
	}
	return likes, nil
}

func (r *likeRepository) VideoLikesBy(ctx context.Context, userID uint) (_ []models.Like, err error) {
	ctx, end := r.observe(ctx, "VideoLikesBy")
	defer end(&err)

	var likes []models.Like
	err = r.db.WithContext(ctx).
		Where("liked_by_id = ? AND video_id IS NOT NULL", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&likes).Error
	if err != nil {
		return nil, r.translate(err, "Like", userID)
	}
	return likes, nil
}

func (r *likeRepository) CountOnOwnerVideos(ctx context.Context, ownerID uint) (_ int64, err error) {
	ctx, end := r.observe(ctx, "CountOnOwnerVideos")
	defer end(&err)

	var n int64
	err = r.db.WithContext(ctx).Model(&models.Like{}).
		Where("video_id IN (SELECT id FROM videos WHERE owner_id = ?)", ownerID).
		Count(&n).Error
	if err != nil {
		return 0, r.translate(err, "Like", ownerID)
	}
	return n, nil
}

package repository

import (
	"context"

	"videotube/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByVideo(ctx context.Context, videoID uint) ([]*models.Comment, error)
	UpdateContent(ctx context.Context, id uint, content string) (*models.Comment, error)
	// Delete removes the comment and the likes on it in one transaction.
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	base
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{base: newBase(db, "comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (err error) {
	ctx, end := r.observe(ctx, "Create")
	defer end(&err)
	return r.translate(r.db.WithContext(ctx).Create(comment).Error, "Comment", comment.VideoID)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (_ *models.Comment, err error) {
	ctx, end := r.observe(ctx, "GetByID")
	defer end(&err)

	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, r.translate(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListByVideo(ctx context.Context, videoID uint) (_ []*models.Comment, err error) {
	ctx, end := r.observe(ctx, "ListByVideo")
	defer end(&err)

	var comments []*models.Comment
	if err := r.db.WithContext(ctx).Where("video_id = ?", videoID).Find(&comments).Error; err != nil {
		return nil, r.translate(err, "Comment", videoID)
	}
	return comments, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) (_ *models.Comment, err error) {
	ctx, end := r.observe(ctx, "UpdateContent")
	defer end(&err)

	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return nil, r.translate(res.Error, "Comment", id)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Comment", id)
	}

	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, r.translate(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, end := r.observe(ctx, "Delete")
	defer end(&err)

	var likes int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("comment_id = ?", id).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		likes = res.RowsAffected

		res = tx.Delete(&models.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return r.translate(err, "Comment", id)
	}

	r.log.LogCascade(ctx, map[string]any{"comment_id": id, "likes": likes})
	return nil
}

package repository

import (
	"context"

	"videotube/internal/models"

	"gorm.io/gorm"
)

// TweetRepository defines persistence operations for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet *models.Tweet) error
	GetByID(ctx context.Context, id uint) (*models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Tweet, error)
	UpdateContent(ctx context.Context, id uint, content string) (*models.Tweet, error)
	// Delete removes the tweet and the likes on it in one transaction.
	Delete(ctx context.Context, id uint) error
}

type tweetRepository struct {
	base
}

func NewTweetRepository(db *gorm.DB) TweetRepository {
	return &tweetRepository{base: newBase(db, "tweets")}
}

func (r *tweetRepository) Create(ctx context.Context, tweet *models.Tweet) (err error) {
	ctx, end := r.observe(ctx, "Create")
	defer end(&err)
	return r.translate(r.db.WithContext(ctx).Create(tweet).Error, "Tweet", tweet.OwnerID)
}

func (r *tweetRepository) GetByID(ctx context.Context, id uint) (_ *models.Tweet, err error) {
	ctx, end := r.observe(ctx, "GetByID")
	defer end(&err)

	var tweet models.Tweet
	if err := r.db.WithContext(ctx).First(&tweet, id).Error; err != nil {
		return nil, r.translate(err, "Tweet", id)
	}
	return &tweet, nil
}

func (r *tweetRepository) ListByOwner(ctx context.Context, ownerID uint) (_ []*models.Tweet, err error) {
	ctx, end := r.observe(ctx, "ListByOwner")
	defer end(&err)

	var tweets []*models.Tweet
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&tweets).Error; err != nil {
		return nil, r.translate(err, "Tweet", ownerID)
	}
	return tweets, nil
}

func (r *tweetRepository) UpdateContent(ctx context.Context, id uint, content string) (_ *models.Tweet, err error) {
	ctx, end := r.observe(ctx, "UpdateContent")
	defer end(&err)

	res := r.db.WithContext(ctx).Model(&models.Tweet{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return nil, r.translate(res.Error, "Tweet", id)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Tweet", id)
	}

	var tweet models.Tweet
	if err := r.db.WithContext(ctx).First(&tweet, id).Error; err != nil {
		return nil, r.translate(err, "Tweet", id)
	}
	return &tweet, nil
}

func (r *tweetRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, end := r.observe(ctx, "Delete")
	defer end(&err)

	var likes int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("tweet_id = ?", id).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		likes = res.RowsAffected

		res = tx.Delete(&models.Tweet{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return r.translate(err, "Tweet", id)
	}

	r.log.LogCascade(ctx, map[string]any{"tweet_id": id, "likes": likes})
	return nil
}

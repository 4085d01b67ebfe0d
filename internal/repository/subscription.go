package repository

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository defines persistence operations for channel subscriptions.
type SubscriptionRepository interface {
	// Toggle flips the subscription and reports whether it exists afterwards.
	Toggle(ctx context.Context, subscriberID, channelID uint) (bool, error)
	// ByChannels loads the subscriptions to each channel (its subscribers).
	ByChannels(ctx context.Context, channelIDs []uint) ([]models.Subscription, error)
	// BySubscribers loads the subscriptions made by each user.
	BySubscribers(ctx context.Context, subscriberIDs []uint) ([]models.Subscription, error)
	CountSubscribers(ctx context.Context, channelID uint) (int64, error)
}

type subscriptionRepository struct {
	base
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{base: newBase(db, "subscriptions")}
}

func (r *subscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID uint) (active bool, err error) {
	ctx, end := r.observe(ctx, "Toggle")
	defer end(&err)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := &models.Subscription{SubscriberID: subscriberID, ChannelID: channelID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(sub)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			active = true
			return nil
		}

		active = false
		return tx.Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
			Delete(&models.Subscription{}).Error
	})
	if err != nil {
		return false, r.translate(err, "Subscription", channelID)
	}

	observability.ToggleTotal.WithLabelValues("subscription", observability.ToggleState(active)).Inc()
	return active, nil
}

func (r *subscriptionRepository) ByChannels(ctx context.Context, channelIDs []uint) (_ []models.Subscription, err error) {
	ctx, end := r.observe(ctx, "ByChannels")
	defer end(&err)
	return r.in(ctx, "channel_id", channelIDs)
}

func (r *subscriptionRepository) BySubscribers(ctx context.Context, subscriberIDs []uint) (_ []models.Subscription, err error) {
	ctx, end := r.observe(ctx, "BySubscribers")
	defer end(&err)
	return r.in(ctx, "subscriber_id", subscriberIDs)
}

func (r *subscriptionRepository) in(ctx context.Context, column string, ids []uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	if len(ids) == 0 {
		return subs, nil
	}
	if err := r.db.WithContext(ctx).Where(column+" IN ?", ids).Order("id ASC").Find(&subs).Error; err != nil {
		return nil, r.translate(err, "Subscription", ids)
	}
	return subs, nil
}

func (r *subscriptionRepository) CountSubscribers(ctx context.Context, channelID uint) (_ int64, err error) {
	ctx, end := r.observe(ctx, "CountSubscribers")
	defer end(&err)

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("channel_id = ?", channelID).Count(&n).Error; err != nil {
		return 0, r.translate(err, "Subscription", channelID)
	}
	return n, nil
}

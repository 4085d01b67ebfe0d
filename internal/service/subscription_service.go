package service

import (
	"cmp"
	"context"
	"slices"

	"videotube/internal/cache"
	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

type SubscriptionService struct {
	subs  repository.SubscriptionRepository
	users repository.UserRepository
	views *Views
}

func NewSubscriptionService(subs repository.SubscriptionRepository, users repository.UserRepository, views *Views) *SubscriptionService {
	return &SubscriptionService{subs: subs, users: users, views: views}
}

// ToggleSubscription subscribes the viewer to the channel, or unsubscribes,
// and reports whether the viewer is subscribed afterwards.
func (s *SubscriptionService) ToggleSubscription(ctx context.Context, channelID uint, viewer relview.Viewer) (bool, error) {
	if err := requireViewer(viewer); err != nil {
		return false, err
	}
	if viewer.Is(channelID) {
		return false, models.NewAuthorizationError("You cannot subscribe to yourself")
	}
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return false, err
	}

	subscribed, err := s.subs.Toggle(ctx, viewer.ID, channelID)
	if err != nil {
		return false, err
	}
	cache.InvalidateChannel(ctx, channelID)
	return subscribed, nil
}

// ChannelSubscribers pages through a channel's subscribers, most recent
// subscription first.
func (s *SubscriptionService) ChannelSubscribers(ctx context.Context, channelID uint, viewer relview.Viewer, req relview.PageRequest) (relview.Page[*models.SubscriberView], error) {
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return relview.Page[*models.SubscriberView]{}, err
	}
	subs, err := s.subs.ByChannels(ctx, []uint{channelID})
	if err != nil {
		return relview.Page[*models.SubscriberView]{}, err
	}
	ids := newestFirst(subs, subscriberOf)
	users, err := s.users.ByIDs(ctx, ids)
	if err != nil {
		return relview.Page[*models.SubscriberView]{}, err
	}

	base := make([]*models.SubscriberView, len(users))
	for i, u := range users {
		base[i] = &models.SubscriberView{UserSummary: *models.SummaryOf(u)}
	}
	base = inOrder(base, ids, func(r *models.SubscriberView) uint { return r.ID })
	return expandPage(ctx, s.views.Subscribers(channelID), base, req, viewer)
}

// SubscribedChannels pages through the channels a user subscribes to, each
// with its latest published video.
func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriberID uint, viewer relview.Viewer, req relview.PageRequest) (relview.Page[*models.SubscribedChannelView], error) {
	if _, err := s.users.GetByID(ctx, subscriberID); err != nil {
		return relview.Page[*models.SubscribedChannelView]{}, err
	}
	subs, err := s.subs.BySubscribers(ctx, []uint{subscriberID})
	if err != nil {
		return relview.Page[*models.SubscribedChannelView]{}, err
	}
	ids := newestFirst(subs, channelOf)
	users, err := s.users.ByIDs(ctx, ids)
	if err != nil {
		return relview.Page[*models.SubscribedChannelView]{}, err
	}

	base := make([]*models.SubscribedChannelView, len(users))
	for i, u := range users {
		base[i] = &models.SubscribedChannelView{UserSummary: *models.SummaryOf(u)}
	}
	base = inOrder(base, ids, func(r *models.SubscribedChannelView) uint { return r.ID })
	return expandPage(ctx, s.views.SubscribedChannels(), base, req, viewer)
}

// newestFirst orders subscriptions by creation, newest first, and returns
// the selected user ids.
func newestFirst(subs []models.Subscription, pick func(models.Subscription) uint) []uint {
	slices.SortFunc(subs, func(a, b models.Subscription) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	ids := make([]uint, len(subs))
	for i, sub := range subs {
		ids[i] = pick(sub)
	}
	return ids
}

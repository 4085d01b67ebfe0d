package service

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

type TweetService struct {
	tweets repository.TweetRepository
	users  repository.UserRepository
	views  *Views
}

func NewTweetService(tweets repository.TweetRepository, users repository.UserRepository, views *Views) *TweetService {
	return &TweetService{tweets: tweets, users: users, views: views}
}

func (s *TweetService) CreateTweet(ctx context.Context, content string, viewer relview.Viewer) (*models.TweetView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	content, err := requireText("Content", content, maxContentLen)
	if err != nil {
		return nil, err
	}
	tweet := &models.Tweet{Content: content, OwnerID: viewer.ID}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, err
	}
	return s.expandOne(ctx, tweet, viewer)
}

// ListUserTweets pages through a user's tweets.
func (s *TweetService) ListUserTweets(ctx context.Context, userID uint, q relview.Query) (relview.Page[*models.TweetView], error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return relview.Page[*models.TweetView]{}, err
	}
	tweets, err := s.tweets.ListByOwner(ctx, userID)
	if err != nil {
		return relview.Page[*models.TweetView]{}, err
	}
	base := make([]*models.TweetView, len(tweets))
	for i, t := range tweets {
		base[i] = &models.TweetView{Tweet: *t}
	}
	return s.views.Tweets().Run(ctx, base, q)
}

func (s *TweetService) UpdateTweet(ctx context.Context, tweetID uint, content string, viewer relview.Viewer) (*models.TweetView, error) {
	content, err := requireText("Content", content, maxContentLen)
	if err != nil {
		return nil, err
	}
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(viewer, tweet.OwnerID, "tweet"); err != nil {
		return nil, err
	}
	updated, err := s.tweets.UpdateContent(ctx, tweetID, content)
	if err != nil {
		return nil, err
	}
	return s.expandOne(ctx, updated, viewer)
}

// DeleteTweet removes the tweet and the likes on it.
func (s *TweetService) DeleteTweet(ctx context.Context, tweetID uint, viewer relview.Viewer) error {
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return err
	}
	if err := requireOwner(viewer, tweet.OwnerID, "tweet"); err != nil {
		return err
	}
	return withRetry(ctx, "tweet", func() error {
		return s.tweets.Delete(ctx, tweetID)
	})
}

func (s *TweetService) expandOne(ctx context.Context, tweet *models.Tweet, viewer relview.Viewer) (*models.TweetView, error) {
	view, _, err := s.views.Tweets().One(ctx, &models.TweetView{Tweet: *tweet}, viewer)
	return view, err
}

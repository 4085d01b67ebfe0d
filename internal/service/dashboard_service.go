package service

import (
	"context"

	"videotube/internal/cache"
	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

type DashboardService struct {
	videos repository.VideoRepository
	likes  repository.LikeRepository
	subs   repository.SubscriptionRepository
	views  *Views
}

func NewDashboardService(
	videos repository.VideoRepository,
	likes repository.LikeRepository,
	subs repository.SubscriptionRepository,
	views *Views,
) *DashboardService {
	return &DashboardService{videos: videos, likes: likes, subs: subs, views: views}
}

// ChannelStats returns the viewer's channel totals. Results are cached
// briefly and dropped when a like, subscription or upload changes them.
func (s *DashboardService) ChannelStats(ctx context.Context, viewer relview.Viewer) (*models.ChannelStats, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}

	var stats models.ChannelStats
	err := cache.Aside(ctx, cache.ChannelStatsKey(viewer.ID), &stats, cache.ChannelStatsTTL, func() error {
		subscribers, err := s.subs.CountSubscribers(ctx, viewer.ID)
		if err != nil {
			return err
		}
		likes, err := s.likes.CountOnOwnerVideos(ctx, viewer.ID)
		if err != nil {
			return err
		}
		totals, err := s.videos.Totals(ctx, viewer.ID)
		if err != nil {
			return err
		}
		stats = models.ChannelStats{
			TotalSubscribers: subscribers,
			TotalLikes:       likes,
			TotalViews:       totals.Views,
			TotalVideos:      totals.Videos,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ChannelVideos lists all of the viewer's videos, drafts included.
func (s *DashboardService) ChannelVideos(ctx context.Context, viewer relview.Viewer, sort relview.SortSpec, req relview.PageRequest) (relview.Page[*models.VideoView], error) {
	if err := requireViewer(viewer); err != nil {
		return relview.Page[*models.VideoView]{}, err
	}
	videos, err := s.videos.List(ctx, repository.VideoFilter{OwnerID: viewer.ID, IncludeUnpublished: true})
	if err != nil {
		return relview.Page[*models.VideoView]{}, err
	}
	return s.views.Videos().Run(ctx, videoViews(videos), relview.Query{Sort: sort, Page: req, Viewer: viewer})
}

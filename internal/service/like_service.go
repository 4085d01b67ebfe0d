package service

import (
	"context"

	"videotube/internal/cache"
	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

type LikeService struct {
	likes    repository.LikeRepository
	videos   repository.VideoRepository
	comments repository.CommentRepository
	tweets   repository.TweetRepository
	views    *Views
}

func NewLikeService(
	likes repository.LikeRepository,
	videos repository.VideoRepository,
	comments repository.CommentRepository,
	tweets repository.TweetRepository,
	views *Views,
) *LikeService {
	return &LikeService{likes: likes, videos: videos, comments: comments, tweets: tweets, views: views}
}

// ToggleLike likes the target, or removes the viewer's like if present, and
// reports whether the viewer likes it afterwards.
func (s *LikeService) ToggleLike(ctx context.Context, target models.LikeTarget, viewer relview.Viewer) (bool, error) {
	if err := requireViewer(viewer); err != nil {
		return false, err
	}

	var channelID uint
	switch target.Kind {
	case models.LikeTargetVideo:
		video, err := visibleVideo(ctx, s.videos, target.ID, viewer)
		if err != nil {
			return false, err
		}
		channelID = video.OwnerID
	case models.LikeTargetComment:
		comment, err := s.comments.GetByID(ctx, target.ID)
		if err != nil {
			return false, err
		}
		if _, err := visibleVideo(ctx, s.videos, comment.VideoID, viewer); err != nil {
			if models.IsKind(err, models.KindNotFound) {
				return false, models.NewNotFoundError("Comment", target.ID)
			}
			return false, err
		}
	case models.LikeTargetTweet:
		if _, err := s.tweets.GetByID(ctx, target.ID); err != nil {
			return false, err
		}
	default:
		return false, models.NewValidationError("Unknown like target")
	}

	liked, err := s.likes.Toggle(ctx, target, viewer.ID)
	if err != nil {
		return false, err
	}
	if channelID != 0 {
		cache.InvalidateChannel(ctx, channelID)
	}
	return liked, nil
}

// LikedVideos pages through the videos the viewer liked, most recent like
// first.
func (s *LikeService) LikedVideos(ctx context.Context, viewer relview.Viewer, req relview.PageRequest) (relview.Page[*models.VideoView], error) {
	if err := requireViewer(viewer); err != nil {
		return relview.Page[*models.VideoView]{}, err
	}
	likes, err := s.likes.VideoLikesBy(ctx, viewer.ID)
	if err != nil {
		return relview.Page[*models.VideoView]{}, err
	}
	ids := make([]uint, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.TargetID())
	}
	videos, err := s.videos.ByIDs(ctx, ids)
	if err != nil {
		return relview.Page[*models.VideoView]{}, err
	}

	ordered := inOrder(videoViews(videos), ids, func(v *models.VideoView) uint { return v.ID })
	ordered = relview.Filter(ordered, visibleTo(viewer))
	return expandPage(ctx, s.views.Videos(), ordered, req, viewer)
}

// inOrder arranges records to follow ids. Ids without a record are skipped.
func inOrder[T any](records []T, ids []uint, id func(T) uint) []T {
	byID := make(map[uint]T, len(records))
	for _, r := range records {
		byID[id(r)] = r
	}
	out := make([]T, 0, len(ids))
	for _, i := range ids {
		if r, ok := byID[i]; ok {
			out = append(out, r)
		}
	}
	return out
}

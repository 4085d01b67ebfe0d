package service

import (
	"context"

	"videotube/internal/cache"
	"videotube/internal/media"
	"videotube/internal/models"
	"videotube/internal/observability"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

// MediaRemover deletes objects that are no longer referenced, deferring
// failures.
type MediaRemover interface {
	Remove(ctx context.Context, handles ...string)
}

type VideoService struct {
	videos  repository.VideoRepository
	users   repository.UserRepository
	views   *Views
	store   media.Store
	remover MediaRemover
	spawn   spawn
}

func NewVideoService(
	videos repository.VideoRepository,
	users repository.UserRepository,
	views *Views,
	store media.Store,
	remover MediaRemover,
) *VideoService {
	return &VideoService{
		videos:  videos,
		users:   users,
		views:   views,
		store:   store,
		remover: remover,
		spawn:   goSpawn,
	}
}

type ListVideosInput struct {
	Query   string
	OwnerID uint
	Sort    relview.SortSpec
	Page    relview.PageRequest
	Viewer  relview.Viewer
}

type PublishVideoInput struct {
	Title       string
	Description string
	Duration    float64
	VideoFile   *media.Object
	Thumbnail   *media.Object
	Viewer      relview.Viewer
}

type UpdateVideoInput struct {
	VideoID     uint
	Title       string
	Description string
	// Thumbnail replaces the current thumbnail when set.
	Thumbnail *media.Object
	Viewer    relview.Viewer
}

// ListVideos returns published videos, optionally narrowed by a text query
// or an owner.
func (s *VideoService) ListVideos(ctx context.Context, in ListVideosInput) (relview.Page[*models.VideoView], error) {
	if in.OwnerID != 0 {
		if _, err := s.users.GetByID(ctx, in.OwnerID); err != nil {
			return relview.Page[*models.VideoView]{}, err
		}
	}
	videos, err := s.videos.List(ctx, repository.VideoFilter{Query: in.Query, OwnerID: in.OwnerID})
	if err != nil {
		return relview.Page[*models.VideoView]{}, err
	}
	return s.views.Videos().Run(ctx, videoViews(videos), relview.Query{Sort: in.Sort, Page: in.Page, Viewer: in.Viewer})
}

// PublishVideo stores both files and creates the video unpublished.
func (s *VideoService) PublishVideo(ctx context.Context, in PublishVideoInput) (*models.VideoView, error) {
	if err := requireViewer(in.Viewer); err != nil {
		return nil, err
	}
	title, err := requireText("Title", in.Title, maxTitleLen)
	if err != nil {
		return nil, err
	}
	description, err := requireText("Description", in.Description, maxDescriptionLen)
	if err != nil {
		return nil, err
	}
	if in.VideoFile == nil {
		return nil, models.NewValidationError("Video file is required")
	}
	if in.Thumbnail == nil {
		return nil, models.NewValidationError("Thumbnail is required")
	}
	if in.Duration < 0 {
		return nil, models.NewValidationError("Duration must not be negative")
	}

	in.VideoFile.Folder = "videos"
	videoRef, err := s.store.Upload(ctx, *in.VideoFile)
	if err != nil {
		return nil, models.NewDependencyError(err)
	}
	in.Thumbnail.Folder = "thumbnails"
	thumbRef, err := s.store.Upload(ctx, *in.Thumbnail)
	if err != nil {
		s.remover.Remove(ctx, videoRef.Handle)
		return nil, models.NewDependencyError(err)
	}

	video := &models.Video{
		Title:        title,
		Description:  description,
		Duration:     in.Duration,
		VideoFile:    videoRef.URL,
		VideoFileKey: videoRef.Handle,
		Thumbnail:    thumbRef.URL,
		ThumbnailKey: thumbRef.Handle,
		OwnerID:      in.Viewer.ID,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		s.remover.Remove(ctx, videoRef.Handle, thumbRef.Handle)
		return nil, err
	}
	cache.InvalidateChannel(ctx, video.OwnerID)

	return s.expandOne(ctx, video, in.Viewer)
}

// GetVideo returns one video. Unpublished videos are only visible to their
// owner. Opening a video counts a view and records it in the viewer's
// history after the response is built.
func (s *VideoService) GetVideo(ctx context.Context, videoID uint, viewer relview.Viewer) (*models.VideoView, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsPublished && !viewer.Is(video.OwnerID) {
		return nil, models.NewNotFoundError("Video", videoID)
	}

	view, err := s.expandOne(ctx, video, viewer)
	if err != nil {
		return nil, err
	}

	bg := context.WithoutCancel(ctx)
	s.spawn(func() {
		if err := s.videos.IncrementViews(bg, videoID); err != nil {
			observability.LogAsyncOperationError(bg, "increment_views", err, map[string]any{"video_id": videoID})
		}
		if viewer.IsAnonymous() {
			return
		}
		if err := s.users.AppendWatch(bg, viewer.ID, videoID); err != nil {
			observability.LogAsyncOperationError(bg, "append_watch_history", err, map[string]any{"video_id": videoID})
		}
	})
	return view, nil
}

// UpdateVideo replaces the title and description and optionally the thumbnail.
// The previous thumbnail is removed once the row points at the new one.
func (s *VideoService) UpdateVideo(ctx context.Context, in UpdateVideoInput) (*models.VideoView, error) {
	title, err := requireText("Title", in.Title, maxTitleLen)
	if err != nil {
		return nil, err
	}
	description, err := requireText("Description", in.Description, maxDescriptionLen)
	if err != nil {
		return nil, err
	}
	video, err := s.videos.GetByID(ctx, in.VideoID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(in.Viewer, video.OwnerID, "video"); err != nil {
		return nil, err
	}

	fields := repository.VideoFields{Title: &title, Description: &description}
	var newThumb media.Ref
	if in.Thumbnail != nil {
		in.Thumbnail.Folder = "thumbnails"
		newThumb, err = s.store.Upload(ctx, *in.Thumbnail)
		if err != nil {
			return nil, models.NewDependencyError(err)
		}
		fields.Thumbnail = &newThumb.URL
		fields.ThumbnailKey = &newThumb.Handle
	}

	updated, err := s.videos.Update(ctx, video.ID, fields)
	if err != nil {
		s.remover.Remove(ctx, newThumb.Handle)
		return nil, err
	}
	if in.Thumbnail != nil {
		s.remover.Remove(ctx, video.ThumbnailKey)
	}

	return s.expandOne(ctx, updated, in.Viewer)
}

// DeleteVideo removes the video with its likes, comments (and their likes),
// playlist entries and history entries, then its media.
func (s *VideoService) DeleteVideo(ctx context.Context, videoID uint, viewer relview.Viewer) error {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if err := requireOwner(viewer, video.OwnerID, "video"); err != nil {
		return err
	}

	var deleted *models.Video
	err = withRetry(ctx, "video", func() error {
		var derr error
		deleted, derr = s.videos.DeleteCascade(ctx, videoID)
		return derr
	})
	if err != nil {
		return err
	}

	cache.InvalidateChannel(ctx, video.OwnerID)
	s.remover.Remove(ctx, deleted.MediaKeys()...)
	return nil
}

// TogglePublish flips the published flag.
func (s *VideoService) TogglePublish(ctx context.Context, videoID uint, viewer relview.Viewer) (*models.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(viewer, video.OwnerID, "video"); err != nil {
		return nil, err
	}
	updated, err := s.videos.SetPublished(ctx, videoID, !video.IsPublished)
	if err != nil {
		return nil, err
	}
	cache.InvalidateChannel(ctx, video.OwnerID)
	return updated, nil
}

func (s *VideoService) expandOne(ctx context.Context, video *models.Video, viewer relview.Viewer) (*models.VideoView, error) {
	view, _, err := s.views.Videos().One(ctx, &models.VideoView{Video: *video}, viewer)
	return view, err
}

package service

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

type CommentService struct {
	comments repository.CommentRepository
	videos   repository.VideoRepository
	views    *Views
}

func NewCommentService(comments repository.CommentRepository, videos repository.VideoRepository, views *Views) *CommentService {
	return &CommentService{comments: comments, videos: videos, views: views}
}

type ListCommentsInput struct {
	VideoID uint
	Sort    relview.SortSpec
	Page    relview.PageRequest
	Viewer  relview.Viewer
}

type AddCommentInput struct {
	VideoID uint
	Content string
	Viewer  relview.Viewer
}

// ListComments pages through the comments of a visible video, newest first
// unless another order is requested.
func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) (relview.Page[*models.CommentView], error) {
	if _, err := visibleVideo(ctx, s.videos, in.VideoID, in.Viewer); err != nil {
		return relview.Page[*models.CommentView]{}, err
	}
	comments, err := s.comments.ListByVideo(ctx, in.VideoID)
	if err != nil {
		return relview.Page[*models.CommentView]{}, err
	}
	base := make([]*models.CommentView, len(comments))
	for i, c := range comments {
		base[i] = &models.CommentView{Comment: *c}
	}
	return s.views.Comments().Run(ctx, base, relview.Query{Sort: in.Sort, Page: in.Page, Viewer: in.Viewer})
}

func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.CommentView, error) {
	if err := requireViewer(in.Viewer); err != nil {
		return nil, err
	}
	content, err := requireText("Content", in.Content, maxContentLen)
	if err != nil {
		return nil, err
	}
	if _, err := visibleVideo(ctx, s.videos, in.VideoID, in.Viewer); err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, VideoID: in.VideoID, OwnerID: in.Viewer.ID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.expandOne(ctx, comment, in.Viewer)
}

func (s *CommentService) UpdateComment(ctx context.Context, commentID uint, content string, viewer relview.Viewer) (*models.CommentView, error) {
	content, err := requireText("Content", content, maxContentLen)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(viewer, comment.OwnerID, "comment"); err != nil {
		return nil, err
	}
	updated, err := s.comments.UpdateContent(ctx, commentID, content)
	if err != nil {
		return nil, err
	}
	return s.expandOne(ctx, updated, viewer)
}

// DeleteComment removes the comment and the likes on it.
func (s *CommentService) DeleteComment(ctx context.Context, commentID uint, viewer relview.Viewer) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := requireOwner(viewer, comment.OwnerID, "comment"); err != nil {
		return err
	}
	return withRetry(ctx, "comment", func() error {
		return s.comments.Delete(ctx, commentID)
	})
}

func (s *CommentService) expandOne(ctx context.Context, comment *models.Comment, viewer relview.Viewer) (*models.CommentView, error) {
	view, _, err := s.views.Comments().One(ctx, &models.CommentView{Comment: *comment}, viewer)
	return view, err
}

package repository

import (
	"context"
	"strings"

	"videotube/internal/models"

	"gorm.io/gorm"
)

// VideoFilter narrows the base set of a video listing.
type VideoFilter struct {
	// Query matches title or description, case-insensitively.
	Query   string
	OwnerID uint
	// IncludeUnpublished is only set for the owner's own dashboard.
	IncludeUnpublished bool
}

// VideoFields lists the mutable video columns. Nil fields are left as is.
type VideoFields struct {
	Title        *string
	Description  *string
	Thumbnail    *string
	ThumbnailKey *string
}

// OwnerTotals aggregates a channel's uploads.
type OwnerTotals struct {
	Videos int64
	Views  int64
}

// VideoRepository defines persistence operations for videos.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id uint) (*models.Video, error)
	List(ctx context.Context, filter VideoFilter) ([]*models.Video, error)
	ByIDs(ctx context.Context, ids []uint) ([]*models.Video, error)
	// LatestByOwners returns the newest published video of each owner.
	LatestByOwners(ctx context.Context, ownerIDs []uint) ([]*models.Video, error)
	Update(ctx context.Context, id uint, fields VideoFields) (*models.Video, error)
	SetPublished(ctx context.Context, id uint, published bool) (*models.Video, error)
	IncrementViews(ctx context.Context, id uint) error
	Totals(ctx context.Context, ownerID uint) (OwnerTotals, error)
	// DeleteCascade removes the video and everything that references it in
	// one transaction and returns the deleted row.
	DeleteCascade(ctx context.Context, id uint) (*models.Video, error)
}

type videoRepository struct {
	base
}

// NewVideoRepository creates a new VideoRepository
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{base: newBase(db, "videos")}
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) (err error) {
	ctx, end := r.observe(ctx, "Create")
	defer end(&err)
	return r.translate(r.db.WithContext(ctx).Create(video).Error, "Video", video.Title)
}

func (r *videoRepository) GetByID(ctx context.Context, id uint) (_ *models.Video, err error) {
	ctx, end := r.observe(ctx, "GetByID")
	defer end(&err)

	var video models.Video
	if err := r.db.WithContext(ctx).First(&video, id).Error; err != nil {
		return nil, r.translate(err, "Video", id)
	}
	return &video, nil
}

func (r *videoRepository) List(ctx context.Context, filter VideoFilter) (_ []*models.Video, err error) {
	ctx, end := r.observe(ctx, "List")
	defer end(&err)

	q := r.db.WithContext(ctx).Model(&models.Video{})
	if !filter.IncludeUnpublished {
		q = q.Where("is_published = ?", true)
	}
	if filter.OwnerID != 0 {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + escapeLike(term) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like)
	}

	var videos []*models.Video
	if err := q.Find(&videos).Error; err != nil {
		return nil, r.translate(err, "Video", "list")
	}
	return videos, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *videoRepository) ByIDs(ctx context.Context, ids []uint) (_ []*models.Video, err error) {
	ctx, end := r.observe(ctx, "ByIDs")
	defer end(&err)

	var videos []*models.Video
	if len(ids) == 0 {
		return videos, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&videos).Error; err != nil {
		return nil, r.translate(err, "Video", ids)
	}
	return videos, nil
}

func (r *videoRepository) LatestByOwners(ctx context.Context, ownerIDs []uint) (_ []*models.Video, err error) {
	ctx, end := r.observe(ctx, "LatestByOwners")
	defer end(&err)

	var videos []*models.Video
	if len(ownerIDs) == 0 {
		return videos, nil
	}
	err = r.db.WithContext(ctx).
		Where("id IN (SELECT MAX(id) FROM videos WHERE owner_id IN ? AND is_published = ? GROUP BY owner_id)", ownerIDs, true).
		Find(&videos).Error
	if err != nil {
		return nil, r.translate(err, "Video", ownerIDs)
	}
	return videos, nil
}

func (r *videoRepository) Update(ctx context.Context, id uint, fields VideoFields) (_ *models.Video, err error) {
	ctx, end := r.observe(ctx, "Update")
	defer end(&err)

	cols := make(map[string]any)
	if fields.Title != nil {
		cols["title"] = *fields.Title
	}
	if fields.Description != nil {
		cols["description"] = *fields.Description
	}
	if fields.Thumbnail != nil {
		cols["thumbnail"] = *fields.Thumbnail
	}
	if fields.ThumbnailKey != nil {
		cols["thumbnail_key"] = *fields.ThumbnailKey
	}
	return r.updateColumns(ctx, id, cols)
}

func (r *videoRepository) SetPublished(ctx context.Context, id uint, published bool) (_ *models.Video, err error) {
	ctx, end := r.observe(ctx, "SetPublished")
	defer end(&err)
	return r.updateColumns(ctx, id, map[string]any{"is_published": published})
}

func (r *videoRepository) updateColumns(ctx context.Context, id uint, cols map[string]any) (*models.Video, error) {
	if len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, r.translate(res.Error, "Video", id)
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("Video", id)
		}
	}
	var video models.Video
	if err := r.db.WithContext(ctx).First(&video, id).Error; err != nil {
		return nil, r.translate(err, "Video", id)
	}
	return &video, nil
}

func (r *videoRepository) IncrementViews(ctx context.Context, id uint) (err error) {
	ctx, end := r.observe(ctx, "IncrementViews")
	defer end(&err)

	err = r.db.WithContext(ctx).Model(&models.Video{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	return r.translate(err, "Video", id)
}

func (r *videoRepository) Totals(ctx context.Context, ownerID uint) (_ OwnerTotals, err error) {
	ctx, end := r.observe(ctx, "Totals")
	defer end(&err)

	var totals OwnerTotals
	err = r.db.WithContext(ctx).Model(&models.Video{}).
		Select("COUNT(*) AS videos, COALESCE(SUM(views), 0) AS views").
		Where("owner_id = ?", ownerID).
		Scan(&totals).Error
	if err != nil {
		return OwnerTotals{}, r.translate(err, "Video", ownerID)
	}
	return totals, nil
}

func (r *videoRepository) DeleteCascade(ctx context.Context, id uint) (_ *models.Video, err error) {
	ctx, end := r.observe(ctx, "DeleteCascade")
	defer end(&err)

	var video models.Video
	counts := make(map[string]any, 6)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&video, id).Error; err != nil {
			return err
		}

		steps := []struct {
			name string
			run  func() *gorm.DB
		}{
			{"comment_likes", func() *gorm.DB {
				return tx.Where("comment_id IN (SELECT id FROM comments WHERE video_id = ?)", id).Delete(&models.Like{})
			}},
			{"video_likes", func() *gorm.DB { return tx.Where("video_id = ?", id).Delete(&models.Like{}) }},
			{"comments", func() *gorm.DB { return tx.Where("video_id = ?", id).Delete(&models.Comment{}) }},
			{"playlist_entries", func() *gorm.DB { return tx.Where("video_id = ?", id).Delete(&models.PlaylistVideo{}) }},
			{"watch_entries", func() *gorm.DB { return tx.Where("video_id = ?", id).Delete(&models.WatchEntry{}) }},
			{"video", func() *gorm.DB { return tx.Delete(&models.Video{}, id) }},
		}
		for _, step := range steps {
			res := step.run()
			if res.Error != nil {
				return res.Error
			}
			counts[step.name] = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, r.translate(err, "Video", id)
	}

	counts["video_id"] = id
	r.log.LogCascade(ctx, counts)
	return &video, nil
}

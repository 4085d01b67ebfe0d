package repository

import (
	"context"

	"videotube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaylistRepository defines persistence operations for playlists and their entries.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	GetByID(ctx context.Context, id uint) (*models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Playlist, error)
	Update(ctx context.Context, id uint, name, description *string) (*models.Playlist, error)
	// Delete removes the playlist and its entries. Videos are untouched.
	Delete(ctx context.Context, id uint) error
	// AddVideo appends a video unless it is already in the playlist and
	// reports whether a row was added.
	AddVideo(ctx context.Context, playlistID, videoID uint) (bool, error)
	// RemoveVideo reports whether the video was in the playlist.
	RemoveVideo(ctx context.Context, playlistID, videoID uint) (bool, error)
	// EntriesByPlaylists loads entries of each playlist in position order.
	EntriesByPlaylists(ctx context.Context, playlistIDs []uint) ([]models.PlaylistVideo, error)
}

type playlistRepository struct {
	base
}

func NewPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &playlistRepository{base: newBase(db, "playlists")}
}

func (r *playlistRepository) Create(ctx context.Context, playlist *models.Playlist) (err error) {
	ctx, end := r.observe(ctx, "Create")
	defer end(&err)
	return r.translate(r.db.WithContext(ctx).Create(playlist).Error, "Playlist", playlist.Name)
}

func (r *playlistRepository) GetByID(ctx context.Context, id uint) (_ *models.Playlist, err error) {
	ctx, end := r.observe(ctx, "GetByID")
	defer end(&err)

	var playlist models.Playlist
	if err := r.db.WithContext(ctx).First(&playlist, id).Error; err != nil {
		return nil, r.translate(err, "Playlist", id)
	}
	return &playlist, nil
}

func (r *playlistRepository) ListByOwner(ctx context.Context, ownerID uint) (_ []*models.Playlist, err error) {
	ctx, end := r.observe(ctx, "ListByOwner")
	defer end(&err)

	var playlists []*models.Playlist
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&playlists).Error; err != nil {
		return nil, r.translate(err, "Playlist", ownerID)
	}
	return playlists, nil
}

func (r *playlistRepository) Update(ctx context.Context, id uint, name, description *string) (_ *models.Playlist, err error) {
	ctx, end := r.observe(ctx, "Update")
	defer end(&err)

	cols := make(map[string]any, 2)
	if name != nil {
		cols["name"] = *name
	}
	if description != nil {
		cols["description"] = *description
	}
	if len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Playlist{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, r.translate(res.Error, "Playlist", id)
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("Playlist", id)
		}
	}

	var playlist models.Playlist
	if err := r.db.WithContext(ctx).First(&playlist, id).Error; err != nil {
		return nil, r.translate(err, "Playlist", id)
	}
	return &playlist, nil
}

func (r *playlistRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, end := r.observe(ctx, "Delete")
	defer end(&err)

	var entries int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("playlist_id = ?", id).Delete(&models.PlaylistVideo{})
		if res.Error != nil {
			return res.Error
		}
		entries = res.RowsAffected

		res = tx.Delete(&models.Playlist{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return r.translate(err, "Playlist", id)
	}

	r.log.LogCascade(ctx, map[string]any{"playlist_id": id, "entries": entries})
	return nil
}

func (r *playlistRepository) AddVideo(ctx context.Context, playlistID, videoID uint) (added bool, err error) {
	ctx, end := r.observe(ctx, "AddVideo")
	defer end(&err)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&models.PlaylistVideo{}).
			Select("COALESCE(MAX(position), 0)").
			Where("playlist_id = ?", playlistID).
			Scan(&last).Error; err != nil {
			return err
		}

		entry := &models.PlaylistVideo{PlaylistID: playlistID, VideoID: videoID, Position: last + 1}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, r.translate(err, "Playlist", playlistID)
	}
	return added, nil
}

func (r *playlistRepository) RemoveVideo(ctx context.Context, playlistID, videoID uint) (_ bool, err error) {
	ctx, end := r.observe(ctx, "RemoveVideo")
	defer end(&err)

	res := r.db.WithContext(ctx).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Delete(&models.PlaylistVideo{})
	if res.Error != nil {
		return false, r.translate(res.Error, "Playlist", playlistID)
	}
	return res.RowsAffected > 0, nil
}

func (r *playlistRepository) EntriesByPlaylists(ctx context.Context, playlistIDs []uint) (_ []models.PlaylistVideo, err error) {
	ctx, end := r.observe(ctx, "EntriesByPlaylists")
	defer end(&err)

	var entries []models.PlaylistVideo
	if len(playlistIDs) == 0 {
		return entries, nil
	}
	err = r.db.WithContext(ctx).
		Where("playlist_id IN ?", playlistIDs).
		Order("position ASC").Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, r.translate(err, "Playlist", playlistIDs)
	}
	return entries, nil
}

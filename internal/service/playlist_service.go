package service

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

type PlaylistService struct {
	playlists repository.PlaylistRepository
	videos    repository.VideoRepository
	users     repository.UserRepository
	views     *Views
}

func NewPlaylistService(
	playlists repository.PlaylistRepository,
	videos repository.VideoRepository,
	users repository.UserRepository,
	views *Views,
) *PlaylistService {
	return &PlaylistService{playlists: playlists, videos: videos, users: users, views: views}
}

type CreatePlaylistInput struct {
	Name        string
	Description string
	Viewer      relview.Viewer
}

type UpdatePlaylistInput struct {
	PlaylistID  uint
	Name        *string
	Description *string
	Viewer      relview.Viewer
}

func (s *PlaylistService) CreatePlaylist(ctx context.Context, in CreatePlaylistInput) (*models.PlaylistView, error) {
	if err := requireViewer(in.Viewer); err != nil {
		return nil, err
	}
	name, err := requireText("Name", in.Name, maxNameLen)
	if err != nil {
		return nil, err
	}
	description, err := requireText("Description", in.Description, maxDescriptionLen)
	if err != nil {
		return nil, err
	}

	playlist := &models.Playlist{Name: name, Description: description, OwnerID: in.Viewer.ID}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		return nil, err
	}
	return s.expandOne(ctx, playlist, in.Viewer)
}

// UserPlaylists pages through a user's playlists with their totals.
func (s *PlaylistService) UserPlaylists(ctx context.Context, userID uint, q relview.Query) (relview.Page[*models.PlaylistView], error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return relview.Page[*models.PlaylistView]{}, err
	}
	playlists, err := s.playlists.ListByOwner(ctx, userID)
	if err != nil {
		return relview.Page[*models.PlaylistView]{}, err
	}
	base := make([]*models.PlaylistView, len(playlists))
	for i, p := range playlists {
		base[i] = &models.PlaylistView{Playlist: *p}
	}
	return s.views.Playlists(false).Run(ctx, base, q)
}

// GetPlaylist returns a playlist with its published videos in playlist order.
func (s *PlaylistService) GetPlaylist(ctx context.Context, playlistID uint, viewer relview.Viewer) (*models.PlaylistView, error) {
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return s.expandOne(ctx, playlist, viewer)
}

// AddVideo appends a video to the viewer's playlist. Adding a video that is
// already there changes nothing.
func (s *PlaylistService) AddVideo(ctx context.Context, playlistID, videoID uint, viewer relview.Viewer) (*models.PlaylistView, error) {
	playlist, err := s.ownedPlaylist(ctx, playlistID, viewer)
	if err != nil {
		return nil, err
	}
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		return nil, err
	}
	if _, err := s.playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		return nil, err
	}
	return s.expandOne(ctx, playlist, viewer)
}

// RemoveVideo takes a video out of the viewer's playlist.
func (s *PlaylistService) RemoveVideo(ctx context.Context, playlistID, videoID uint, viewer relview.Viewer) (*models.PlaylistView, error) {
	playlist, err := s.ownedPlaylist(ctx, playlistID, viewer)
	if err != nil {
		return nil, err
	}
	removed, err := s.playlists.RemoveVideo(ctx, playlistID, videoID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, models.NewNotFoundError("Playlist video", videoID)
	}
	return s.expandOne(ctx, playlist, viewer)
}

// UpdatePlaylist renames or redescribes the playlist. At least one field is required.
func (s *PlaylistService) UpdatePlaylist(ctx context.Context, in UpdatePlaylistInput) (*models.PlaylistView, error) {
	if in.Name == nil && in.Description == nil {
		return nil, models.NewValidationError("Name or description is required")
	}
	name, err := optionalText("Name", in.Name, maxNameLen)
	if err != nil {
		return nil, err
	}
	description, err := optionalText("Description", in.Description, maxDescriptionLen)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedPlaylist(ctx, in.PlaylistID, in.Viewer); err != nil {
		return nil, err
	}
	updated, err := s.playlists.Update(ctx, in.PlaylistID, name, description)
	if err != nil {
		return nil, err
	}
	return s.expandOne(ctx, updated, in.Viewer)
}

// DeletePlaylist removes the playlist. Its videos are untouched.
func (s *PlaylistService) DeletePlaylist(ctx context.Context, playlistID uint, viewer relview.Viewer) error {
	if _, err := s.ownedPlaylist(ctx, playlistID, viewer); err != nil {
		return err
	}
	return withRetry(ctx, "playlist", func() error {
		return s.playlists.Delete(ctx, playlistID)
	})
}

func (s *PlaylistService) ownedPlaylist(ctx context.Context, playlistID uint, viewer relview.Viewer) (*models.Playlist, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(viewer, playlist.OwnerID, "playlist"); err != nil {
		return nil, err
	}
	return playlist, nil
}

func (s *PlaylistService) expandOne(ctx context.Context, playlist *models.Playlist, viewer relview.Viewer) (*models.PlaylistView, error) {
	view, _, err := s.views.Playlists(true).One(ctx, &models.PlaylistView{Playlist: *playlist}, viewer)
	return view, err
}

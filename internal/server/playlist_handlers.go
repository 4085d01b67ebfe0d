package server

import (
	"videotube/internal/middleware"
	"videotube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePlaylist handles POST /api/v1/playlists
func (s *Server) CreatePlaylist(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	playlist, err := s.playlists.CreatePlaylist(c.UserContext(), service.CreatePlaylistInput{
		Name:        req.Name,
		Description: req.Description,
		Viewer:      middleware.ViewerFrom(c),
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(playlist)
}

// UserPlaylists handles GET /api/v1/playlists/user/:userId
func (s *Server) UserPlaylists(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	page, err := s.playlists.UserPlaylists(c.UserContext(), userID, listQuery(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(page)
}

// GetPlaylist handles GET /api/v1/playlists/:playlistId
func (s *Server) GetPlaylist(c *fiber.Ctx) error {
	playlistID, err := s.parseID(c, "playlistId")
	if err != nil {
		return nil
	}

	playlist, err := s.playlists.GetPlaylist(c.UserContext(), playlistID, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(playlist)
}

func (s *Server) playlistMembership(c *fiber.Ctx) (videoID, playlistID uint, ok bool) {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return 0, 0, false
	}
	playlistID, err = s.parseID(c, "playlistId")
	if err != nil {
		return 0, 0, false
	}
	return videoID, playlistID, true
}

// AddVideoToPlaylist handles PATCH /api/v1/playlists/add/:videoId/:playlistId
func (s *Server) AddVideoToPlaylist(c *fiber.Ctx) error {
	videoID, playlistID, ok := s.playlistMembership(c)
	if !ok {
		return nil
	}

	playlist, err := s.playlists.AddVideo(c.UserContext(), playlistID, videoID, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(playlist)
}

// RemoveVideoFromPlaylist handles PATCH /api/v1/playlists/remove/:videoId/:playlistId
func (s *Server) RemoveVideoFromPlaylist(c *fiber.Ctx) error {
	videoID, playlistID, ok := s.playlistMembership(c)
	if !ok {
		return nil
	}

	playlist, err := s.playlists.RemoveVideo(c.UserContext(), playlistID, videoID, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(playlist)
}

// UpdatePlaylist handles PATCH /api/v1/playlists/:playlistId. Omitted
// fields keep their current value.
func (s *Server) UpdatePlaylist(c *fiber.Ctx) error {
	playlistID, err := s.parseID(c, "playlistId")
	if err != nil {
		return nil
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	playlist, err := s.playlists.UpdatePlaylist(c.UserContext(), service.UpdatePlaylistInput{
		PlaylistID:  playlistID,
		Name:        req.Name,
		Description: req.Description,
		Viewer:      middleware.ViewerFrom(c),
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(playlist)
}

// DeletePlaylist handles DELETE /api/v1/playlists/:playlistId
func (s *Server) DeletePlaylist(c *fiber.Ctx) error {
	playlistID, err := s.parseID(c, "playlistId")
	if err != nil {
		return nil
	}

	if err := s.playlists.DeletePlaylist(c.UserContext(), playlistID, middleware.ViewerFrom(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "Playlist deleted"})
}

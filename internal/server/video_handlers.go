package server

import (
	"videotube/internal/middleware"
	"videotube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListVideos handles GET /api/v1/videos
// Query: query, userId, page, limit, sortBy, sortType.
func (s *Server) ListVideos(c *fiber.Ctx) error {
	ownerID := c.QueryInt("userId", 0)
	if ownerID < 0 {
		return badRequest(c, "Invalid user ID")
	}

	q := listQuery(c)
	page, err := s.videos.ListVideos(c.UserContext(), service.ListVideosInput{
		Query:   c.Query("query"),
		OwnerID: uint(ownerID),
		Sort:    q.Sort,
		Page:    q.Page,
		Viewer:  q.Viewer,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(page)
}

// PublishVideo handles POST /api/v1/videos as multipart/form-data with
// title, description, duration, videoFile and thumbnail.
func (s *Server) PublishVideo(c *fiber.Ctx) error {
	var req struct {
		Title       string  `form:"title" json:"title"`
		Description string  `form:"description" json:"description"`
		Duration    float64 `form:"duration" json:"duration"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	files := &uploads{}
	defer files.Close()
	videoFile, err := s.formFile(c, files, "videoFile")
	if err != nil {
		return respondErr(c, err)
	}
	thumbnail, err := s.formFile(c, files, "thumbnail")
	if err != nil {
		return respondErr(c, err)
	}

	video, err := s.videos.PublishVideo(c.UserContext(), service.PublishVideoInput{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		VideoFile:   videoFile,
		Thumbnail:   thumbnail,
		Viewer:      middleware.ViewerFrom(c),
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(video)
}

// GetVideo handles GET /api/v1/videos/:videoId
func (s *Server) GetVideo(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	video, err := s.videos.GetVideo(c.UserContext(), videoID, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(video)
}

// UpdateVideo handles PATCH /api/v1/videos/:videoId. A thumbnail file in a
// multipart body replaces the current one.
func (s *Server) UpdateVideo(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	var req struct {
		Title       string `form:"title" json:"title"`
		Description string `form:"description" json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	files := &uploads{}
	defer files.Close()
	thumbnail, err := s.formFile(c, files, "thumbnail")
	if err != nil {
		return respondErr(c, err)
	}

	video, err := s.videos.UpdateVideo(c.UserContext(), service.UpdateVideoInput{
		VideoID:     videoID,
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   thumbnail,
		Viewer:      middleware.ViewerFrom(c),
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(video)
}

// DeleteVideo handles DELETE /api/v1/videos/:videoId
func (s *Server) DeleteVideo(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	if err := s.videos.DeleteVideo(c.UserContext(), videoID, middleware.ViewerFrom(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "Video deleted"})
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/:videoId
func (s *Server) TogglePublish(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	video, err := s.videos.TogglePublish(c.UserContext(), videoID, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"isPublished": video.IsPublished})
}

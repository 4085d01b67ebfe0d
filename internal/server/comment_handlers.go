package server

import (
	"videotube/internal/middleware"
	"videotube/internal/service"

	"github.com/gofiber/fiber/v2"
)

type contentRequest struct {
	Content string `json:"content" form:"content"`
}

// ListComments returns a page of a video's comments, newest first unless
// sortBy says otherwise.
func (s *Server) ListComments(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	q := listQuery(c)
	page, err := s.comments.ListComments(c.UserContext(), service.ListCommentsInput{
		VideoID: videoID,
		Sort:    q.Sort,
		Page:    q.Page,
		Viewer:  q.Viewer,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(page)
}

// AddComment creates a comment on a video (protected)
func (s *Server) AddComment(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := s.comments.AddComment(c.UserContext(), service.AddCommentInput{
		VideoID: videoID,
		Content: req.Content,
		Viewer:  middleware.ViewerFrom(c),
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment updates a comment (only owner)
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := s.comments.UpdateComment(c.UserContext(), commentID, req.Content, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment deletes a comment and its likes (only owner)
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.comments.DeleteComment(c.UserContext(), commentID, middleware.ViewerFrom(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

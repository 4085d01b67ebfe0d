package server

import (
	"videotube/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// CreateTweet handles POST /api/v1/tweets
func (s *Server) CreateTweet(c *fiber.Ctx) error {
	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	tweet, err := s.tweets.CreateTweet(c.UserContext(), req.Content, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tweet)
}

// ListUserTweets handles GET /api/v1/tweets/user/:userId
func (s *Server) ListUserTweets(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	page, err := s.tweets.ListUserTweets(c.UserContext(), userID, listQuery(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(page)
}

// UpdateTweet handles PATCH /api/v1/tweets/:tweetId
func (s *Server) UpdateTweet(c *fiber.Ctx) error {
	tweetID, err := s.parseID(c, "tweetId")
	if err != nil {
		return nil
	}

	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	tweet, err := s.tweets.UpdateTweet(c.UserContext(), tweetID, req.Content, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(tweet)
}

// DeleteTweet handles DELETE /api/v1/tweets/:tweetId
func (s *Server) DeleteTweet(c *fiber.Ctx) error {
	tweetID, err := s.parseID(c, "tweetId")
	if err != nil {
		return nil
	}

	if err := s.tweets.DeleteTweet(c.UserContext(), tweetID, middleware.ViewerFrom(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "Tweet deleted"})
}

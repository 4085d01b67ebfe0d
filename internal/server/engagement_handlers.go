package server

import (
	"videotube/internal/middleware"
	"videotube/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) toggleLike(c *fiber.Ctx, kind models.LikeTargetKind, param string) error {
	id, err := s.parseID(c, param)
	if err != nil {
		return nil
	}

	liked, err := s.likes.ToggleLike(c.UserContext(), models.LikeTarget{Kind: kind, ID: id}, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"isLiked": liked})
}

// ToggleVideoLike handles POST /api/v1/likes/toggle/v/:videoId
func (s *Server) ToggleVideoLike(c *fiber.Ctx) error {
	return s.toggleLike(c, models.LikeTargetVideo, "videoId")
}

// ToggleCommentLike handles POST /api/v1/likes/toggle/c/:commentId
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	return s.toggleLike(c, models.LikeTargetComment, "commentId")
}

// ToggleTweetLike handles POST /api/v1/likes/toggle/t/:tweetId
func (s *Server) ToggleTweetLike(c *fiber.Ctx) error {
	return s.toggleLike(c, models.LikeTargetTweet, "tweetId")
}

// LikedVideos handles GET /api/v1/likes/videos
func (s *Server) LikedVideos(c *fiber.Ctx) error {
	page, err := s.likes.LikedVideos(c.UserContext(), middleware.ViewerFrom(c), parsePage(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(page)
}

// ToggleSubscription handles POST /api/v1/subscriptions/c/:channelId
func (s *Server) ToggleSubscription(c *fiber.Ctx) error {
	channelID, err := s.parseID(c, "channelId")
	if err != nil {
		return nil
	}

	subscribed, err := s.subscriptions.ToggleSubscription(c.UserContext(), channelID, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"subscribed": subscribed})
}

// ChannelSubscribers handles GET /api/v1/subscriptions/c/:channelId
func (s *Server) ChannelSubscribers(c *fiber.Ctx) error {
	channelID, err := s.parseID(c, "channelId")
	if err != nil {
		return nil
	}

	page, err := s.subscriptions.ChannelSubscribers(c.UserContext(), channelID, middleware.ViewerFrom(c), parsePage(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(page)
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/:subscriberId
func (s *Server) SubscribedChannels(c *fiber.Ctx) error {
	subscriberID, err := s.parseID(c, "subscriberId")
	if err != nil {
		return nil
	}

	page, err := s.subscriptions.SubscribedChannels(c.UserContext(), subscriberID, middleware.ViewerFrom(c), parsePage(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(page)
}

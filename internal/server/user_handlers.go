package server

import (
	"context"
	"errors"
	"time"

	"videotube/internal/media"
	"videotube/internal/middleware"
	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ChannelProfile handles GET /api/v1/users/c/:username
func (s *Server) ChannelProfile(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	profile, err := s.users.ChannelProfile(ctx, c.Params("username"), middleware.ViewerFrom(c))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(models.ErrorResponse{Error: "Request timeout"})
		}
		return respondErr(c, err)
	}
	return c.JSON(profile)
}

// WatchHistory handles GET /api/v1/users/history, most recent first.
func (s *Server) WatchHistory(c *fiber.Ctx) error {
	page, err := s.users.WatchHistory(c.UserContext(), middleware.ViewerFrom(c), parsePage(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(page)
}

// UpdateAccount handles PATCH /api/v1/users/account
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := s.users.UpdateAccount(c.UserContext(), service.UpdateAccountInput{
		FullName: req.FullName,
		Email:    req.Email,
		Viewer:   middleware.ViewerFrom(c),
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(user)
}

// ChangePassword handles POST /api/v1/users/change-password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	err := s.users.ChangePassword(c.UserContext(), service.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
		Viewer:      middleware.ViewerFrom(c),
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed"})
}

type imageUpdate func(ctx context.Context, obj *media.Object, viewer relview.Viewer) (*models.User, error)

func (s *Server) replaceImage(c *fiber.Ctx, field string, update imageUpdate) error {
	files := &uploads{}
	defer files.Close()

	obj, err := s.formFile(c, files, field)
	if err != nil {
		return respondErr(c, err)
	}
	if obj == nil {
		return badRequest(c, "Image file is required")
	}

	user, err := update(c.UserContext(), obj, middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(user)
}

// UpdateAvatar handles PATCH /api/v1/users/avatar with an "avatar" file.
func (s *Server) UpdateAvatar(c *fiber.Ctx) error {
	return s.replaceImage(c, "avatar", s.users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image with a
// "coverImage" file.
func (s *Server) UpdateCoverImage(c *fiber.Ctx) error {
	return s.replaceImage(c, "coverImage", s.users.UpdateCoverImage)
}

// ChannelStats handles GET /api/v1/dashboard/stats for the viewer's channel.
func (s *Server) ChannelStats(c *fiber.Ctx) error {
	stats, err := s.dashboard.ChannelStats(c.UserContext(), middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(stats)
}

// ChannelVideos handles GET /api/v1/dashboard/videos, including unpublished ones.
func (s *Server) ChannelVideos(c *fiber.Ctx) error {
	page, err := s.dashboard.ChannelVideos(c.UserContext(), middleware.ViewerFrom(c), parseSort(c), parsePage(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(page)
}

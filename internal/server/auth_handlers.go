package server

import (
	"log/slog"
	"time"

	"videotube/internal/identity"
	"videotube/internal/middleware"
	"videotube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/v1/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := s.auth.Register(c.UserContext(), identity.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		if models.IsKind(err, models.KindConflict) {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("User with this username or email already exists"))
		}
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// Login handles POST /api/v1/auth/login. The login field accepts a username
// or an email address.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Login    string `json:"login"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	login := req.Login
	if login == "" {
		login = req.Username
	}
	if login == "" {
		login = req.Email
	}

	session, err := s.auth.Login(c.UserContext(), identity.LoginInput{Login: login, Password: req.Password})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(session)
}

// Logout revokes the presented token until it would have expired.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFrom(c)
	if ok && claims.JTI != "" && s.redis != nil {
		ttl := time.Until(claims.ExpiresAt)
		if ttl > 0 {
			if err := s.redis.Set(c.UserContext(), middleware.RevokedTokenKey(claims.JTI), "1", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token",
					slog.String("error", err.Error()))
				return models.RespondWithError(c, fiber.StatusServiceUnavailable, models.NewDependencyError(err))
			}
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// CurrentUser handles GET /api/v1/auth/me
func (s *Server) CurrentUser(c *fiber.Ctx) error {
	user, err := s.users.CurrentUser(c.UserContext(), middleware.ViewerFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(user)
}

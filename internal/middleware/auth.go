// Package middleware provides the HTTP middleware stack: authentication,
// request logging, tracing, metrics and rate limiting.
package middleware

import (
	"log/slog"
	"strings"

	"videotube/internal/identity"
	"videotube/internal/models"
	"videotube/internal/relview"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Verifier checks an access token and returns its claims.
type Verifier interface {
	Verify(token string) (identity.Claims, error)
}

// RevokedTokenKey is the Redis key marking a token id as logged out.
func RevokedTokenKey(jti string) string {
	return "blacklist:" + jti
}

// Authenticate resolves the acting user from a Bearer token. When required
// is false, requests without a token continue as anonymous viewers; a
// token that is present but invalid is rejected either way.
func Authenticate(verifier Verifier, rdb *redis.Client, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			if c.Get(fiber.HeaderAuthorization) != "" {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid authorization header format"))
			}
			if required {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Authorization required"))
			}
			return c.Next()
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if claims.JTI != "" && rdb != nil {
			revoked, err := rdb.Exists(c.UserContext(), RevokedTokenKey(claims.JTI)).Result()
			if err != nil {
				Logger.WarnContext(c.UserContext(), "token revocation check failed",
					slog.String("error", err.Error()))
			} else if revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)
		c.SetUserContext(WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserID returns the authenticated user, if any.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}

// ClaimsFrom returns the verified token claims of the request.
func ClaimsFrom(c *fiber.Ctx) (identity.Claims, bool) {
	claims, ok := c.Locals("claims").(identity.Claims)
	return claims, ok
}

// ViewerFrom returns the acting viewer, anonymous when unauthenticated.
func ViewerFrom(c *fiber.Ctx) relview.Viewer {
	if id, ok := UserID(c); ok {
		return relview.As(id)
	}
	return relview.Anonymous()
}

package middleware

import (
	"context"
	"strings"

	"circle/internal/models"

	"github.com/gofiber/fiber/v2"
)

// IdentityResolver maps a raw bearer token to a user id.
// Invalid, expired or revoked tokens fail with an INVALID_TOKEN AppError.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (uint, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", models.NewUnauthorizedError("Authorization header required")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", models.NewUnauthorizedError("Invalid authorization header format")
	}
	return parts[1], nil
}

// AuthRequired enforces a valid bearer token and stores the user id in locals and context.
func AuthRequired(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c.Get("Authorization"))
		if err != nil {
			return models.RespondWithError(c, err)
		}

		userID, err := resolver.ResolveIdentity(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, err)
		}

		setUser(c, userID)
		return c.Next()
	}
}

// OptionalAuth resolves the viewer when a valid token is present and
// otherwise continues anonymously.
func OptionalAuth(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c.Get("Authorization"))
		if err != nil {
			return c.Next()
		}
		if userID, err := resolver.ResolveIdentity(c.UserContext(), token); err == nil {
			setUser(c, userID)
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

// UserID returns the authenticated user id, or 0 for an anonymous request.
func UserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

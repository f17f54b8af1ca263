package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/agrobazaar/internal/apperrors"
	"github.com/example/agrobazaar/internal/utils"
)

const sellerContextKey = "currentSeller"

const (
	msgNoToken     = "Not authorized, no token provided"
	msgTokenFailed = "Not authorized, token failed"
)

// Identity is the authenticated seller as asserted by the session token.
type Identity struct {
	ID     uuid.UUID
	Name   string
	Mobile string
}

// AuthMiddleware validates bearer tokens and loads the seller identity into context.
func AuthMiddleware(tokens *utils.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperrors.Unauthorized(msgNoToken, nil)
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return apperrors.Unauthorized(msgNoToken, nil)
		}

		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			return apperrors.Unauthorized(msgTokenFailed, err)
		}

		id, err := claims.SellerID()
		if err != nil {
			return apperrors.Unauthorized(msgTokenFailed, err)
		}

		c.Locals(sellerContextKey, Identity{ID: id, Name: claims.Name, Mobile: claims.Mobile})
		return c.Next()
	}
}

// CurrentSeller extracts the authenticated seller from context.
func CurrentSeller(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(sellerContextKey).(Identity)
	return identity, ok
}

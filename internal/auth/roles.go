package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibe-music/vibe-music-server/internal/domain"
	apperrors "github.com/vibe-music/vibe-music-server/pkg/util/errorutil"
)

// RequireRole ensures the authenticated principal carries one of the roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("not authenticated, please log in")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

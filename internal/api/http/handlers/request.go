package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibe-music/vibe-music-server/internal/api/dto"
	"github.com/vibe-music/vibe-music-server/internal/auth"
	"github.com/vibe-music/vibe-music-server/internal/domain"
	apperrors "github.com/vibe-music/vibe-music-server/pkg/util/errorutil"
)

type validatable interface {
	Validate() error
}

// bindJSON decodes the request body into req and runs its validation rules.
func bindJSON(c *fiber.Ctx, req validatable) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return validate(req)
}

func validate(req validatable) error {
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("invalid payload", dto.ValidationDetails(err))
	}
	return nil
}

// principal returns the identity and token attached by the gatekeeper.
func principal(c *fiber.Ctx) (domain.Identity, string, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.Identity{}, "", apperrors.NewUnauthorized("not authenticated, please log in")
	}
	token, _ := auth.TokenFromContext(c)
	return *identity, token, nil
}

func respond(c *fiber.Ctx, message string, data any) error {
	return c.JSON(dto.Success(message, data))
}

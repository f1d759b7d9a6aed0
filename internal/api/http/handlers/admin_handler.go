package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibe-music/vibe-music-server/internal/api/dto"
	"github.com/vibe-music/vibe-music-server/internal/service"
)

// AdminHandler exposes administrator account endpoints.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: authService}
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	_, session, err := h.auth.LoginAdmin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return respond(c, "logged in", dto.NewAuthResponse(session))
}

// Logout handles POST /admin/logout.
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	identity, token, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), identity, token); err != nil {
		return err
	}
	return respond(c, "logged out", nil)
}

// Register handles POST /admin/register. The route requires an admin role.
func (h *AdminHandler) Register(c *fiber.Ctx) error {
	var req dto.AdminRegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	admin, err := h.auth.RegisterAdmin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Success("registered", dto.AdminResponse{
		AdminID:  admin.ID,
		Username: admin.Username,
	}))
}

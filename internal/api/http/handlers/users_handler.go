package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibe-music/vibe-music-server/internal/api/dto"
	"github.com/vibe-music/vibe-music-server/internal/domain"
	"github.com/vibe-music/vibe-music-server/internal/service"
	apperrors "github.com/vibe-music/vibe-music-server/pkg/util/errorutil"
)

// UsersHandler exposes account endpoints for end-users.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// SendVerificationCode handles GET /user/sendVerificationCode.
func (h *UsersHandler) SendVerificationCode(c *fiber.Ctx) error {
	var req dto.SendCodeRequest
	if err := c.QueryParser(&req); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := validate(req); err != nil {
		return err
	}
	if err := h.auth.SendVerificationCode(c.UserContext(), req.Email); err != nil {
		return err
	}
	return respond(c, "verification code sent", nil)
}

// Register handles POST /user/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.auth.RegisterUser(c.UserContext(), service.RegisterUserInput{
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		VerificationCode: req.VerificationCode,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Success("registered", dto.NewUserResponse(user)))
}

// Login handles POST /user/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	_, session, err := h.auth.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, "logged in", dto.NewAuthResponse(session))
}

// Logout handles POST /user/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	identity, token, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), identity, token); err != nil {
		return err
	}
	return respond(c, "logged out", nil)
}

// GetUserInfo handles GET /user/getUserInfo.
func (h *UsersHandler) GetUserInfo(c *fiber.Ctx) error {
	identity, _, err := userPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.auth.GetUser(c.UserContext(), identity.SubjectID)
	if err != nil {
		return err
	}
	return respond(c, "ok", dto.NewUserResponse(user))
}

// UpdateUserInfo handles PUT /user/updateUserInfo.
func (h *UsersHandler) UpdateUserInfo(c *fiber.Ctx) error {
	identity, _, err := userPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserInfoRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.auth.UpdateUserProfile(c.UserContext(), identity.SubjectID, service.ProfileUpdate{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		Introduction: req.Introduction,
	})
	if err != nil {
		return err
	}
	return respond(c, "profile updated", dto.NewUserResponse(user))
}

// UpdateUserAvatar handles PATCH /user/updateUserAvatar.
func (h *UsersHandler) UpdateUserAvatar(c *fiber.Ctx) error {
	identity, _, err := userPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAvatarRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.auth.UpdateUserAvatar(c.UserContext(), identity.SubjectID, req.AvatarURL); err != nil {
		return err
	}
	return respond(c, "avatar updated", nil)
}

// UpdatePassword handles PATCH /user/updateUserPassword. The session the
// request was made with is revoked on success.
func (h *UsersHandler) UpdatePassword(c *fiber.Ctx) error {
	identity, token, err := userPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	err = h.auth.ChangePassword(c.UserContext(), identity, token, req.OldPassword, req.NewPassword, req.RepeatPassword)
	if err != nil {
		return err
	}
	return respond(c, "password updated, please log in again", nil)
}

// ResetPassword handles PATCH /user/resetUserPassword.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	err := h.auth.ResetPassword(c.UserContext(), req.Email, req.VerificationCode, req.NewPassword, req.RepeatPassword)
	if err != nil {
		return err
	}
	return respond(c, "password reset", nil)
}

// DeleteAccount handles DELETE /user/deleteAccount.
func (h *UsersHandler) DeleteAccount(c *fiber.Ctx) error {
	identity, token, err := userPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteAccount(c.UserContext(), identity, token); err != nil {
		return err
	}
	return respond(c, "account deleted", nil)
}

// userPrincipal rejects admin tokens on end-user account endpoints, since
// their subject id names an admin row.
func userPrincipal(c *fiber.Ctx) (domain.Identity, string, error) {
	identity, token, err := principal(c)
	if err != nil {
		return domain.Identity{}, "", err
	}
	if identity.Role != domain.RoleUser {
		return domain.Identity{}, "", apperrors.NewForbidden("insufficient role")
	}
	return identity, token, nil
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-docs/internal/api/dto"
	"github.com/spec-kit/project-docs/internal/service"
)

// AuthHandler exposes login and self-service endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ok(c, "login successful", dto.AuthResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      dto.NewUserResponse(&res.User),
	})
}

// Validate handles GET /api/auth/validate. It reports the token's view of the
// caller after checking the account is still active.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, "token is valid", dto.PrincipalResponse{
		UserID:    p.UserID(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      int(p.Role()),
		RoleName:  p.Role().String(),
		Platforms: p.Platforms(),
		Projects:  p.Projects(),
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, "current user", dto.NewUserResponse(user))
}

// ChangePassword handles POST /api/auth/change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), p, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return ok(c, "password changed", nil)
}

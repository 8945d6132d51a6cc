package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-docs/internal/api/dto"
	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/service"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// UsersHandler manages accounts.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List GET /api/usuarios.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, err := h.users.List(c.UserContext(), pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "users", dto.NewPagedResult(page, dto.NewUserResponse))
}

// ByRole GET /api/usuarios/by-role/:role.
func (h *UsersHandler) ByRole(c *fiber.Ctx) error {
	role, err := domain.ParseRole(c.Params("role"))
	if err != nil {
		return apperrors.NewValidationError("validation failed", "unknown role")
	}
	page, err := h.users.ListByRole(c.UserContext(), role, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "users", dto.NewPagedResult(page, dto.NewUserResponse))
}

// Get GET /api/usuarios/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "user", dto.NewUserResponse(user))
}

// ByEmail GET /api/usuarios/by-email/:email.
func (h *UsersHandler) ByEmail(c *fiber.Ctx) error {
	user, err := h.users.GetByEmail(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return ok(c, "user", dto.NewUserResponse(user))
}

// Create POST /api/usuarios.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return created(c, "user created", dto.NewUserResponse(user))
}

// Update PUT /api/usuarios/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), id, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Active:   req.Active,
	})
	if err != nil {
		return err
	}
	return ok(c, "user updated", dto.NewUserResponse(user))
}

// Delete DELETE /api/usuarios/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return ok(c, "user deactivated", nil)
}

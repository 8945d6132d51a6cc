package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-docs/internal/api/dto"
	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/service"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// PlatformsHandler serves /api/plataformas.
type PlatformsHandler struct {
	platforms *service.PlatformService
}

// NewPlatformsHandler constructs handler.
func NewPlatformsHandler(platformService *service.PlatformService) *PlatformsHandler {
	return &PlatformsHandler{platforms: platformService}
}

// List GET /api/plataformas?activa=&page=&pageSize=.
func (h *PlatformsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	active, err := queryBool(c, "activa")
	if err != nil {
		return err
	}
	page, err := h.platforms.List(c.UserContext(), p, active, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "platforms", dto.NewPagedResult(page, dto.NewPlatformResponse))
}

// Get GET /api/plataformas/:id.
func (h *PlatformsHandler) Get(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	platform, err := h.platforms.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "platform", dto.NewPlatformResponse(platform))
}

// Create POST /api/plataformas.
func (h *PlatformsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePlatformRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	platform, err := h.platforms.Create(c.UserContext(), service.CreatePlatformInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return created(c, "platform created", dto.NewPlatformResponse(platform))
}

// Update PUT /api/plataformas/:id.
func (h *PlatformsHandler) Update(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdatePlatformRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	platform, err := h.platforms.Update(c.UserContext(), id, service.UpdatePlatformInput{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		return err
	}
	return ok(c, "platform updated", dto.NewPlatformResponse(platform))
}

// Delete DELETE /api/plataformas/:id.
func (h *PlatformsHandler) Delete(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.platforms.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return ok(c, "platform deactivated", nil)
}

// AssignCoordinator POST /api/plataformas/:id/coordinadores.
func (h *PlatformsHandler) AssignCoordinator(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AssignUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.UserID <= 0 {
		return apperrors.NewValidationError("validation failed", "userId is required")
	}
	if err := h.platforms.AssignCoordinator(c.UserContext(), p, id, req.UserID); err != nil {
		return err
	}
	return created(c, "coordinator assigned", nil)
}

// UnassignCoordinator DELETE /api/plataformas/:id/coordinadores/:userId.
func (h *PlatformsHandler) UnassignCoordinator(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	userID, err := auth.ParamID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.platforms.UnassignCoordinator(c.UserContext(), p, id, userID); err != nil {
		return err
	}
	return ok(c, "coordinator unassigned", nil)
}

// Coordinators GET /api/plataformas/:id/coordinadores.
func (h *PlatformsHandler) Coordinators(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	users, err := h.platforms.Coordinators(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "coordinators", dto.Map(users, dto.NewUserResponse))
}

// AvailableCoordinators GET /api/plataformas/coordinadores-disponibles?plataformaId=.
func (h *PlatformsHandler) AvailableCoordinators(c *fiber.Ctx) error {
	platformID := int64(queryInt(c, "plataformaId", 0))
	if platformID <= 0 {
		return apperrors.NewValidationError("validation failed", "plataformaId must be a positive integer")
	}
	users, err := h.platforms.AvailableCoordinators(c.UserContext(), platformID)
	if err != nil {
		return err
	}
	return ok(c, "available coordinators", dto.Map(users, dto.NewUserResponse))
}

// ByCoordinator GET /api/plataformas/by-coordinador/:userId.
func (h *PlatformsHandler) ByCoordinator(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	userID, err := auth.ParamID(c, "userId")
	if err != nil {
		return err
	}
	platforms, err := h.platforms.ByCoordinator(c.UserContext(), p, userID)
	if err != nil {
		return err
	}
	return ok(c, "platforms", dto.Map(platforms, dto.NewPlatformResponse))
}

// Mine GET /api/plataformas/mis-plataformas.
func (h *PlatformsHandler) Mine(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	platforms, err := h.platforms.Mine(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, "platforms", dto.Map(platforms, dto.NewPlatformResponse))
}

// Stats GET /api/plataformas/:id/estadisticas.
func (h *PlatformsHandler) Stats(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.platforms.Stats(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "platform statistics", dto.NewPlatformStatsResponse(stats))
}

// Summary GET /api/plataformas/resumen.
func (h *PlatformsHandler) Summary(c *fiber.Ctx) error {
	summaries, err := h.platforms.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "platform summary", dto.Map(summaries, dto.NewPlatformSummaryResponse))
}

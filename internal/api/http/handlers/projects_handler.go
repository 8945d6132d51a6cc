package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-docs/internal/api/dto"
	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/service"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// ProjectsHandler serves /api/proyectos.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projectService *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projectService}
}

// List GET /api/proyectos?activo=&page=&pageSize=.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	active, err := queryBool(c, "activo")
	if err != nil {
		return err
	}
	page, err := h.projects.List(c.UserContext(), active, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "projects", dto.NewPagedResult(page, dto.NewProjectResponse))
}

// ByPlatform GET /api/proyectos/by-plataforma/:id.
func (h *ProjectsHandler) ByPlatform(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	page, err := h.projects.ByPlatform(c.UserContext(), id, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "projects", dto.NewPagedResult(page, dto.NewProjectResponse))
}

// ByLeader GET /api/proyectos/by-lider/:userId.
func (h *ProjectsHandler) ByLeader(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	userID, err := auth.ParamID(c, "userId")
	if err != nil {
		return err
	}
	page, err := h.projects.ByLeader(c.UserContext(), p, userID, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "projects", dto.NewPagedResult(page, dto.NewProjectResponse))
}

// Mine GET /api/proyectos/mis-proyectos.
func (h *ProjectsHandler) Mine(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	projects, err := h.projects.Mine(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, "projects", dto.Map(projects, dto.NewProjectResponse))
}

// Get GET /api/proyectos/:id.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	project, err := h.projects.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "project", dto.NewProjectResponse(project))
}

// Create POST /api/proyectos. The platform scope check runs in the service
// because the target comes from the body.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateProjectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.StartDate) == "" {
		return apperrors.NewValidationError("validation failed", "startDate is required")
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return err
	}
	in := service.CreateProjectInput{
		PlatformID:  req.PlatformID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
	}
	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
		if in.EndDate, err = parseOptionalDate("endDate", req.EndDate); err != nil {
			return err
		}
	}
	project, err := h.projects.Create(c.UserContext(), p, in)
	if err != nil {
		return err
	}
	return created(c, "project created", dto.NewProjectResponse(project))
}

// Update PUT /api/proyectos/:id.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateProjectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
	}
	if in.StartDate, err = parseOptionalDate("startDate", req.StartDate); err != nil {
		return err
	}
	if req.EndDate != nil {
		if strings.TrimSpace(*req.EndDate) == "" {
			in.ClearEndDate = true
		} else if in.EndDate, err = parseOptionalDate("endDate", req.EndDate); err != nil {
			return err
		}
	}
	project, err := h.projects.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return ok(c, "project updated", dto.NewProjectResponse(project))
}

// Delete DELETE /api/proyectos/:id.
func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return ok(c, "project deactivated", nil)
}

// AssignLeader POST /api/proyectos/:id/lideres.
func (h *ProjectsHandler) AssignLeader(c *fiber.Ctx) error {
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
	if err := h.projects.AssignLeader(c.UserContext(), p, id, req.UserID); err != nil {
		return err
	}
	return created(c, "leader assigned", nil)
}

// UnassignLeader DELETE /api/proyectos/:id/lideres/:userId.
func (h *ProjectsHandler) UnassignLeader(c *fiber.Ctx) error {
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
	if err := h.projects.UnassignLeader(c.UserContext(), p, id, userID); err != nil {
		return err
	}
	return ok(c, "leader unassigned", nil)
}

// Leaders GET /api/proyectos/:id/lideres.
func (h *ProjectsHandler) Leaders(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	users, err := h.projects.Leaders(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "leaders", dto.Map(users, dto.NewUserResponse))
}

// Stats GET /api/proyectos/:id/estadisticas.
func (h *ProjectsHandler) Stats(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.projects.Stats(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "project statistics", dto.NewProjectStatsResponse(stats))
}

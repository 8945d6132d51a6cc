package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-docs/internal/api/dto"
	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/service"
)

// DeliverablesHandler serves /api/entregables.
type DeliverablesHandler struct {
	deliverables *service.DeliverableService
	now          func() time.Time
}

// NewDeliverablesHandler constructs handler.
func NewDeliverablesHandler(deliverableService *service.DeliverableService) *DeliverablesHandler {
	return &DeliverablesHandler{deliverables: deliverableService, now: time.Now}
}

// render maps deliverables for the caller. Origin configs may carry
// credentials, so only Direction and the leaders who manage them see them.
func (h *DeliverablesHandler) render(c *fiber.Ctx, items []domain.Deliverable) []dto.DeliverableResponse {
	now := h.now()
	withConfig := showsOriginConfig(c)
	out := make([]dto.DeliverableResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewDeliverableResponse(&items[i], now, withConfig))
	}
	return out
}

func showsOriginConfig(c *fiber.Ctx) bool {
	p, found := auth.PrincipalFromContext(c)
	if !found {
		return false
	}
	return p.Role() == domain.RoleDirection || p.Role() == domain.RoleProjectLeader
}

func (h *DeliverablesHandler) list(c *fiber.Ctx, message string, items []domain.Deliverable, err error) error {
	if err != nil {
		return err
	}
	return ok(c, message, h.render(c, items))
}

// All GET /api/entregables.
func (h *DeliverablesHandler) All(c *fiber.Ctx) error {
	items, err := h.deliverables.All(c.UserContext())
	return h.list(c, "deliverables", items, err)
}

// Get GET /api/entregables/:id.
func (h *DeliverablesHandler) Get(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.deliverables.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "deliverable", dto.NewDeliverableResponse(d, h.now(), showsOriginConfig(c)))
}

// ByProject GET /api/entregables/by-proyecto/:id.
func (h *DeliverablesHandler) ByProject(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.deliverables.ByProject(c.UserContext(), id)
	return h.list(c, "deliverables", items, err)
}

// Mine GET /api/entregables/mis-entregables.
func (h *DeliverablesHandler) Mine(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	items, err := h.deliverables.Mine(c.UserContext(), p)
	return h.list(c, "deliverables", items, err)
}

// Available GET /api/entregables/disponibles.
func (h *DeliverablesHandler) Available(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	items, err := h.deliverables.Available(c.UserContext(), p)
	return h.list(c, "available deliverables", items, err)
}

// Pending GET /api/entregables/pendientes.
func (h *DeliverablesHandler) Pending(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	items, err := h.deliverables.Pending(c.UserContext(), p)
	return h.list(c, "pending deliverables", items, err)
}

// Stats GET /api/entregables/estadisticas.
func (h *DeliverablesHandler) Stats(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.deliverables.Stats(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, "deliverable statistics", dto.NewDeliverableStatsResponse(stats))
}

// Create POST /api/entregables. The project scope check runs in the service
// because the target comes from the body.
func (h *DeliverablesHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateDeliverableRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	availableAt, err := parseDate("availableAt", req.AvailableAt)
	if err != nil {
		return err
	}
	kind, err := parseOriginKind(req.OriginKind)
	if err != nil {
		return err
	}
	d, err := h.deliverables.Create(c.UserContext(), p, service.CreateDeliverableInput{
		ProjectID:    req.ProjectID,
		Name:         req.Name,
		Title:        req.Title,
		Description:  req.Description,
		AvailableAt:  availableAt,
		OriginKind:   kind,
		OriginConfig: originConfigText(req.OriginConfig),
	})
	if err != nil {
		return err
	}
	return created(c, "deliverable created", dto.NewDeliverableResponse(d, h.now(), true))
}

// Update PUT /api/entregables/:id.
func (h *DeliverablesHandler) Update(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateDeliverableRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.UpdateDeliverableInput{
		Name:        req.Name,
		Title:       req.Title,
		Description: req.Description,
	}
	if in.AvailableAt, err = parseOptionalDate("availableAt", req.AvailableAt); err != nil {
		return err
	}
	if len(req.OriginKind) > 0 {
		kind, err := parseOriginKind(req.OriginKind)
		if err != nil {
			return err
		}
		in.OriginKind = &kind
	}
	if len(req.OriginConfig) > 0 {
		config := originConfigText(req.OriginConfig)
		in.OriginConfig = &config
	}
	d, err := h.deliverables.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return ok(c, "deliverable updated", dto.NewDeliverableResponse(d, h.now(), true))
}

// Delete DELETE /api/entregables/:id.
func (h *DeliverablesHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	res, err := h.deliverables.Delete(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	message := "deliverable deleted"
	if res.SoftDelete {
		message = "deliverable deactivated because payment receipts reference it"
	}
	return ok(c, message, dto.NewDeleteDeliverableResponse(res))
}

// Activate PATCH /api/entregables/:id/activar.
func (h *DeliverablesHandler) Activate(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deliverables.Activate(c.UserContext(), id); err != nil {
		return err
	}
	return ok(c, "deliverable activated", nil)
}

// Deactivate PATCH /api/entregables/:id/desactivar.
func (h *DeliverablesHandler) Deactivate(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deliverables.Deactivate(c.UserContext(), id); err != nil {
		return err
	}
	return ok(c, "deliverable deactivated", nil)
}

// Availability GET /api/entregables/:id/disponibilidad.
func (h *DeliverablesHandler) Availability(c *fiber.Ctx) error {
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	availability, err := h.deliverables.Availability(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "availability", dto.NewAvailabilityResponse(availability))
}

// Data GET /api/entregables/:id/data.
func (h *DeliverablesHandler) Data(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := auth.ParamID(c, "id")
	if err != nil {
		return err
	}
	payload, err := h.deliverables.Data(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, "deliverable data", payload)
}

// ValidateOrigin POST /api/entregables/validar-origen.
func (h *DeliverablesHandler) ValidateOrigin(c *fiber.Ctx) error {
	var req dto.ValidateOriginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	kind, err := parseOriginKind(req.OriginKind)
	if err != nil {
		return err
	}
	valid, err := h.deliverables.ValidateOrigin(c.UserContext(), kind, originConfigText(req.OriginConfig))
	if err != nil {
		return err
	}
	message := "origin is valid"
	if !valid {
		message = "origin is not reachable or not configured correctly"
	}
	return ok(c, message, dto.ValidateOriginResponse{Valid: valid})
}

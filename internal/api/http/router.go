package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/project-docs/internal/api/http/handlers"
	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Platforms      *handlers.PlatformsHandler
	Projects       *handlers.ProjectsHandler
	Deliverables   *handlers.DeliverablesHandler
	AuthMiddleware *auth.AuthMiddleware
	Gate           *auth.Gate
	Metrics        *observability.Metrics
	LoginRate      int
	LoginBurst     int
}

const (
	direction   = domain.RoleDirection
	coordinator = domain.RolePlatformCoordinator
	leader      = domain.RoleProjectLeader
	admin       = domain.RoleAdministrationUser
)

// RegisterRoutes wires HTTP routes. Fixed segments are registered before
// their /:id siblings so they are never parsed as ids.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")
	gate := cfg.Gate
	roles := func(allowed ...domain.Role) fiber.Handler { return auth.RequireRoles(gate, allowed...) }
	scoped := func(scope auth.Scope, param string, allowed ...domain.Role) fiber.Handler {
		return auth.Require(gate, auth.Allow(allowed...).On(scope), param)
	}

	authGroup := api.Group("/auth")
	authGroup.Post("/login", LoginRateLimit(cfg.LoginRate, cfg.LoginBurst), cfg.Auth.Login)
	authed := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	authed.Get("/validate", cfg.Auth.Validate)
	authed.Get("/me", cfg.Auth.Me)
	authed.Post("/change-password", cfg.Auth.ChangePassword)

	users := api.Group("/usuarios", cfg.AuthMiddleware.Handle)
	users.Get("/by-role/:role", roles(direction, coordinator), cfg.Users.ByRole)
	users.Get("/by-email/:email", roles(direction), cfg.Users.ByEmail)
	users.Get("/", roles(direction), cfg.Users.List)
	users.Post("/", roles(direction), cfg.Users.Create)
	users.Get("/:id", roles(direction), cfg.Users.Get)
	users.Put("/:id", roles(direction), cfg.Users.Update)
	users.Delete("/:id", roles(direction), cfg.Users.Delete)

	platforms := api.Group("/plataformas", cfg.AuthMiddleware.Handle)
	platforms.Get("/mis-plataformas", roles(coordinator), cfg.Platforms.Mine)
	platforms.Get("/coordinadores-disponibles", roles(direction), cfg.Platforms.AvailableCoordinators)
	platforms.Get("/resumen", roles(direction), cfg.Platforms.Summary)
	platforms.Get("/by-coordinador/:userId", roles(direction, coordinator), cfg.Platforms.ByCoordinator)
	platforms.Get("/", roles(direction, coordinator), cfg.Platforms.List)
	platforms.Post("/", roles(direction), cfg.Platforms.Create)
	platforms.Get("/:id", scoped(auth.ScopePlatform, "id", direction, coordinator), cfg.Platforms.Get)
	platforms.Put("/:id", roles(direction), cfg.Platforms.Update)
	platforms.Delete("/:id", roles(direction), cfg.Platforms.Delete)
	platforms.Get("/:id/coordinadores", scoped(auth.ScopePlatform, "id", direction, coordinator), cfg.Platforms.Coordinators)
	platforms.Post("/:id/coordinadores", roles(direction), cfg.Platforms.AssignCoordinator)
	platforms.Delete("/:id/coordinadores/:userId", roles(direction), cfg.Platforms.UnassignCoordinator)
	platforms.Get("/:id/estadisticas", scoped(auth.ScopePlatform, "id", direction, coordinator), cfg.Platforms.Stats)

	projects := api.Group("/proyectos", cfg.AuthMiddleware.Handle)
	projects.Get("/mis-proyectos", roles(leader), cfg.Projects.Mine)
	projects.Get("/by-plataforma/:id", scoped(auth.ScopePlatform, "id", direction, coordinator), cfg.Projects.ByPlatform)
	projects.Get("/by-lider/:userId", roles(direction, coordinator, leader), cfg.Projects.ByLeader)
	projects.Get("/", roles(direction), cfg.Projects.List)
	projects.Post("/", roles(direction, coordinator), cfg.Projects.Create)
	projects.Get("/:id", scoped(auth.ScopeProject, "id", direction, coordinator, leader), cfg.Projects.Get)
	projects.Put("/:id", scoped(auth.ScopeProject, "id", direction, coordinator), cfg.Projects.Update)
	projects.Delete("/:id", scoped(auth.ScopeProject, "id", direction, coordinator), cfg.Projects.Delete)
	projects.Get("/:id/lideres", scoped(auth.ScopeProject, "id", direction, coordinator, leader), cfg.Projects.Leaders)
	projects.Post("/:id/lideres", scoped(auth.ScopeProject, "id", direction, coordinator), cfg.Projects.AssignLeader)
	projects.Delete("/:id/lideres/:userId", scoped(auth.ScopeProject, "id", direction, coordinator), cfg.Projects.UnassignLeader)
	projects.Get("/:id/estadisticas", scoped(auth.ScopeProject, "id", direction, coordinator, leader), cfg.Projects.Stats)

	deliverables := api.Group("/entregables", cfg.AuthMiddleware.Handle)
	deliverables.Get("/mis-entregables", roles(leader), cfg.Deliverables.Mine)
	deliverables.Get("/disponibles", auth.RequireAuthenticated(), cfg.Deliverables.Available)
	deliverables.Get("/pendientes", auth.RequireAuthenticated(), cfg.Deliverables.Pending)
	deliverables.Get("/estadisticas", roles(direction, coordinator), cfg.Deliverables.Stats)
	deliverables.Post("/validar-origen", roles(direction, leader), cfg.Deliverables.ValidateOrigin)
	deliverables.Get("/by-proyecto/:id", scoped(auth.ScopeProject, "id", direction, coordinator, leader), cfg.Deliverables.ByProject)
	deliverables.Get("/", roles(direction), cfg.Deliverables.All)
	deliverables.Post("/", roles(leader), cfg.Deliverables.Create)
	deliverables.Get("/:id", scoped(auth.ScopeDeliverable, "id", direction, coordinator, leader), cfg.Deliverables.Get)
	deliverables.Put("/:id", scoped(auth.ScopeDeliverable, "id", leader), cfg.Deliverables.Update)
	deliverables.Delete("/:id", scoped(auth.ScopeDeliverable, "id", leader), cfg.Deliverables.Delete)
	deliverables.Patch("/:id/activar", scoped(auth.ScopeDeliverable, "id", leader), cfg.Deliverables.Activate)
	deliverables.Patch("/:id/desactivar", scoped(auth.ScopeDeliverable, "id", leader), cfg.Deliverables.Deactivate)
	deliverables.Get("/:id/disponibilidad", scoped(auth.ScopeDeliverable, "id", direction, coordinator, leader), cfg.Deliverables.Availability)
	deliverables.Get("/:id/data", scoped(auth.ScopeDeliverable, "id", direction, coordinator, leader, admin), cfg.Deliverables.Data)
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/events"
	"github.com/spec-kit/project-docs/internal/repository"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// CreateProjectInput carries the fields of a new project.
type CreateProjectInput struct {
	PlatformID  int64
	Name        string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
}

// UpdateProjectInput is a partial update. ClearEndDate removes the end date.
type UpdateProjectInput struct {
	Name         *string
	Description  *string
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	Active       *bool
}

// ProjectService manages projects and leader assignments.
type ProjectService struct {
	projects    repository.ProjectRepository
	platforms   repository.PlatformRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	gate        *auth.Gate
	events      publisher
	logger      *zap.Logger
	now         func() time.Time
}

// ProjectDependencies bundles collaborators.
type ProjectDependencies struct {
	ProjectRepo    repository.ProjectRepository
	PlatformRepo   repository.PlatformRepository
	UserRepo       repository.UserRepository
	AssignmentRepo repository.AssignmentRepository
	Gate           *auth.Gate
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewProjectService creates the service.
func NewProjectService(deps ProjectDependencies) *ProjectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projects:    deps.ProjectRepo,
		platforms:   deps.PlatformRepo,
		users:       deps.UserRepo,
		assignments: deps.AssignmentRepo,
		gate:        deps.Gate,
		events:      publisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:      logger,
		now:         time.Now,
	}
}

// List pages through every project.
func (s *ProjectService) List(ctx context.Context, active *bool, page PageRequest) (*domain.Page[domain.Project], error) {
	return s.list(ctx, repository.ProjectFilter{Active: active}, page)
}

// ByPlatform pages through the projects of one platform.
func (s *ProjectService) ByPlatform(ctx context.Context, platformID int64, page PageRequest) (*domain.Page[domain.Project], error) {
	if _, err := s.platforms.GetByID(ctx, platformID); err != nil {
		return nil, notFoundOr(err, "platform", platformID)
	}
	return s.list(ctx, repository.ProjectFilter{PlatformID: &platformID}, page)
}

// ByLeader pages through the projects assigned to userID. Leaders may only ask
// about themselves.
func (s *ProjectService) ByLeader(ctx context.Context, actor *auth.Principal, userID int64, page PageRequest) (*domain.Page[domain.Project], error) {
	if actor != nil && actor.Role() == domain.RoleProjectLeader && actor.UserID() != userID {
		return nil, apperrors.NewForbidden("project leaders may only list their own projects")
	}
	return s.list(ctx, repository.ProjectFilter{LeaderID: &userID}, page)
}

// Mine lists the caller's active projects from the assignment store.
func (s *ProjectService) Mine(ctx context.Context, actor *auth.Principal) ([]domain.Project, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	userID := actor.UserID()
	projects, _, err := s.projects.List(ctx, repository.ProjectFilter{LeaderID: &userID, Active: boolPtr(true)})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return projects, nil
}

func (s *ProjectService) list(ctx context.Context, filter repository.ProjectFilter, page PageRequest) (*domain.Page[domain.Project], error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	filter.Limit = page.PageSize
	filter.Offset = page.offset()
	projects, total, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return newPage(projects, total, page), nil
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "project", id)
	}
	return project, nil
}

// Create adds a project to an active platform. The caller must be allowed on
// the target platform.
func (s *ProjectService) Create(ctx context.Context, actor *auth.Principal, in CreateProjectInput) (*domain.Project, error) {
	if in.PlatformID <= 0 {
		return nil, apperrors.NewValidationError("validation failed", "platformId is required")
	}
	policy := auth.Allow(domain.RoleDirection, domain.RolePlatformCoordinator).On(auth.ScopePlatform)
	if err := authorizeTarget(ctx, s.gate, actor, policy, in.PlatformID); err != nil {
		return nil, err
	}
	name, err := requireText("name", in.Name, 100)
	if err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() {
		return nil, apperrors.NewValidationError("validation failed", "startDate is required")
	}
	if err := checkProjectDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	platform, err := s.platforms.GetByID(ctx, in.PlatformID)
	if err != nil {
		return nil, notFoundOr(err, "platform", in.PlatformID)
	}
	if !platform.Active {
		return nil, apperrors.NewValidationError("platform is inactive")
	}
	if err := s.ensureNameFree(ctx, in.PlatformID, name, 0); err != nil {
		return nil, err
	}

	project := &domain.Project{
		PlatformID:     in.PlatformID,
		PlatformName:   platform.Name,
		PlatformActive: platform.Active,
		Name:           name,
		Description:    in.Description,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Active:         true,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, conflictOr(err, "a project with that name already exists on the platform")
	}
	return project, nil
}

// Update applies a partial update under the same rules as Create.
func (s *ProjectService) Update(ctx context.Context, id int64, in UpdateProjectInput) (*domain.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name, err := requireText("name", *in.Name, 100)
		if err != nil {
			return nil, err
		}
		if err := s.ensureNameFree(ctx, project.PlatformID, name, id); err != nil {
			return nil, err
		}
		project.Name = name
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.StartDate != nil {
		project.StartDate = *in.StartDate
	}
	switch {
	case in.ClearEndDate:
		project.EndDate = nil
	case in.EndDate != nil:
		project.EndDate = in.EndDate
	}
	if in.Active != nil {
		project.Active = *in.Active
	}
	if err := checkProjectDates(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, notFoundOr(err, "project", id)
		}
		return nil, conflictOr(err, "a project with that name already exists on the platform")
	}
	return project, nil
}

// Delete deactivates a project that has no active deliverables.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	active, err := s.projects.CountActiveDeliverables(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if active > 0 {
		return apperrors.NewConflict("project still has active deliverables")
	}
	project.Active = false
	if err := s.projects.Update(ctx, project); err != nil {
		return notFoundOr(err, "project", id)
	}
	return nil
}

// AssignLeader links an active leader to an active project.
func (s *ProjectService) AssignLeader(ctx context.Context, actor *auth.Principal, projectID, userID int64) error {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.Active {
		return apperrors.NewValidationError("project is inactive")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "user", userID)
	}
	if !user.Active || user.Role != domain.RoleProjectLeader {
		return apperrors.NewValidationError("user must be an active project leader")
	}
	assigned, err := s.assignments.ProjectAssigned(ctx, userID, projectID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if assigned {
		return apperrors.NewConflict("leader already assigned to project")
	}
	if err := s.assignments.AssignProject(ctx, userID, projectID); err != nil {
		return conflictOr(err, "leader already assigned to project")
	}
	s.logger.Info("leader assigned", zap.Int64("project_id", projectID), zap.Int64("user_id", userID))
	s.events.publish(ctx, events.New(events.EventLeaderAssigned, actorID(actor), projectID,
		events.AssignmentPayload{UserID: userID}))
	return nil
}

// UnassignLeader removes the link.
func (s *ProjectService) UnassignLeader(ctx context.Context, actor *auth.Principal, projectID, userID int64) error {
	if err := s.assignments.UnassignProject(ctx, userID, projectID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("assignment")
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("leader unassigned", zap.Int64("project_id", projectID), zap.Int64("user_id", userID))
	s.events.publish(ctx, events.New(events.EventLeaderUnassigned, actorID(actor), projectID,
		events.AssignmentPayload{UserID: userID}))
	return nil
}

// Leaders lists users assigned to the project.
func (s *ProjectService) Leaders(ctx context.Context, projectID int64) ([]domain.User, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	users, err := s.assignments.LeadersOf(ctx, projectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Stats aggregates deliverable and leader counters plus schedule progress.
func (s *ProjectService) Stats(ctx context.Context, id int64) (*domain.ProjectStats, error) {
	stats, err := s.projects.Stats(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "project", id)
	}
	now := s.now()
	today := startOfDay(now)
	if elapsed := int(today.Sub(startOfDay(stats.StartDate)).Hours() / 24); elapsed > 0 {
		stats.ElapsedDays = elapsed
	}
	if stats.EndDate != nil {
		remaining := int(startOfDay(*stats.EndDate).Sub(today).Hours() / 24)
		if remaining < 0 {
			remaining = 0
		}
		stats.RemainingDays = &remaining
	}
	stats.CheckedAt = now.UTC()
	return stats, nil
}

func (s *ProjectService) ensureNameFree(ctx context.Context, platformID int64, name string, selfID int64) error {
	taken, err := s.projects.NameTaken(ctx, platformID, name, selfID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if taken {
		return apperrors.NewConflict("a project with that name already exists on the platform")
	}
	return nil
}

func checkProjectDates(start time.Time, end *time.Time) error {
	if end != nil && !end.After(start) {
		return apperrors.NewValidationError("validation failed", "endDate must be after startDate")
	}
	return nil
}

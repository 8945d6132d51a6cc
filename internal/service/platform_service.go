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

// CreatePlatformInput carries the fields of a new platform.
type CreatePlatformInput struct {
	Name        string
	Description string
}

// UpdatePlatformInput is a partial update.
type UpdatePlatformInput struct {
	Name        *string
	Description *string
	Active      *bool
}

// PlatformService manages platforms and coordinator assignments.
type PlatformService struct {
	platforms   repository.PlatformRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	events      publisher
	logger      *zap.Logger
	now         func() time.Time
}

// PlatformDependencies bundles repositories.
type PlatformDependencies struct {
	PlatformRepo   repository.PlatformRepository
	UserRepo       repository.UserRepository
	AssignmentRepo repository.AssignmentRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewPlatformService creates the service.
func NewPlatformService(deps PlatformDependencies) *PlatformService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlatformService{
		platforms:   deps.PlatformRepo,
		users:       deps.UserRepo,
		assignments: deps.AssignmentRepo,
		events:      publisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:      logger,
		now:         time.Now,
	}
}

// List pages through platforms. Coordinators only see the platforms their
// token was issued with.
func (s *PlatformService) List(ctx context.Context, p *auth.Principal, active *bool, page PageRequest) (*domain.Page[domain.Platform], error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	filter := repository.PlatformFilter{Active: active, Limit: page.PageSize, Offset: page.offset()}
	if p != nil && p.Role() == domain.RolePlatformCoordinator {
		filter.Restrict = true
		filter.IDs = p.Platforms()
	}
	platforms, total, err := s.platforms.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return newPage(platforms, total, page), nil
}

// Get returns one platform.
func (s *PlatformService) Get(ctx context.Context, id int64) (*domain.Platform, error) {
	platform, err := s.platforms.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "platform", id)
	}
	return platform, nil
}

// Create adds an active platform. Names are unique ignoring case.
func (s *PlatformService) Create(ctx context.Context, in CreatePlatformInput) (*domain.Platform, error) {
	name, err := requireText("name", in.Name, 100)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}
	platform := &domain.Platform{Name: name, Description: in.Description, Active: true}
	if err := s.platforms.Create(ctx, platform); err != nil {
		return nil, conflictOr(err, "a platform with that name already exists")
	}
	return platform, nil
}

// Update applies a partial update.
func (s *PlatformService) Update(ctx context.Context, id int64, in UpdatePlatformInput) (*domain.Platform, error) {
	platform, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name, err := requireText("name", *in.Name, 100)
		if err != nil {
			return nil, err
		}
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		platform.Name = name
	}
	if in.Description != nil {
		platform.Description = *in.Description
	}
	if in.Active != nil {
		platform.Active = *in.Active
	}
	if err := s.platforms.Update(ctx, platform); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, notFoundOr(err, "platform", id)
		}
		return nil, conflictOr(err, "a platform with that name already exists")
	}
	return platform, nil
}

// Delete deactivates a platform that has no active projects.
func (s *PlatformService) Delete(ctx context.Context, id int64) error {
	platform, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	active, err := s.platforms.CountActiveProjects(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if active > 0 {
		return apperrors.NewConflict("platform still has active projects")
	}
	platform.Active = false
	if err := s.platforms.Update(ctx, platform); err != nil {
		return notFoundOr(err, "platform", id)
	}
	return nil
}

// AssignCoordinator links an active coordinator to an active platform. The
// coordinator's scope changes on their next login.
func (s *PlatformService) AssignCoordinator(ctx context.Context, actor *auth.Principal, platformID, userID int64) error {
	platform, err := s.Get(ctx, platformID)
	if err != nil {
		return err
	}
	if !platform.Active {
		return apperrors.NewValidationError("platform is inactive")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "user", userID)
	}
	if !user.Active || user.Role != domain.RolePlatformCoordinator {
		return apperrors.NewValidationError("user must be an active platform coordinator")
	}
	assigned, err := s.assignments.PlatformAssigned(ctx, userID, platformID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if assigned {
		return apperrors.NewConflict("coordinator already assigned to platform")
	}
	if err := s.assignments.AssignPlatform(ctx, userID, platformID); err != nil {
		return conflictOr(err, "coordinator already assigned to platform")
	}
	s.logger.Info("coordinator assigned", zap.Int64("platform_id", platformID), zap.Int64("user_id", userID))
	s.events.publish(ctx, events.New(events.EventCoordinatorAssigned, actorID(actor), platformID,
		events.AssignmentPayload{UserID: userID}))
	return nil
}

// UnassignCoordinator removes the link.
func (s *PlatformService) UnassignCoordinator(ctx context.Context, actor *auth.Principal, platformID, userID int64) error {
	if err := s.assignments.UnassignPlatform(ctx, userID, platformID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("assignment")
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("coordinator unassigned", zap.Int64("platform_id", platformID), zap.Int64("user_id", userID))
	s.events.publish(ctx, events.New(events.EventCoordinatorUnassigned, actorID(actor), platformID,
		events.AssignmentPayload{UserID: userID}))
	return nil
}

// Coordinators lists users assigned to the platform.
func (s *PlatformService) Coordinators(ctx context.Context, platformID int64) ([]domain.User, error) {
	if _, err := s.Get(ctx, platformID); err != nil {
		return nil, err
	}
	users, err := s.assignments.CoordinatorsOf(ctx, platformID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// AvailableCoordinators lists active coordinators not yet on the platform.
func (s *PlatformService) AvailableCoordinators(ctx context.Context, platformID int64) ([]domain.User, error) {
	if _, err := s.Get(ctx, platformID); err != nil {
		return nil, err
	}
	users, err := s.assignments.AvailableCoordinators(ctx, platformID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ByCoordinator lists the platforms assigned to userID. Coordinators may only
// ask about themselves.
func (s *PlatformService) ByCoordinator(ctx context.Context, actor *auth.Principal, userID int64) ([]domain.Platform, error) {
	if actor != nil && actor.Role() == domain.RolePlatformCoordinator && actor.UserID() != userID {
		return nil, apperrors.NewForbidden("coordinators may only list their own platforms")
	}
	platforms, err := s.platforms.ListByCoordinator(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return platforms, nil
}

// Mine lists the caller's platforms from the assignment store.
func (s *PlatformService) Mine(ctx context.Context, actor *auth.Principal) ([]domain.Platform, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return s.ByCoordinator(ctx, actor, actor.UserID())
}

// Stats aggregates project counters of a platform.
func (s *PlatformService) Stats(ctx context.Context, id int64) (*domain.PlatformStats, error) {
	stats, err := s.platforms.Stats(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "platform", id)
	}
	stats.CheckedAt = s.now().UTC()
	return stats, nil
}

// Summary returns one line per platform.
func (s *PlatformService) Summary(ctx context.Context) ([]domain.PlatformSummary, error) {
	summaries, err := s.platforms.Summaries(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return summaries, nil
}

func (s *PlatformService) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	taken, err := s.platforms.NameTaken(ctx, name, selfID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if taken {
		return apperrors.NewConflict("a platform with that name already exists")
	}
	return nil
}

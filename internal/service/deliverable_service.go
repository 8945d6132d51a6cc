package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/events"
	"github.com/spec-kit/project-docs/internal/fetcher"
	"github.com/spec-kit/project-docs/internal/repository"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// DataFetcher retrieves deliverable payloads from their origin.
type DataFetcher interface {
	Fetch(ctx context.Context, kind domain.OriginKind, config string) (*fetcher.Payload, error)
	Validate(ctx context.Context, kind domain.OriginKind, config string) bool
}

// CreateDeliverableInput carries the fields of a new deliverable.
type CreateDeliverableInput struct {
	ProjectID    int64
	Name         string
	Title        string
	Description  string
	AvailableAt  time.Time
	OriginKind   domain.OriginKind
	OriginConfig string
}

// UpdateDeliverableInput is a partial update.
type UpdateDeliverableInput struct {
	Name         *string
	Title        *string
	Description  *string
	AvailableAt  *time.Time
	OriginKind   *domain.OriginKind
	OriginConfig *string
}

// DeleteResult reports whether a delete kept the row.
type DeleteResult struct {
	DeliverableID int64
	SoftDelete    bool
}

// DeliverableService manages deliverables and serves their data.
type DeliverableService struct {
	deliverables repository.DeliverableRepository
	projects     repository.ProjectRepository
	receipts     repository.ReceiptRepository
	assignments  repository.AssignmentRepository
	fetcher      DataFetcher
	gate         *auth.Gate
	events       publisher
	logger       *zap.Logger
	now          func() time.Time
}

// DeliverableDependencies bundles collaborators.
type DeliverableDependencies struct {
	DeliverableRepo repository.DeliverableRepository
	ProjectRepo     repository.ProjectRepository
	ReceiptRepo     repository.ReceiptRepository
	AssignmentRepo  repository.AssignmentRepository
	Fetcher         DataFetcher
	Gate            *auth.Gate
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewDeliverableService creates the service.
func NewDeliverableService(deps DeliverableDependencies) *DeliverableService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliverableService{
		deliverables: deps.DeliverableRepo,
		projects:     deps.ProjectRepo,
		receipts:     deps.ReceiptRepo,
		assignments:  deps.AssignmentRepo,
		fetcher:      deps.Fetcher,
		gate:         deps.Gate,
		events:       publisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:       logger,
		now:          time.Now,
	}
}

// All lists every active deliverable.
func (s *DeliverableService) All(ctx context.Context) ([]domain.Deliverable, error) {
	return s.list(ctx, repository.DeliverableFilter{ActiveOnly: true})
}

// Get returns one deliverable.
func (s *DeliverableService) Get(ctx context.Context, id int64) (*domain.Deliverable, error) {
	deliverable, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "deliverable", id)
	}
	return deliverable, nil
}

// ByProject lists the deliverables of a project.
func (s *DeliverableService) ByProject(ctx context.Context, projectID int64) ([]domain.Deliverable, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, notFoundOr(err, "project", projectID)
	}
	return s.list(ctx, repository.DeliverableFilter{ProjectID: &projectID})
}

// Mine lists the active deliverables of the projects currently assigned to the caller.
func (s *DeliverableService) Mine(ctx context.Context, actor *auth.Principal) ([]domain.Deliverable, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	projectIDs, err := s.assignments.ProjectIDsForUser(ctx, actor.UserID())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.list(ctx, repository.DeliverableFilter{ProjectIDs: projectIDs, Restrict: true, ActiveOnly: true})
}

// Available lists active deliverables whose date has been reached, within the
// caller's scope.
func (s *DeliverableService) Available(ctx context.Context, actor *auth.Principal) ([]domain.Deliverable, error) {
	now := s.now()
	filter := scopedFilter(actor)
	filter.ActiveOnly = true
	filter.AvailableBy = &now
	return s.list(ctx, filter)
}

// Pending lists active deliverables whose date lies ahead, within the caller's scope.
func (s *DeliverableService) Pending(ctx context.Context, actor *auth.Principal) ([]domain.Deliverable, error) {
	now := s.now()
	filter := scopedFilter(actor)
	filter.ActiveOnly = true
	filter.PendingAfter = &now
	return s.list(ctx, filter)
}

// Stats counts available and pending deliverables within the caller's scope.
func (s *DeliverableService) Stats(ctx context.Context, actor *auth.Principal) (*domain.DeliverableStats, error) {
	filter := scopedFilter(actor)
	filter.ActiveOnly = true
	deliverables, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	stats := &domain.DeliverableStats{Total: len(deliverables), CheckedAt: now.UTC()}
	for i := range deliverables {
		if deliverables[i].IsAvailable(now) {
			stats.Available++
		} else {
			stats.Pending++
		}
	}
	return stats, nil
}

// scopedFilter restricts coordinators to their token platforms and leaders to
// their token projects. Anything else outside Direction and Admin sees nothing.
func scopedFilter(actor *auth.Principal) repository.DeliverableFilter {
	if actor == nil {
		return repository.DeliverableFilter{Restrict: true}
	}
	switch actor.Role() {
	case domain.RoleDirection, domain.RoleAdministrationUser:
		return repository.DeliverableFilter{}
	case domain.RolePlatformCoordinator:
		return repository.DeliverableFilter{PlatformIDs: actor.Platforms(), RestrictPlatforms: true}
	case domain.RoleProjectLeader:
		return repository.DeliverableFilter{ProjectIDs: actor.Projects(), Restrict: true}
	default:
		return repository.DeliverableFilter{Restrict: true}
	}
}

func (s *DeliverableService) list(ctx context.Context, filter repository.DeliverableFilter) ([]domain.Deliverable, error) {
	deliverables, err := s.deliverables.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return deliverables, nil
}

// Create adds a deliverable to a project the caller leads.
func (s *DeliverableService) Create(ctx context.Context, actor *auth.Principal, in CreateDeliverableInput) (*domain.Deliverable, error) {
	if in.ProjectID <= 0 {
		return nil, apperrors.NewValidationError("validation failed", "projectId is required")
	}
	policy := auth.Allow(domain.RoleProjectLeader).On(auth.ScopeProject)
	if err := authorizeTarget(ctx, s.gate, actor, policy, in.ProjectID); err != nil {
		return nil, err
	}

	d := &domain.Deliverable{
		ProjectID:    in.ProjectID,
		Description:  in.Description,
		AvailableAt:  in.AvailableAt,
		OriginKind:   in.OriginKind,
		OriginConfig: in.OriginConfig,
		Active:       true,
	}
	var err error
	if d.Name, err = requireText("name", in.Name, 100); err != nil {
		return nil, err
	}
	if d.Title, err = requireText("title", in.Title, 200); err != nil {
		return nil, err
	}
	if err := s.checkDeliverable(d); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, notFoundOr(err, "project", in.ProjectID)
	}
	if !project.Active {
		return nil, apperrors.NewValidationError("project is inactive")
	}
	if err := s.ensureNameFree(ctx, in.ProjectID, d.Name, 0); err != nil {
		return nil, err
	}

	d.ProjectName = project.Name
	d.PlatformName = project.PlatformName
	if err := s.deliverables.Create(ctx, d); err != nil {
		return nil, conflictOr(err, "a deliverable with that name already exists in the project")
	}
	s.events.publish(ctx, events.New(events.EventDeliverableCreated, actorID(actor), d.ID,
		events.DeliverableCreatedPayload{ProjectID: d.ProjectID, Name: d.Name, OriginKind: d.OriginKind.String()}))
	return d, nil
}

// Update applies a partial update under the same rules as Create.
func (s *DeliverableService) Update(ctx context.Context, id int64, in UpdateDeliverableInput) (*domain.Deliverable, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dateChanged := false
	if in.Name != nil {
		name, err := requireText("name", *in.Name, 100)
		if err != nil {
			return nil, err
		}
		if err := s.ensureNameFree(ctx, d.ProjectID, name, id); err != nil {
			return nil, err
		}
		d.Name = name
	}
	if in.Title != nil {
		title, err := requireText("title", *in.Title, 200)
		if err != nil {
			return nil, err
		}
		d.Title = title
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.AvailableAt != nil && !in.AvailableAt.Equal(d.AvailableAt) {
		d.AvailableAt = *in.AvailableAt
		dateChanged = true
	}
	if in.OriginKind != nil {
		d.OriginKind = *in.OriginKind
	}
	if in.OriginConfig != nil {
		d.OriginConfig = *in.OriginConfig
	}
	if err := s.checkOrigin(d); err != nil {
		return nil, err
	}
	if dateChanged {
		if err := s.checkDate(d.AvailableAt); err != nil {
			return nil, err
		}
	}
	if err := s.deliverables.Update(ctx, d); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, notFoundOr(err, "deliverable", id)
		}
		return nil, conflictOr(err, "a deliverable with that name already exists in the project")
	}
	return d, nil
}

// Delete keeps the row, deactivated, when payment receipts reference it and
// removes it otherwise.
func (s *DeliverableService) Delete(ctx context.Context, actor *auth.Principal, id int64) (*DeleteResult, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	referenced, err := s.receipts.ExistsForDeliverable(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if referenced {
		err = s.deliverables.SetActive(ctx, id, false)
	} else {
		err = s.deliverables.Delete(ctx, id)
	}
	if err != nil {
		return nil, notFoundOr(err, "deliverable", id)
	}
	s.logger.Info("deliverable deleted", zap.Int64("deliverable_id", id), zap.Bool("soft", referenced))
	s.events.publish(ctx, events.New(events.EventDeliverableDeleted, actorID(actor), id,
		events.DeliverableDeletedPayload{ProjectID: d.ProjectID, SoftDelete: referenced}))
	return &DeleteResult{DeliverableID: id, SoftDelete: referenced}, nil
}

// Activate marks a deliverable active.
func (s *DeliverableService) Activate(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, true)
}

// Deactivate marks a deliverable inactive.
func (s *DeliverableService) Deactivate(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, false)
}

func (s *DeliverableService) setActive(ctx context.Context, id int64, active bool) error {
	if err := s.deliverables.SetActive(ctx, id, active); err != nil {
		return notFoundOr(err, "deliverable", id)
	}
	return nil
}

// Availability recomputes the availability state at the current instant.
func (s *DeliverableService) Availability(ctx context.Context, id int64) (*domain.Availability, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &domain.Availability{
		DeliverableID: d.ID,
		Title:         d.Title,
		AvailableAt:   d.AvailableAt,
		Available:     d.IsAvailable(now),
		DaysRemaining: d.DaysRemaining(now),
		State:         d.State(now),
		CheckedAt:     now.UTC(),
	}, nil
}

// Data fetches the payload of an available deliverable from its origin.
func (s *DeliverableService) Data(ctx context.Context, actor *auth.Principal, id int64) (*fetcher.Payload, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.IsAvailable(s.now()) {
		return nil, apperrors.NewValidationError("deliverable not available yet")
	}
	payload, err := s.fetcher.Fetch(ctx, d.OriginKind, d.OriginConfig)
	if err != nil {
		s.events.publish(ctx, events.New(events.EventDeliverableDataFetch, actorID(actor), id,
			events.DataFetchedPayload{OriginKind: d.OriginKind.String(), Failure: err.Error()}))
		return nil, err
	}
	s.events.publish(ctx, events.New(events.EventDeliverableDataFetch, actorID(actor), id,
		events.DataFetchedPayload{OriginKind: d.OriginKind.String(), Records: payload.TotalRecords()}))
	return payload, nil
}

// ValidateOrigin reports whether the origin config is usable. Invalid kinds
// are a validation error rather than a false result.
func (s *DeliverableService) ValidateOrigin(ctx context.Context, kind domain.OriginKind, config string) (bool, error) {
	if !kind.Valid() {
		return false, apperrors.NewValidationError("validation failed", "originKind is not a known origin")
	}
	return s.fetcher.Validate(ctx, kind, config), nil
}

func (s *DeliverableService) checkDeliverable(d *domain.Deliverable) error {
	if d.AvailableAt.IsZero() {
		return apperrors.NewValidationError("validation failed", "availableAt is required")
	}
	if err := s.checkDate(d.AvailableAt); err != nil {
		return err
	}
	return s.checkOrigin(d)
}

func (s *DeliverableService) checkDate(at time.Time) error {
	if startOfDay(at).Before(startOfDay(s.now().In(at.Location()))) {
		return apperrors.NewValidationError("validation failed", "availableAt must not be before today")
	}
	return nil
}

func (s *DeliverableService) checkOrigin(d *domain.Deliverable) error {
	if !d.OriginKind.Valid() {
		return apperrors.NewValidationError("validation failed", "originKind is not a known origin")
	}
	if d.OriginConfig == "" {
		return apperrors.NewValidationError("validation failed", "originConfig is required")
	}
	return nil
}

func (s *DeliverableService) ensureNameFree(ctx context.Context, projectID int64, name string, selfID int64) error {
	taken, err := s.deliverables.NameTaken(ctx, projectID, name, selfID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if taken {
		return apperrors.NewConflict("a deliverable with that name already exists in the project")
	}
	return nil
}

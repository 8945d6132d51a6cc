package service

import (
	"context"

	"github.com/spec-kit/project-docs/internal/repository"
)

// OwnershipResolver answers the gate's owner lookups from the repositories.
type OwnershipResolver struct {
	projects     repository.ProjectRepository
	deliverables repository.DeliverableRepository
}

// NewOwnershipResolver wires the resolver.
func NewOwnershipResolver(projects repository.ProjectRepository, deliverables repository.DeliverableRepository) *OwnershipResolver {
	return &OwnershipResolver{projects: projects, deliverables: deliverables}
}

func (r *OwnershipResolver) ProjectPlatform(ctx context.Context, projectID int64) (int64, error) {
	return r.projects.PlatformOf(ctx, projectID)
}

func (r *OwnershipResolver) DeliverableOwner(ctx context.Context, deliverableID int64) (int64, int64, error) {
	return r.deliverables.Owner(ctx, deliverableID)
}

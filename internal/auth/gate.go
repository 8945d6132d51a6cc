package auth

import (
	"context"

	"github.com/spec-kit/project-docs/internal/domain"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// Scope names the kind of resource an operation targets.
type Scope int

const (
	ScopeNone Scope = iota
	ScopePlatform
	ScopeProject
	ScopeDeliverable
)

func (s Scope) resource() string {
	switch s {
	case ScopePlatform:
		return "platform"
	case ScopeProject:
		return "project"
	case ScopeDeliverable:
		return "deliverable"
	default:
		return "resource"
	}
}

// Policy declares which roles may run an operation and how its target is scoped.
type Policy struct {
	Roles []domain.Role
	Scope Scope
}

// Allow builds an unscoped policy for the given roles.
func Allow(roles ...domain.Role) Policy {
	return Policy{Roles: roles}
}

// On returns a copy of the policy scoped to s.
func (p Policy) On(s Scope) Policy {
	p.Scope = s
	return p
}

func (p Policy) permits(role domain.Role) bool {
	for _, allowed := range p.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// OwnerResolver finds the owners of scoped resources. Implementations return
// an error satisfying errorutil.IsNotFound when the target does not exist.
type OwnerResolver interface {
	ProjectPlatform(ctx context.Context, projectID int64) (int64, error)
	DeliverableOwner(ctx context.Context, deliverableID int64) (projectID, platformID int64, err error)
}

// Gate applies the role whitelist and then the resource scope check.
type Gate struct {
	resolver OwnerResolver
}

// NewGate constructs a gate backed by resolver.
func NewGate(resolver OwnerResolver) *Gate {
	return &Gate{resolver: resolver}
}

// CheckRole is the first tier: authentication, then role membership.
func (g *Gate) CheckRole(p *Principal, policy Policy) error {
	if p == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !policy.permits(p.Role()) {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

// Authorize runs both tiers for the resource identified by resourceID.
// Owner lookups only happen once the role check has passed.
func (g *Gate) Authorize(ctx context.Context, p *Principal, policy Policy, resourceID int64) error {
	if err := g.CheckRole(p, policy); err != nil {
		return err
	}
	if policy.Scope == ScopeNone {
		return nil
	}

	switch p.Role() {
	case domain.RoleDirection, domain.RoleAdministrationUser:
		return nil
	case domain.RolePlatformCoordinator:
		platformID, err := g.platformOf(ctx, policy.Scope, resourceID)
		if err != nil {
			return err
		}
		if !p.HasPlatform(platformID) {
			return apperrors.NewForbidden("platform not assigned to caller")
		}
		return nil
	case domain.RoleProjectLeader:
		if policy.Scope == ScopePlatform {
			return apperrors.NewForbidden("project leaders have no platform scope")
		}
		projectID, err := g.projectOf(ctx, policy.Scope, resourceID)
		if err != nil {
			return err
		}
		if !p.HasProject(projectID) {
			return apperrors.NewForbidden("project not assigned to caller")
		}
		return nil
	default:
		return apperrors.NewForbidden("insufficient role")
	}
}

func (g *Gate) platformOf(ctx context.Context, scope Scope, id int64) (int64, error) {
	switch scope {
	case ScopePlatform:
		return id, nil
	case ScopeProject:
		if g.resolver == nil {
			return 0, apperrors.NewForbidden("access denied")
		}
		platformID, err := g.resolver.ProjectPlatform(ctx, id)
		return platformID, resolutionError(scope, err)
	case ScopeDeliverable:
		if g.resolver == nil {
			return 0, apperrors.NewForbidden("access denied")
		}
		_, platformID, err := g.resolver.DeliverableOwner(ctx, id)
		return platformID, resolutionError(scope, err)
	default:
		return 0, apperrors.NewForbidden("access denied")
	}
}

func (g *Gate) projectOf(ctx context.Context, scope Scope, id int64) (int64, error) {
	switch scope {
	case ScopeProject:
		return id, nil
	case ScopeDeliverable:
		if g.resolver == nil {
			return 0, apperrors.NewForbidden("access denied")
		}
		projectID, _, err := g.resolver.DeliverableOwner(ctx, id)
		return projectID, resolutionError(scope, err)
	default:
		return 0, apperrors.NewForbidden("access denied")
	}
}

// resolutionError maps a missing target to NotFound and anything else to a
// denial.
func resolutionError(scope Scope, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(scope.resource())
	}
	return apperrors.NewForbiddenCause("access denied", err)
}

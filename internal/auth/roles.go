package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-docs/internal/domain"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// RequireRoles ensures the principal holds one of the allowed roles.
func RequireRoles(gate *Gate, allowed ...domain.Role) fiber.Handler {
	return Require(gate, Allow(allowed...), "")
}

// RequireAuthenticated ensures any valid principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// Require applies policy to the route. When the policy is scoped, param names
// the route parameter carrying the target id. The id is only parsed after the
// role check so malformed ids never bypass it.
func Require(gate *Gate, policy Policy, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := gate.CheckRole(principal, policy); err != nil {
			return err
		}
		if policy.Scope == ScopeNone || param == "" {
			return c.Next()
		}
		id, err := ParamID(c, param)
		if err != nil {
			return err
		}
		if err := gate.Authorize(c.UserContext(), principal, policy, id); err != nil {
			return err
		}
		return c.Next()
	}
}

// ParamID parses a positive integer route parameter.
func ParamID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", param+" must be a positive integer")
	}
	return id, nil
}

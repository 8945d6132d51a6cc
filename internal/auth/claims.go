package auth

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/spec-kit/project-docs/internal/domain"
)

var (
	ErrInvalidSubject = errors.New("token subject is not a user id")
	ErrUnknownRole    = errors.New("token carries an unknown role")
)

// Principal is the authenticated caller for the duration of one request.
// It is built once from verified claims and exposes read-only accessors.
type Principal struct {
	userID    int64
	name      string
	email     string
	role      domain.Role
	platforms map[int64]struct{}
	projects  map[int64]struct{}
}

// NewPrincipal builds a principal from already-parsed values.
func NewPrincipal(userID int64, role domain.Role, platforms, projects []int64) *Principal {
	return &Principal{
		userID:    userID,
		role:      role,
		platforms: toSet(platforms),
		projects:  toSet(projects),
	}
}

// Extract turns verified claims into a Principal. A missing or non-numeric
// subject and an unknown role both leave the request unauthenticated.
func Extract(claims *Claims) (*Principal, error) {
	if claims == nil {
		return nil, ErrInvalidSubject
	}
	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(subject), 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrInvalidSubject
	}

	role, err := roleFromClaims(claims)
	if err != nil {
		return nil, err
	}

	p := NewPrincipal(userID, role, ParseIDList(claims.AssignedPlatforms), ParseIDList(claims.AssignedProjects))
	p.name = claims.Name
	p.email = claims.Email
	return p, nil
}

func roleFromClaims(claims *Claims) (domain.Role, error) {
	if claims.Role != "" {
		role, err := domain.ParseRole(claims.Role)
		if err != nil {
			return 0, ErrUnknownRole
		}
		if claims.RoleValue != 0 && int(role) != claims.RoleValue {
			return 0, ErrUnknownRole
		}
		return role, nil
	}
	if role := domain.Role(claims.RoleValue); role.Valid() {
		return role, nil
	}
	return 0, ErrUnknownRole
}

// ParseIDList decodes a comma-joined id claim. Entries that are not positive
// integers are dropped.
func ParseIDList(value string) []int64 {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (p *Principal) UserID() int64     { return p.userID }
func (p *Principal) Name() string      { return p.name }
func (p *Principal) Email() string     { return p.email }
func (p *Principal) Role() domain.Role { return p.role }

// HasPlatform reports whether the platform is in the assigned set.
func (p *Principal) HasPlatform(id int64) bool {
	_, ok := p.platforms[id]
	return ok
}

// HasProject reports whether the project is in the assigned set.
func (p *Principal) HasProject(id int64) bool {
	_, ok := p.projects[id]
	return ok
}

// Platforms returns a sorted copy of the assigned platform ids.
func (p *Principal) Platforms() []int64 { return sortedKeys(p.platforms) }

// Projects returns a sorted copy of the assigned project ids.
func (p *Principal) Projects() []int64 { return sortedKeys(p.projects) }

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedKeys(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

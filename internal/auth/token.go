package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/project-docs/internal/domain"
)

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// IssuerOption customizes an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer builds a new issuer. A non-positive ttl falls back to 24h.
func NewIssuer(secret, issuer, audience string, ttl time.Duration, opts ...IssuerOption) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	i := &Issuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Claims describes the JWT payload. Assignment lists are comma-joined ids and
// are only present for the role they belong to.
type Claims struct {
	UserID            string `json:"uid"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	RoleValue         int    `json:"role_id"`
	AssignedPlatforms string `json:"assigned_platforms,omitempty"`
	AssignedProjects  string `json:"assigned_projects,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the snapshot of a user taken at login time.
type Identity struct {
	UserID    int64
	Name      string
	Email     string
	Role      domain.Role
	Platforms []int64
	Projects  []int64
}

// Issue builds and signs a token for the identity.
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	subject := strconv.FormatInt(id.UserID, 10)

	claims := &Claims{
		UserID:    subject,
		Name:      id.Name,
		Email:     id.Email,
		Role:      id.Role.String(),
		RoleValue: int(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	switch id.Role {
	case domain.RolePlatformCoordinator:
		claims.AssignedPlatforms = JoinIDs(id.Platforms)
	case domain.RoleProjectLeader:
		claims.AssignedProjects = JoinIDs(id.Projects)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates signature, issuer, audience and expiration with no leeway.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// JoinIDs encodes ids as the comma-joined claim value.
func JoinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

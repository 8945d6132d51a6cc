package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/repository"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

const minPasswordLength = 6

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// AuthService coordinates login and self-service account flows.
type AuthService struct {
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	issuer      *auth.Issuer
	verifier    auth.CredentialVerifier
	attempts    auth.AttemptLimiter
	logger      *zap.Logger
	bcryptCost  int
	dummyHash   string
	now         func() time.Time
}

// AuthDependencies bundles collaborators of the auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	AssignmentRepo repository.AssignmentRepository
	Issuer         *auth.Issuer
	Verifier       auth.CredentialVerifier
	Attempts       auth.AttemptLimiter
	Logger         *zap.Logger
	BcryptCost     int
}

// NewAuthService builds the service. It hashes a throwaway secret so unknown
// accounts cost the same bcrypt work as known ones.
func NewAuthService(deps AuthDependencies) (*AuthService, error) {
	dummy, err := auth.HashPassword("login-timing-equalizer", deps.BcryptCost)
	if err != nil {
		return nil, err
	}
	verifier := deps.Verifier
	if verifier == nil {
		verifier = auth.BcryptVerifier{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		assignments: deps.AssignmentRepo,
		issuer:      deps.Issuer,
		verifier:    verifier,
		attempts:    deps.Attempts,
		logger:      logger,
		bcryptCost:  deps.BcryptCost,
		dummyHash:   dummy,
		now:         time.Now,
	}, nil
}

// Login verifies credentials and issues a token carrying the caller's current
// assignments. Unknown, inactive and mismatched accounts fail identically.
func (s *AuthService) Login(ctx context.Context, email, secret string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || secret == "" {
		return nil, apperrors.NewValidationError("validation failed", "email and password are required")
	}

	if s.attempts != nil {
		allowed, err := s.attempts.Allow(ctx, email)
		if err != nil {
			s.logger.Warn("login throttle unavailable", zap.Error(err))
		} else if !allowed {
			return nil, apperrors.NewTooManyRequests("too many failed login attempts, try again later")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, apperrors.NewInternalError(err)
	}

	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	matched := s.verifier.Verify(hash, secret)
	if user == nil || !user.Active || !matched {
		s.recordFailure(ctx, email)
		return nil, apperrors.NewInvalidCredentials()
	}

	identity := auth.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}
	switch user.Role {
	case domain.RolePlatformCoordinator:
		if identity.Platforms, err = s.assignments.PlatformIDsForUser(ctx, user.ID); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	case domain.RoleProjectLeader:
		if identity.Projects, err = s.assignments.ProjectIDsForUser(ctx, user.ID); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}

	token, expiresAt, err := s.issuer.Issue(identity)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if s.attempts != nil {
		if err := s.attempts.Reset(ctx, email); err != nil {
			s.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}
	now := s.now().UTC()
	if err := s.users.TouchLastAccess(ctx, user.ID, now); err != nil {
		s.logger.Warn("last access update failed", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastAccessAt = &now
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Fail(ctx, email); err != nil {
		s.logger.Warn("login throttle update failed", zap.Error(err))
	}
}

// Me returns the account behind the principal. A deleted or deactivated
// account no longer authenticates even while its token is unexpired.
func (s *AuthService) Me(ctx context.Context, p *auth.Principal) (*domain.User, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, p.UserID())
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("account no longer exists")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account is inactive")
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, p *auth.Principal, current, next, confirm string) error {
	if next != confirm {
		return apperrors.NewValidationError("validation failed", "confirmPassword must match newPassword")
	}
	if len(next) < minPasswordLength {
		return apperrors.NewValidationError("validation failed", "newPassword must be at least 6 characters")
	}
	user, err := s.Me(ctx, p)
	if err != nil {
		return err
	}
	if !s.verifier.Verify(user.PasswordHash, current) {
		return apperrors.NewValidationError("validation failed", "current password is incorrect")
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

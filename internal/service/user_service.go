package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/repository"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// CreateUserInput carries the fields of a new account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
	Active   *bool
}

// UserService manages accounts.
type UserService struct {
	users      repository.UserRepository
	logger     *zap.Logger
	bcryptCost int
}

// NewUserService creates the service.
func NewUserService(users repository.UserRepository, logger *zap.Logger, bcryptCost int) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, logger: logger, bcryptCost: bcryptCost}
}

// List returns every account, active or not.
func (s *UserService) List(ctx context.Context, page PageRequest) (*domain.Page[domain.User], error) {
	return s.list(ctx, repository.UserFilter{}, page)
}

// ListByRole returns active accounts holding role.
func (s *UserService) ListByRole(ctx context.Context, role domain.Role, page PageRequest) (*domain.Page[domain.User], error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("validation failed", "unknown role")
	}
	return s.list(ctx, repository.UserFilter{Role: &role, ActiveOnly: true}, page)
}

func (s *UserService) list(ctx context.Context, filter repository.UserFilter, page PageRequest) (*domain.Page[domain.User], error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	filter.Limit = page.PageSize
	filter.Offset = page.offset()
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return newPage(users, total, page), nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return user, nil
}

// GetByEmail returns the account registered with email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Create registers an active account.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	name, err := requireText("name", in.Name, 100)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("validation failed", "password must be at least 6 characters")
	}
	if !in.Role.Valid() {
		return nil, apperrors.NewValidationError("validation failed", "unknown role")
	}
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, conflictOr(err, "email already registered")
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", user.Role.String()))
	return user, nil
}

// Update applies a partial update.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if user.Name, err = requireText("name", *in.Name, 100); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		email, err := validateEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, id); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, apperrors.NewValidationError("validation failed", "password must be at least 6 characters")
		}
		if user.PasswordHash, err = auth.HashPassword(*in.Password, s.bcryptCost); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.NewValidationError("validation failed", "unknown role")
		}
		user.Role = *in.Role
	}
	if in.Active != nil {
		user.Active = *in.Active
	}
	if err := s.users.Update(ctx, user); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, notFoundOr(err, "user", id)
		}
		return nil, conflictOr(err, "email already registered")
	}
	return user, nil
}

// Delete deactivates the account; rows are kept for audit.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !user.Active {
		return nil
	}
	user.Active = false
	if err := s.users.Update(ctx, user); err != nil {
		return notFoundOr(err, "user", id)
	}
	s.logger.Info("user deactivated", zap.Int64("user_id", id))
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return apperrors.NewConflict("email already registered")
	case err != nil && !apperrors.IsNotFound(err):
		return apperrors.MapError(err)
	}
	return nil
}

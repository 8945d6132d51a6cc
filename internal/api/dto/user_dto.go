package dto

import (
	"time"

	"github.com/spec-kit/project-docs/internal/domain"
)

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// ChangePasswordRequest payload for authenticated password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// UpdateUserRequest payload; omitted fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Role     *domain.Role `json:"role"`
	Active   *bool        `json:"active"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         int        `json:"role"`
	RoleName     string     `json:"roleName"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastAccessAt *time.Time `json:"lastAccessAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         int(u.Role),
		RoleName:     u.Role.String(),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		LastAccessAt: u.LastAccessAt,
	}
}

// PrincipalResponse describes the caller as seen by the token.
type PrincipalResponse struct {
	UserID    int64   `json:"userId"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      int     `json:"role"`
	RoleName  string  `json:"roleName"`
	Platforms []int64 `json:"assignedPlatforms"`
	Projects  []int64 `json:"assignedProjects"`
}

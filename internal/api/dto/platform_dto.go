package dto

import (
	"time"

	"github.com/spec-kit/project-docs/internal/domain"
)

// CreatePlatformRequest payload.
type CreatePlatformRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdatePlatformRequest payload; omitted fields are left unchanged.
type UpdatePlatformRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

// AssignUserRequest names the user to link to a platform or project.
type AssignUserRequest struct {
	UserID int64 `json:"userId"`
}

// PlatformResponse representation.
type PlatformResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

// NewPlatformResponse maps a domain platform.
func NewPlatformResponse(p *domain.Platform) PlatformResponse {
	return PlatformResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// PlatformStatsResponse representation.
type PlatformStatsResponse struct {
	PlatformID         int64     `json:"platformId"`
	PlatformName       string    `json:"platformName"`
	TotalProjects      int       `json:"totalProjects"`
	ActiveProjects     int       `json:"activeProjects"`
	InactiveProjects   int       `json:"inactiveProjects"`
	ProjectsWithEnd    int       `json:"projectsWithEndDate"`
	ProjectsWithoutEnd int       `json:"projectsWithoutEndDate"`
	CheckedAt          time.Time `json:"checkedAt"`
}

// NewPlatformStatsResponse maps platform stats.
func NewPlatformStatsResponse(s *domain.PlatformStats) PlatformStatsResponse {
	return PlatformStatsResponse(*s)
}

// PlatformSummaryResponse is one row of the overview.
type PlatformSummaryResponse struct {
	PlatformID     int64     `json:"platformId"`
	Name           string    `json:"name"`
	Active         bool      `json:"active"`
	TotalProjects  int       `json:"totalProjects"`
	ActiveProjects int       `json:"activeProjects"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewPlatformSummaryResponse maps a summary row.
func NewPlatformSummaryResponse(s *domain.PlatformSummary) PlatformSummaryResponse {
	return PlatformSummaryResponse(*s)
}

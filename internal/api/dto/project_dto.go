package dto

import (
	"time"

	"github.com/spec-kit/project-docs/internal/domain"
)

// CreateProjectRequest payload. Dates accept YYYY-MM-DD or RFC 3339.
type CreateProjectRequest struct {
	PlatformID  int64   `json:"platformId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate"`
}

// UpdateProjectRequest payload. An empty endDate clears it.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Active      *bool   `json:"active"`
}

// ProjectResponse representation.
type ProjectResponse struct {
	ID           int64      `json:"id"`
	PlatformID   int64      `json:"platformId"`
	PlatformName string     `json:"platformName"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt"`
}

// NewProjectResponse maps a domain project.
func NewProjectResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID,
		PlatformID:   p.PlatformID,
		PlatformName: p.PlatformName,
		Name:         p.Name,
		Description:  p.Description,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ProjectStatsResponse representation.
type ProjectStatsResponse struct {
	ProjectID            int64      `json:"projectId"`
	ProjectName          string     `json:"projectName"`
	PlatformName         string     `json:"platformName"`
	TotalDeliverables    int        `json:"totalDeliverables"`
	ActiveDeliverables   int        `json:"activeDeliverables"`
	InactiveDeliverables int        `json:"inactiveDeliverables"`
	TotalLeaders         int        `json:"totalLeaders"`
	ActiveLeaders        int        `json:"activeLeaders"`
	StartDate            time.Time  `json:"startDate"`
	EndDate              *time.Time `json:"endDate"`
	ElapsedDays          int        `json:"elapsedDays"`
	RemainingDays        *int       `json:"remainingDays"`
	CheckedAt            time.Time  `json:"checkedAt"`
}

// NewProjectStatsResponse maps project stats.
func NewProjectStatsResponse(s *domain.ProjectStats) ProjectStatsResponse {
	return ProjectStatsResponse(*s)
}

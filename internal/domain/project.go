package domain

import "time"

// Project belongs to exactly one platform and owns deliverables.
type Project struct {
	ID             int64
	PlatformID     int64
	PlatformName   string
	PlatformActive bool
	Name           string
	Description    string
	StartDate      time.Time
	EndDate        *time.Time
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// ProjectStats aggregates deliverable and leader counters for a project.
type ProjectStats struct {
	ProjectID            int64
	ProjectName          string
	PlatformName         string
	TotalDeliverables    int
	ActiveDeliverables   int
	InactiveDeliverables int
	TotalLeaders         int
	ActiveLeaders        int
	StartDate            time.Time
	EndDate              *time.Time
	ElapsedDays          int
	RemainingDays        *int
	CheckedAt            time.Time
}

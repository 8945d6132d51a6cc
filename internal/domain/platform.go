package domain

import "time"

// Platform is the top-level tenant grouping projects.
type Platform struct {
	ID          int64
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// PlatformStats aggregates project counters for a single platform.
type PlatformStats struct {
	PlatformID         int64
	PlatformName       string
	TotalProjects      int
	ActiveProjects     int
	InactiveProjects   int
	ProjectsWithEnd    int
	ProjectsWithoutEnd int
	CheckedAt          time.Time
}

// PlatformSummary is one row of the platforms overview.
type PlatformSummary struct {
	PlatformID     int64
	Name           string
	Active         bool
	TotalProjects  int
	ActiveProjects int
	CreatedAt      time.Time
}

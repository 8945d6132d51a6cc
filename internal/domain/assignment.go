package domain

import "time"

// PlatformAssignment links a coordinator to a platform.
type PlatformAssignment struct {
	UserID     int64
	PlatformID int64
	AssignedAt time.Time
}

// ProjectAssignment links a leader to a project.
type ProjectAssignment struct {
	UserID     int64
	ProjectID  int64
	AssignedAt time.Time
}

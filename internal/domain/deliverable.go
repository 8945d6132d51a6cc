package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OriginKind selects how a deliverable payload is retrieved.
type OriginKind int

const (
	OriginSQLSource   OriginKind = 1
	OriginExternalAPI OriginKind = 2
)

// String returns the wire name of the origin kind.
func (k OriginKind) String() string {
	switch k {
	case OriginSQLSource:
		return "SqlServer"
	case OriginExternalAPI:
		return "ApiExterna"
	default:
		return "OriginKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Valid reports whether k is a known origin kind.
func (k OriginKind) Valid() bool {
	return k == OriginSQLSource || k == OriginExternalAPI
}

// ParseOriginKind accepts the wire name or the numeric code.
func ParseOriginKind(value string) (OriginKind, error) {
	value = strings.TrimSpace(value)
	switch {
	case strings.EqualFold(value, OriginSQLSource.String()), strings.EqualFold(value, "sql"):
		return OriginSQLSource, nil
	case strings.EqualFold(value, OriginExternalAPI.String()), strings.EqualFold(value, "api"):
		return OriginExternalAPI, nil
	}
	if n, err := strconv.Atoi(value); err == nil && OriginKind(n).Valid() {
		return OriginKind(n), nil
	}
	return 0, fmt.Errorf("unknown origin kind %q", value)
}

// AvailabilityState is the derived lifecycle label of a deliverable.
type AvailabilityState string

const (
	AvailabilityAvailable AvailabilityState = "Disponible"
	AvailabilityPending   AvailabilityState = "Pendiente"
	AvailabilityInactive  AvailabilityState = "Inactivo"
)

// Deliverable is a dated data artifact of a project. Its payload lives in an
// external origin described by OriginKind and the opaque OriginConfig.
type Deliverable struct {
	ID           int64
	ProjectID    int64
	ProjectName  string
	PlatformName string
	Name         string
	Title        string
	Description  string
	AvailableAt  time.Time
	OriginKind   OriginKind
	OriginConfig string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	ReceiptCount int
}

// IsAvailable is recomputed on every read; availability is never stored.
func (d *Deliverable) IsAvailable(now time.Time) bool {
	return d.Active && !d.AvailableAt.After(now)
}

// State reports Disponible, Pendiente or Inactivo at the given instant.
func (d *Deliverable) State(now time.Time) AvailabilityState {
	switch {
	case !d.Active:
		return AvailabilityInactive
	case d.AvailableAt.After(now):
		return AvailabilityPending
	default:
		return AvailabilityAvailable
	}
}

// DaysRemaining counts whole days until AvailableAt, zero once reached.
func (d *Deliverable) DaysRemaining(now time.Time) int {
	if !d.AvailableAt.After(now) {
		return 0
	}
	return int(d.AvailableAt.Sub(now).Hours() / 24)
}

// Availability is the result of an availability check.
type Availability struct {
	DeliverableID int64
	Title         string
	AvailableAt   time.Time
	Available     bool
	DaysRemaining int
	State         AvailabilityState
	CheckedAt     time.Time
}

// DeliverableStats counts available and pending deliverables.
type DeliverableStats struct {
	Available int
	Pending   int
	Total     int
	CheckedAt time.Time
}

package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/service"
)

// CreateDeliverableRequest payload. OriginConfig is kept as raw JSON text
// whether the client sends it as an object or as a string.
type CreateDeliverableRequest struct {
	ProjectID    int64           `json:"projectId"`
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	AvailableAt  string          `json:"availableAt"`
	OriginKind   json.RawMessage `json:"originKind"`
	OriginConfig json.RawMessage `json:"originConfig"`
}

// UpdateDeliverableRequest payload; omitted fields are left unchanged.
type UpdateDeliverableRequest struct {
	Name         *string         `json:"name"`
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	AvailableAt  *string         `json:"availableAt"`
	OriginKind   json.RawMessage `json:"originKind"`
	OriginConfig json.RawMessage `json:"originConfig"`
}

// ValidateOriginRequest payload for POST /api/entregables/validar-origen.
type ValidateOriginRequest struct {
	OriginKind   json.RawMessage `json:"originKind"`
	OriginConfig json.RawMessage `json:"originConfig"`
}

// DeliverableResponse representation. The availability flag and state are
// computed at response time.
type DeliverableResponse struct {
	ID           int64                    `json:"id"`
	ProjectID    int64                    `json:"projectId"`
	ProjectName  string                   `json:"projectName"`
	PlatformName string                   `json:"platformName"`
	Name         string                   `json:"name"`
	Title        string                   `json:"title"`
	Description  string                   `json:"description"`
	AvailableAt  time.Time                `json:"availableAt"`
	OriginKind   int                      `json:"originKind"`
	OriginName   string                   `json:"originKindName"`
	OriginConfig string                   `json:"originConfig,omitempty"`
	Active       bool                     `json:"active"`
	Available    bool                     `json:"available"`
	State        domain.AvailabilityState `json:"state"`
	ReceiptCount int                      `json:"receiptCount"`
	CreatedAt    time.Time                `json:"createdAt"`
	UpdatedAt    *time.Time               `json:"updatedAt"`
}

// NewDeliverableResponse maps a deliverable. Origin config is only included
// when withConfig is set since it may hold connection credentials.
func NewDeliverableResponse(d *domain.Deliverable, now time.Time, withConfig bool) DeliverableResponse {
	resp := DeliverableResponse{
		ID:           d.ID,
		ProjectID:    d.ProjectID,
		ProjectName:  d.ProjectName,
		PlatformName: d.PlatformName,
		Name:         d.Name,
		Title:        d.Title,
		Description:  d.Description,
		AvailableAt:  d.AvailableAt,
		OriginKind:   int(d.OriginKind),
		OriginName:   d.OriginKind.String(),
		Active:       d.Active,
		Available:    d.IsAvailable(now),
		State:        d.State(now),
		ReceiptCount: d.ReceiptCount,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if withConfig {
		resp.OriginConfig = d.OriginConfig
	}
	return resp
}

// AvailabilityResponse representation.
type AvailabilityResponse struct {
	DeliverableID int64                    `json:"deliverableId"`
	Title         string                   `json:"title"`
	AvailableAt   time.Time                `json:"availableAt"`
	Available     bool                     `json:"available"`
	DaysRemaining int                      `json:"daysRemaining"`
	State         domain.AvailabilityState `json:"state"`
	CheckedAt     time.Time                `json:"checkedAt"`
}

// NewAvailabilityResponse maps an availability check.
func NewAvailabilityResponse(a *domain.Availability) AvailabilityResponse {
	return AvailabilityResponse(*a)
}

// DeleteDeliverableResponse reports whether the row was kept.
type DeleteDeliverableResponse struct {
	DeliverableID int64 `json:"deliverableId"`
	SoftDelete    bool  `json:"softDelete"`
}

// NewDeleteDeliverableResponse maps a delete result.
func NewDeleteDeliverableResponse(r *service.DeleteResult) DeleteDeliverableResponse {
	return DeleteDeliverableResponse(*r)
}

// DeliverableStatsResponse representation.
type DeliverableStatsResponse struct {
	Available int       `json:"available"`
	Pending   int       `json:"pending"`
	Total     int       `json:"total"`
	CheckedAt time.Time `json:"checkedAt"`
}

// NewDeliverableStatsResponse maps deliverable stats.
func NewDeliverableStatsResponse(s *domain.DeliverableStats) DeliverableStatsResponse {
	return DeliverableStatsResponse(*s)
}

// ValidateOriginResponse representation.
type ValidateOriginResponse struct {
	Valid bool `json:"valid"`
}

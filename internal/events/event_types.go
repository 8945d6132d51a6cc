package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCoordinatorAssigned   EventType = "coordinator_assigned"
	EventCoordinatorUnassigned EventType = "coordinator_unassigned"
	EventLeaderAssigned        EventType = "leader_assigned"
	EventLeaderUnassigned      EventType = "leader_unassigned"
	EventDeliverableCreated    EventType = "deliverable_created"
	EventDeliverableDeleted    EventType = "deliverable_deleted"
	EventDeliverableDataFetch  EventType = "deliverable_data_fetched"
)

// AuditEventTypes lists every type the services publish.
func AuditEventTypes() []EventType {
	return []EventType{
		EventCoordinatorAssigned,
		EventCoordinatorUnassigned,
		EventLeaderAssigned,
		EventLeaderUnassigned,
		EventDeliverableCreated,
		EventDeliverableDeleted,
		EventDeliverableDataFetch,
	}
}

// Event is an audit record emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ActorID    int64     `json:"actor_id"`
	ResourceID int64     `json:"resource_id"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, actorID, resourceID int64, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ActorID:    actorID,
		ResourceID: resourceID,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// AssignmentPayload describes an assignment change. ResourceID of the event
// is the platform or project.
type AssignmentPayload struct {
	UserID int64 `json:"user_id"`
}

// DeliverableDeletedPayload reports whether the row was kept inactive.
type DeliverableDeletedPayload struct {
	ProjectID  int64 `json:"project_id"`
	SoftDelete bool  `json:"soft_delete"`
}

// DeliverableCreatedPayload summarizes a new deliverable.
type DeliverableCreatedPayload struct {
	ProjectID  int64  `json:"project_id"`
	Name       string `json:"name"`
	OriginKind string `json:"origin_kind"`
}

// DataFetchedPayload records the outcome of a payload fetch.
type DataFetchedPayload struct {
	OriginKind string `json:"origin_kind"`
	Records    int    `json:"records,omitempty"`
	Failure    string `json:"failure,omitempty"`
}

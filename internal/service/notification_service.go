package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/project-docs/internal/events"
)

// EventSink accepts audit events for asynchronous delivery. Enqueue must not
// block; it reports false when the event was dropped.
type EventSink interface {
	Enqueue(event events.Event) bool
}

// NotificationService logs audit events and forwards them to an optional sink.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sink       EventSink
}

// NewNotificationService creates the service. A nil sink only logs.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sink EventSink) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to every audit event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	events.SubscribeAll(n.dispatcher, events.AuditEventTypes(), n.handle)
}

func (n *NotificationService) handle(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("actor_id", event.ActorID),
		zap.Int64("resource_id", event.ResourceID),
		zap.Any("payload", event.Payload))
	if n.sink != nil && !n.sink.Enqueue(event) {
		n.logger.Warn("audit webhook queue full, event dropped",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

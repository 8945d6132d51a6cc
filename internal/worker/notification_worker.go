package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-docs/internal/events"
	"github.com/spec-kit/project-docs/internal/service"
)

const defaultQueueSize = 64

// WebhookDeliverer posts audit events to a webhook from a single goroutine.
type WebhookDeliverer struct {
	url    string
	client *http.Client
	logger *zap.Logger
	queue  chan events.Event
	done   chan struct{}
}

// NewWebhookDeliverer builds a deliverer with a bounded queue.
func NewWebhookDeliverer(url string, client *http.Client, queueSize int, logger *zap.Logger) *WebhookDeliverer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookDeliverer{
		url:    url,
		client: client,
		logger: logger,
		queue:  make(chan events.Event, queueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue never blocks; a full queue drops the event.
func (w *WebhookDeliverer) Enqueue(event events.Event) bool {
	select {
	case w.queue <- event:
		return true
	default:
		return false
	}
}

// Run delivers queued events until ctx ends, then drains what is left with
// a short deadline.
func (w *WebhookDeliverer) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case event := <-w.queue:
			w.deliver(ctx, event)
		}
	}
}

// Wait blocks until Run has returned.
func (w *WebhookDeliverer) Wait() {
	<-w.done
}

func (w *WebhookDeliverer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		default:
			return
		}
	}
}

func (w *WebhookDeliverer) deliver(ctx context.Context, event events.Event) {
	if err := w.post(ctx, event); err != nil {
		w.logger.Warn("audit webhook delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return
	}
	w.logger.Debug("audit webhook delivered", zap.String("event_id", event.ID))
}

func (w *WebhookDeliverer) post(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}

// StartNotificationWorker registers the audit handlers and, when a webhook
// URL is configured, starts the deliverer. The returned deliverer is nil
// when no webhook is configured.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, webhookURL string, logger *zap.Logger) *WebhookDeliverer {
	var deliverer *WebhookDeliverer
	var sink service.EventSink
	if webhookURL != "" {
		deliverer = NewWebhookDeliverer(webhookURL, nil, defaultQueueSize, logger)
		sink = deliverer
		go deliverer.Run(ctx)
	}
	service.NewNotificationService(dispatcher, logger, sink).RegisterHandlers()
	return deliverer
}

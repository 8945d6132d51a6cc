package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/project-docs/internal/events"
)

func TestWebhookDelivererPostsEvents(t *testing.T) {
	var mu sync.Mutex
	var received []events.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %q", r.Method, r.Header.Get("Content-Type"))
		}
		var e events.Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decode: %v", err)
		}
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewWebhookDeliverer(srv.URL, srv.Client(), 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	event := events.New(events.EventLeaderAssigned, 1, 7, events.AssignmentPayload{UserID: 3})
	if !d.Enqueue(event) {
		t.Fatal("enqueue rejected")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected one delivery, got %d", len(received))
	}
	if received[0].ID != event.ID || received[0].Type != events.EventLeaderAssigned {
		t.Fatalf("unexpected event %+v", received[0])
	}
}

func TestWebhookDelivererDropsWhenFull(t *testing.T) {
	d := NewWebhookDeliverer("http://127.0.0.1:0", nil, 1, nil)
	first := events.New(events.EventDeliverableCreated, 1, 2, nil)
	if !d.Enqueue(first) {
		t.Fatal("first enqueue should fit")
	}
	if d.Enqueue(events.New(events.EventDeliverableCreated, 1, 3, nil)) {
		t.Fatal("second enqueue should be dropped while nobody drains")
	}
}

func TestStartNotificationWorkerWithoutWebhook(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	if d := StartNotificationWorker(context.Background(), dispatcher, "", nil); d != nil {
		t.Fatal("expected no deliverer without a webhook url")
	}
	if err := dispatcher.Publish(context.Background(), events.New(events.EventCoordinatorAssigned, 1, 2, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

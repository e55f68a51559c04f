package telemetry

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arm-control/acc/internal/config"
)

func testConfig() config.TelemetryConfig {
	return config.TelemetryConfig{
		EventBufferSize:      5,
		HeartbeatIntervalSec: 15,
		HeartbeatJitterSec:   2,
	}
}

func TestEventBufferEviction(t *testing.T) {
	b := NewEventBuffer(3)

	for i := 0; i < 5; i++ {
		b.Add(Event{Type: "stateChanged"})
	}

	if b.Size() != 3 {
		t.Errorf("Size() = %d, want capacity 3", b.Size())
	}

	// Oldest two were evicted; IDs 3..5 remain.
	events := b.EventsAfter(0)
	if len(events) != 3 || events[0].ID != 3 || events[2].ID != 5 {
		t.Errorf("EventsAfter(0) = %+v, want IDs 3..5", events)
	}
}

func TestEventBufferReplayBoundary(t *testing.T) {
	b := NewEventBuffer(10)
	for i := 0; i < 4; i++ {
		b.Add(Event{Type: "fault"})
	}

	events := b.EventsAfter(2)
	if len(events) != 2 {
		t.Fatalf("EventsAfter(2) returned %d events, want 2", len(events))
	}
	if events[0].ID != 3 || events[1].ID != 4 {
		t.Errorf("EventsAfter(2) IDs = %d,%d, want 3,4", events[0].ID, events[1].ID)
	}
}

func TestPublishAssignsMonotonicIDs(t *testing.T) {
	h := NewHub(testConfig())
	defer h.Stop()

	for want := int64(1); want <= 3; want++ {
		event := Event{Type: "stateChanged", Controller: "arm", Data: map[string]interface{}{}}
		if err := h.PublishController("arm", event); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	h.mu.RLock()
	buffer := h.buffers["arm"]
	h.mu.RUnlock()
	events := buffer.EventsAfter(0)
	if len(events) != 3 {
		t.Fatalf("buffered %d events, want 3", len(events))
	}
	for i, event := range events {
		if event.ID != int64(i+1) {
			t.Errorf("event %d has ID %d, want %d", i, event.ID, i+1)
		}
	}
}

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	h := NewHub(testConfig())
	defer h.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/telemetry?controller=arm", nil)

	subDone := make(chan error, 1)
	go func() {
		subDone <- h.Subscribe(ctx, rec, req)
	}()

	// Wait for the client to register, then publish.
	deadline := time.Now().Add(time.Second)
	for {
		h.mu.RLock()
		n := len(h.clients)
		h.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	h.PublishController("arm", Event{
		Type: "stateChanged",
		Data: map[string]interface{}{"state": "active"},
	})

	// Give the client goroutine a moment to flush, then disconnect.
	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-subDone; err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: ready") {
		t.Errorf("missing ready event in SSE stream:\n%s", body)
	}
	if !strings.Contains(body, "event: stateChanged") {
		t.Errorf("missing stateChanged event in SSE stream:\n%s", body)
	}
	if !strings.Contains(body, `"state":"active"`) {
		t.Errorf("missing event payload in SSE stream:\n%s", body)
	}
}

func TestStopDisconnectsClients(t *testing.T) {
	h := NewHub(testConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/telemetry", nil)

	subDone := make(chan error, 1)
	go func() {
		subDone <- h.Subscribe(context.Background(), rec, req)
	}()

	deadline := time.Now().Add(time.Second)
	for {
		h.mu.RLock()
		n := len(h.clients)
		h.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	h.Stop()

	select {
	case <-subDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after Stop")
	}
}

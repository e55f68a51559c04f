package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arm-control/acc/internal/config"
)

// Event is a telemetry event with SSE formatting.
type Event struct {
	ID         int64                  `json:"id,omitempty"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	Controller string                 `json:"controller,omitempty"`
}

// Client is one SSE subscriber connection.
type Client struct {
	ID         string
	Writer     http.ResponseWriter
	Context    context.Context
	Cancel     context.CancelFunc
	LastID     int64
	Controller string
	Events     chan Event
	once       sync.Once
	mu         sync.Mutex // protects Writer
}

// Hub manages SSE distribution with per-controller event buffering.
//
// Lock ordering: h.mu before any EventBuffer.mu. Client channel close is
// guarded by sync.Once.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	counters map[string]*int64 // monotonic event IDs per controller
	buffers  map[string]*EventBuffer

	config config.TelemetryConfig

	heartbeatTicker *time.Ticker
	stopHeartbeat   chan struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewHub creates a telemetry hub.
func NewHub(cfg config.TelemetryConfig) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		counters: make(map[string]*int64),
		buffers:  make(map[string]*EventBuffer),
		config:   cfg,
		done:     make(chan struct{}),
	}
}

// Subscribe handles an SSE client subscription with Last-Event-ID resume.
// Blocks until the client disconnects or the hub stops.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientCtx, cancel := context.WithCancel(ctx)

	lastEventID := int64(0)
	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if id, err := strconv.ParseInt(lastIDStr, 10, 64); err == nil {
			lastEventID = id
		}
	}

	client := &Client{
		ID:         fmt.Sprintf("client_%d", time.Now().UnixNano()),
		Writer:     w,
		Context:    clientCtx,
		Cancel:     cancel,
		LastID:     lastEventID,
		Controller: r.URL.Query().Get("controller"),
		Events:     make(chan Event, 100),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	if len(h.clients) == 1 && h.heartbeatTicker == nil {
		h.startHeartbeat()
	}
	h.mu.Unlock()

	if err := h.sendEventToClient(client, Event{
		ID:   h.nextEventID(client.Controller),
		Type: "ready",
		Data: map[string]interface{}{"ts": time.Now().UTC().Format(time.RFC3339)},
	}); err != nil {
		h.unregisterClient(client.ID)
		return fmt.Errorf("failed to send ready event: %w", err)
	}

	if lastEventID > 0 {
		if err := h.replayEvents(client, lastEventID); err != nil {
			h.unregisterClient(client.ID)
			return fmt.Errorf("failed to replay events: %w", err)
		}
	}

	h.handleClient(client)
	return nil
}

// Publish distributes an event to all connected clients and buffers it
// under its controller.
func (h *Hub) Publish(event Event) error {
	if event.ID == 0 {
		event.ID = h.nextEventID(event.Controller)
	}
	if event.Controller != "" {
		h.bufferEvent(event)
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case <-client.Context.Done():
			continue
		case <-h.done:
			return nil
		case client.Events <- event:
		case <-time.After(100 * time.Millisecond):
			// Drop the event rather than block on a slow client.
		}
	}
	return nil
}

// PublishController publishes an event attributed to a controller.
func (h *Hub) PublishController(controller string, event Event) error {
	event.Controller = controller
	return h.Publish(event)
}

func (h *Hub) replayEvents(client *Client, lastEventID int64) error {
	h.mu.RLock()
	buffer, exists := h.buffers[client.Controller]
	h.mu.RUnlock()

	if !exists {
		return nil
	}
	for _, event := range buffer.EventsAfter(lastEventID) {
		if err := h.sendEventToClient(client, event); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) sendEventToClient(client *Client, event Event) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	if event.ID > 0 {
		if _, err := fmt.Fprintf(client.Writer, "id: %d\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if _, err := fmt.Fprintf(client.Writer, "event: %s\n", event.Type); err != nil {
		return fmt.Errorf("failed to write event type: %w", err)
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(client.Writer, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}

	if flusher, ok := client.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

func (h *Hub) handleClient(client *Client) {
	defer func() {
		client.once.Do(func() { close(client.Events) })
		h.unregisterClient(client.ID)
	}()

	for {
		select {
		case <-client.Context.Done():
			return
		case <-h.done:
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			if err := h.sendEventToClient(client, event); err != nil {
				return
			}
		}
	}
}

func (h *Hub) unregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[clientID]; exists {
		client.Cancel()
		delete(h.clients, clientID)

		if len(h.clients) == 0 && h.heartbeatTicker != nil {
			h.heartbeatTicker.Stop()
			h.heartbeatTicker = nil
			if h.stopHeartbeat != nil {
				close(h.stopHeartbeat)
				h.stopHeartbeat = nil
			}
		}
	}
}

func (h *Hub) nextEventID(controller string) int64 {
	if controller == "" {
		controller = "global"
	}

	h.mu.RLock()
	counter, exists := h.counters[controller]
	h.mu.RUnlock()

	if !exists {
		h.mu.Lock()
		counter, exists = h.counters[controller]
		if !exists {
			var initial int64
			counter = &initial
			h.counters[controller] = counter
		}
		h.mu.Unlock()
	}

	return atomic.AddInt64(counter, 1)
}

func (h *Hub) bufferEvent(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buffer, exists := h.buffers[event.Controller]
	if !exists {
		buffer = NewEventBuffer(h.config.EventBufferSize)
		h.buffers[event.Controller] = buffer
	}
	buffer.Add(event)
}

// startHeartbeat starts the heartbeat ticker. Caller holds h.mu.
func (h *Hub) startHeartbeat() {
	interval := h.config.HeartbeatInterval() + h.config.HeartbeatJitter()/2
	if interval <= 0 {
		return
	}

	h.heartbeatTicker = time.NewTicker(interval)
	h.stopHeartbeat = make(chan struct{})

	ticker := h.heartbeatTicker
	stop := h.stopHeartbeat

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ticker.C:
				h.Publish(Event{
					Type: "heartbeat",
					Data: map[string]interface{}{"ts": time.Now().UTC().Format(time.RFC3339)},
				})
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)

	h.mu.Lock()
	for _, client := range h.clients {
		client.Cancel()
	}
	if h.heartbeatTicker != nil {
		h.heartbeatTicker.Stop()
		h.heartbeatTicker = nil
	}
	if h.stopHeartbeat != nil {
		close(h.stopHeartbeat)
		h.stopHeartbeat = nil
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}

	h.mu.Lock()
	for _, client := range h.clients {
		client.Cancel()
		client.once.Do(func() { close(client.Events) })
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()
}

// EventBuffer is a bounded ring of events for one controller.
type EventBuffer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	nextID   int64
}

// NewEventBuffer creates a buffer with the given capacity.
func NewEventBuffer(capacity int) *EventBuffer {
	return &EventBuffer{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		nextID:   1,
	}
}

// Add appends an event, evicting the oldest past capacity.
func (b *EventBuffer) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if event.ID == 0 {
		event.ID = b.nextID
		b.nextID++
	}
	b.events = append(b.events, event)
	if len(b.events) > b.capacity {
		b.events = b.events[1:]
	}
}

// EventsAfter returns buffered events with IDs greater than lastID.
func (b *EventBuffer) EventsAfter(lastID int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, event := range b.events {
		if event.ID > lastID {
			result = append(result, event)
		}
	}
	return result
}

// Size returns the current number of buffered events.
func (b *EventBuffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

// Package realtime fans transient engine events (celebrations, progress
// updates) out to UI subscribers. Events are fire-and-forget; nothing here
// is persisted.
package realtime

import (
	"log/slog"
	"sync"
	"time"
)

// Event types emitted by the engine.
const (
	EventCelebration     = "celebration"
	EventCourseCompleted = "course_completed"
)

// Event is a transient UI signal.
type Event struct {
	Type     string    `json:"type"`
	ChildID  string    `json:"child_id"`
	CourseID string    `json:"course_id"`
	LessonID string    `json:"lesson_id,omitempty"`
	Points   int       `json:"points,omitempty"`
	At       time.Time `json:"at"`
}

// Sink receives engine events.
type Sink interface {
	Publish(Event)
}

// Hub is a Sink that fans events out to subscribers. A slow subscriber
// drops events rather than blocking the engine.
type Hub struct {
	subscribers map[int]chan Event
	nextID      int
	mu          sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int]chan Event),
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// to release the subscription.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, 16)
	h.subscribers[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if ch, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			slog.Debug("dropping event for slow subscriber", "subscriber", id, "type", ev.Type)
		}
	}
}

// MockSink is a test double that records published events.
type MockSink struct {
	mu     sync.Mutex
	Events []Event
}

func (m *MockSink) Publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
}

// Published returns a copy of the recorded events.
func (m *MockSink) Published() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.Events))
	copy(out, m.Events)
	return out
}

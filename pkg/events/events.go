package events

import (
	"sync"
	"time"
)

// Topic is the subject planner events are published on
const Topic = "kitchen.planner"

const (
	TaskCreated         = "task.created"
	TaskSplit           = "task.split"
	TaskPinned          = "task.pinned"
	AssignmentCreated   = "assignment.created"
	AssignmentMoved     = "assignment.moved"
	AssignmentCompleted = "assignment.completed"
	AssignmentIssue     = "assignment.issue"
	PlanConfirmed       = "plan.confirmed"
	PlanReset           = "plan.reset"
	ShiftCreated        = "shift.created"
	ShiftStateChanged   = "shift.state_changed"
	ShiftGrouped        = "shift.grouped"
	ShiftAvailability   = "shift.availability"
	ShiftStaffAssigned  = "shift.staff_assigned"
	ShiftDeleted        = "shift.deleted"
)

// Event describes a committed mutation
type Event struct {
	Type       string         `json:"event_type"`
	OccurredAt time.Time      `json:"occurred_at"`
	EntityID   string         `json:"entity_id"`
	Data       map[string]any `json:"data,omitempty"`
}

// Listener receives events synchronously
type Listener func(Event)

// Bus fans events out to registered listeners in registration order
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
	Now       func() time.Time
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{Now: time.Now}
}

// Subscribe registers a listener
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Emit stamps and delivers an event. A nil bus drops it.
func (b *Bus) Emit(evtType, entityID string, data map[string]any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners...)
	now := b.Now
	b.mu.RUnlock()

	if now == nil {
		now = time.Now
	}
	evt := Event{
		Type:       evtType,
		OccurredAt: now().UTC(),
		EntityID:   entityID,
		Data:       data,
	}
	for _, l := range listeners {
		l(evt)
	}
}

// Recorder keeps every event it sees, mostly for tests and diagnostics
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Listen is a Listener that records the event
func (r *Recorder) Listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns the recorded events in delivery order
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in delivery order
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

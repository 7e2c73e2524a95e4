package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventBound          EventType = "bound"
	EventUnbound        EventType = "unbound"
	EventConnected      EventType = "connected"
	EventDisconnected   EventType = "disconnected"
	EventConfigChanged  EventType = "config_changed"
	EventStateChanged   EventType = "state_changed"
	EventExited         EventType = "exited"
	EventLiveness       EventType = "liveness_changed"
	EventModuleLoaded   EventType = "module_loaded"
	EventModuleUnloaded EventType = "module_unloaded"
	EventSnapshotLoaded EventType = "snapshot_loaded"
	EventServerFound    EventType = "server_found"
)

// Event represents a change to the registry
type Event struct {
	Type    EventType         `json:"type"`
	Ref     string            `json:"ref,omitempty"`
	Payload map[string]string `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Delivery is asynchronous: each subscriber has its own queue.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(BackendReadyEvent{Port: 8000})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case BackendReadyEvent:
		event.Publish(b.dispatcher, e)
	case BackendExitedEvent:
		event.Publish(b.dispatcher, e)
	case BackendSpawnFailedEvent:
		event.Publish(b.dispatcher, e)
	case ShutdownStartedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects the event; unknown handler types
// get a no-op unsubscribe.
// Usage: unsub := bus.Subscribe(func(e BackendReadyEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(BackendReadyEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BackendExitedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BackendSpawnFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ShutdownStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

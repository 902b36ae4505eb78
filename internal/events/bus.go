package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// A nil Bus discards the event so optional wiring stays cheap for callers.
// Usage: bus.Publish(StateChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case StateChangedEvent:
		event.Publish(b.dispatcher, e)
	case ButtonPressedEvent:
		event.Publish(b.dispatcher, e)
	case CommandEvent:
		event.Publish(b.dispatcher, e)
	case SensorReadingEvent:
		event.Publish(b.dispatcher, e)
	case ReportEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e ButtonPressedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ButtonPressedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CommandEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SensorReadingEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReportEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}

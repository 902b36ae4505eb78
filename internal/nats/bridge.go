package nats

import (
	"log/slog"
	"sync"

	"github.com/smazurov/climalight/internal/events"
)

// EventPublisher is the part of DeviceClient the Bridge needs.
type EventPublisher interface {
	PublishEvent(kind string, event any)
}

// Bridge forwards event bus events onto NATS subjects.
type Bridge struct {
	eventBus  *events.Bus
	publisher EventPublisher
	unsubs    []func()
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewBridge creates a bus-to-NATS bridge.
func NewBridge(eventBus *events.Bus, publisher EventPublisher, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		eventBus:  eventBus,
		publisher: publisher,
		logger:    logger,
	}
}

// Start subscribes to the device events. Calling Start twice is a no-op.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unsubs != nil {
		return
	}

	b.unsubs = []func(){
		b.eventBus.Subscribe(func(e events.StateChangedEvent) {
			b.publisher.PublishEvent(KindState, e)
		}),
		b.eventBus.Subscribe(func(e events.ButtonPressedEvent) {
			b.publisher.PublishEvent(KindButton, e)
		}),
		b.eventBus.Subscribe(func(e events.CommandEvent) {
			b.publisher.PublishEvent(KindCommand, e)
		}),
		b.eventBus.Subscribe(func(e events.SensorReadingEvent) {
			b.publisher.PublishEvent(KindSensor, e)
		}),
	}
	b.logger.Info("NATS bridge forwarding device events")
}

// Stop unsubscribes from the bus.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil
	b.logger.Info("NATS bridge stopped")
}

package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges a kelindar/event subscription onto a channel
// so SSE handlers can select over it alongside ctx.Done().
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			// Slow consumer, drop
		}
	})
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/climalight/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of state changes, button presses, commands, sensor readings and reports",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"state-changed":  events.StateChangedEvent{},
		"button-pressed": events.ButtonPressedEvent{},
		"command":        events.CommandEvent{},
		"sensor-reading": events.SensorReadingEvent{},
		"report":         events.ReportEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.StateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ButtonPressedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.CommandEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SensorReadingEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ReportEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Initial state so clients do not wait for the first change.
		mode, color := s.store.View()
		if err := send.Data(events.StateChangedEvent{
			Source:    "snapshot",
			Mode:      int(mode),
			Color:     uint32(color),
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}

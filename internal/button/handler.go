package button

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/climalight/internal/events"
	"github.com/smazurov/climalight/internal/metrics"
	"github.com/smazurov/climalight/internal/state"
)

// Press classification thresholds. Durations between them are ignored.
const (
	ShortPressMax = 1000 * time.Millisecond
	LongPressMin  = 3000 * time.Millisecond
)

// Press is the classification of a press duration.
type Press int

// Press kinds.
const (
	PressIgnored Press = iota
	PressShort
	PressLong
)

func (p Press) String() string {
	switch p {
	case PressShort:
		return "short"
	case PressLong:
		return "long"
	default:
		return "ignored"
	}
}

// Classify maps a duration to a press kind: under one second is short,
// over three seconds is long, anything in between (inclusive) is ignored.
func Classify(d time.Duration) Press {
	switch {
	case d < 0:
		return PressIgnored
	case d < ShortPressMax:
		return PressShort
	case d > LongPressMin:
		return PressLong
	default:
		return PressIgnored
	}
}

// Handler is the single consumer of press events.
type Handler struct {
	store  *state.Store
	queue  <-chan time.Duration
	bus    *events.Bus
	logger *slog.Logger
}

// NewHandler creates a handler draining queue into store. bus may be nil.
func NewHandler(store *state.Store, queue <-chan time.Duration, bus *events.Bus, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		queue:  queue,
		bus:    bus,
		logger: logger,
	}
}

// Run consumes presses in arrival order until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) {
	h.logger.Info("Button handler started")
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Button handler stopped")
			return
		case d := <-h.queue:
			h.Handle(d)
		}
	}
}

// Handle applies a single press and returns its classification.
func (h *Handler) Handle(d time.Duration) Press {
	press := Classify(d)
	now := time.Now().Format(time.RFC3339)

	var mode state.Mode
	var color state.Color
	switch press {
	case PressShort:
		mode, color = h.store.CycleMode()
	case PressLong:
		mode, color = h.store.AdvanceColor()
	}

	metrics.IncButtonPress(press.String())
	h.bus.Publish(events.ButtonPressedEvent{
		DurationMs: d.Milliseconds(),
		Kind:       press.String(),
		Timestamp:  now,
	})

	if press == PressIgnored {
		h.logger.Debug("Button press ignored", "duration", d)
		return press
	}

	metrics.SetLED(int(mode), uint32(color))
	h.bus.Publish(events.StateChangedEvent{
		Source:    "button",
		Mode:      int(mode),
		Color:     uint32(color),
		Timestamp: now,
	})
	h.logger.Info("Button press applied",
		"kind", press.String(),
		"duration", d,
		"mode", mode.String(),
		"color", color.String())
	return press
}

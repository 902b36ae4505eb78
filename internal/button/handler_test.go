package button

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/smazurov/climalight/internal/events"
	"github.com/smazurov/climalight/internal/state"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want Press
	}{
		{0, PressShort},
		{ms(999), PressShort},
		{ms(1000), PressIgnored},
		{ms(1500), PressIgnored},
		{ms(3000), PressIgnored},
		{ms(3001), PressLong},
		{10 * time.Second, PressLong},
		{-ms(5), PressIgnored},
	}

	for _, tt := range tests {
		if got := Classify(tt.d); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestHandler_ShortPressCyclesMode(t *testing.T) {
	store := state.New()
	h := NewHandler(store, nil, nil, newTestLogger())

	for n := 1; n <= 9; n++ {
		h.Handle(ms(200))
		if got := store.Snapshot().Mode; got != state.Mode(n%4) {
			t.Fatalf("after %d short presses mode = %v, want %d", n, got, n%4)
		}
	}
}

func TestHandler_LongPressCyclesPalette(t *testing.T) {
	store := state.New()
	h := NewHandler(store, nil, nil, newTestLogger())

	want := []state.Color{state.Yellow, state.Red, state.Blue, state.Green, state.Yellow}
	for i, c := range want {
		h.Handle(ms(3500))
		if got := store.Snapshot().Color; got != c {
			t.Fatalf("long press %d: color = %v, want %v", i+1, got, c)
		}
	}
	if store.Snapshot().Mode != state.ModeOff {
		t.Error("long presses must not change mode")
	}
}

func TestHandler_DeadZoneIsNoOp(t *testing.T) {
	for _, d := range []time.Duration{ms(1000), ms(1500), ms(2999), ms(3000)} {
		store := state.New()
		h := NewHandler(store, nil, nil, newTestLogger())
		before := store.Snapshot()

		if got := h.Handle(d); got != PressIgnored {
			t.Errorf("Handle(%v) = %v, want ignored", d, got)
		}
		if after := store.Snapshot(); after != before {
			t.Errorf("Handle(%v) changed state %+v -> %+v", d, before, after)
		}
	}
}

func TestHandler_ShortPressCountIndependentOfLongPresses(t *testing.T) {
	store := state.New()
	h := NewHandler(store, nil, nil, newTestLogger())

	presses := []time.Duration{ms(100), ms(4000), ms(1500), ms(300), ms(5000), ms(50), ms(2000), ms(900), ms(800)}
	shorts := 0
	for _, d := range presses {
		if h.Handle(d) == PressShort {
			shorts++
		}
	}
	if got := store.Snapshot().Mode; got != state.Mode(shorts%4) {
		t.Errorf("mode = %v, want %d", got, shorts%4)
	}
}

func TestHandler_RunConsumesInOrder(t *testing.T) {
	store := state.New()
	bus := events.New()
	detector := NewDetector(DefaultQueueSize)
	h := NewHandler(store, detector.Events(), bus, newTestLogger())

	received := make(chan events.ButtonPressedEvent, DefaultQueueSize)
	unsub := bus.Subscribe(func(e events.ButtonPressedEvent) { received <- e })
	defer unsub()

	durations := []time.Duration{ms(100), ms(3500), ms(1500)}
	for _, d := range durations {
		if !detector.Submit(d) {
			t.Fatalf("Submit(%v) dropped", d)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	for i, d := range durations {
		select {
		case e := <-received:
			if e.DurationMs != d.Milliseconds() {
				t.Errorf("event %d duration = %d, want %d", i, e.DurationMs, d.Milliseconds())
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	snap := store.Snapshot()
	if snap.Mode != state.ModeSolid || snap.Color != state.Yellow {
		t.Errorf("state = %+v, want mode solid and yellow", snap)
	}
}

func TestHandler_StateEventCarriesAppliedPair(t *testing.T) {
	store := state.New()
	bus := events.New()
	h := NewHandler(store, nil, bus, newTestLogger())

	changes := make(chan events.StateChangedEvent, 2)
	defer bus.Subscribe(func(e events.StateChangedEvent) { changes <- e })()

	store.SetColor(state.Red)
	h.Handle(ms(200))
	h.Handle(ms(3500))

	want := []events.StateChangedEvent{
		{Source: "button", Mode: int(state.ModeSolid), Color: uint32(state.Red)},
		{Source: "button", Mode: int(state.ModeSolid), Color: uint32(state.Blue)},
	}
	for i, w := range want {
		select {
		case e := <-changes:
			if e.Source != w.Source || e.Mode != w.Mode || e.Color != w.Color {
				t.Errorf("event %d = %+v, want mode %d color %d", i, e, w.Mode, w.Color)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

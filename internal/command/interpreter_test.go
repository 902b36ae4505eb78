package command

import (
	"errors"
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

func TestExecute_SetMode(t *testing.T) {
	store := state.New()
	i := New(store, nil, newTestLogger())

	if _, err := i.Execute("mqtt", []byte("mode:2")); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if got := store.Snapshot().Mode; got != state.ModeSlowBlink {
		t.Errorf("mode = %v, want 2", got)
	}
}

func TestExecute_SetColor(t *testing.T) {
	store := state.New()
	i := New(store, nil, newTestLogger())

	if _, err := i.Execute("mqtt", []byte("color:10,20,30")); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if got := store.Snapshot().Color; got != state.RGB(10, 20, 30) {
		t.Errorf("color = %v, want packed (10,20,30)", got)
	}
}

func TestExecute_RejectedLeavesStateUnchanged(t *testing.T) {
	payloads := []string{"mode:9", "mode:x", "color:1,2", "color:300,0,0", "color:", "hello"}
	for _, p := range payloads {
		store := state.New()
		store.SetMode(state.ModeSolid)
		store.SetColor(state.Red)
		before := store.Snapshot()

		i := New(store, nil, newTestLogger())
		_, _ = i.Execute("api", []byte(p))

		if after := store.Snapshot(); after != before {
			t.Errorf("Execute(%q) changed state %+v -> %+v", p, before, after)
		}
	}
}

func TestExecute_ReturnsSentinelErrors(t *testing.T) {
	i := New(state.New(), nil, newTestLogger())
	if _, err := i.Execute("api", []byte("mode:4")); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("error = %v, want ErrOutOfRange", err)
	}
	if _, err := i.Execute("api", []byte("color:a,1,2")); !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestExecute_OffPaletteColorBreaksCycle(t *testing.T) {
	store := state.New()
	i := New(store, nil, newTestLogger())
	_, _ = i.Execute("mqtt", []byte("color:10,20,30"))

	if _, got := store.AdvanceColor(); got != state.Green {
		t.Errorf("AdvanceColor after remote color = %v, want green", got)
	}
}

func TestHandleMessage_PublishesEvents(t *testing.T) {
	bus := events.New()
	store := state.New()
	i := New(store, bus, newTestLogger())

	cmds := make(chan events.CommandEvent, 2)
	changes := make(chan events.StateChangedEvent, 2)
	defer bus.Subscribe(func(e events.CommandEvent) { cmds <- e })()
	defer bus.Subscribe(func(e events.StateChangedEvent) { changes <- e })()

	i.HandleMessage("climalight/command", []byte("mode:3"))

	select {
	case e := <-cmds:
		if e.Result != ResultApplied || e.Source != "mqtt" || e.Command != "mode:3" {
			t.Errorf("command event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no command event")
	}

	select {
	case e := <-changes:
		if e.Mode != 3 || e.Source != "mqtt" {
			t.Errorf("state event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no state event")
	}
}

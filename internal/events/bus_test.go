package events

import (
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan StateChangedEvent, 1)

	unsub := bus.Subscribe(func(e StateChangedEvent) {
		received <- e
	})
	defer unsub()

	event := StateChangedEvent{
		Source:    "button",
		Mode:      2,
		Color:     0x00FF00,
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got != event {
		t.Errorf("Expected %+v, got %+v", event, got)
	}
}

func TestBus_NilBusDiscards(_ *testing.T) {
	var bus *Bus
	bus.Publish(ButtonPressedEvent{Kind: "short"})
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan CommandEvent, 1)
	received2 := make(chan CommandEvent, 1)

	unsub1 := bus.Subscribe(func(e CommandEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e CommandEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(CommandEvent{Source: "mqtt", Command: "mode:1", Result: "applied"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan SensorReadingEvent, 1)

	unsub := bus.Subscribe(func(e SensorReadingEvent) {
		received <- e
	})

	bus.Publish(SensorReadingEvent{Temperature: 21.3})
	<-received

	unsub()

	bus.Publish(SensorReadingEvent{Temperature: 22.0})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	buttonReceived := make(chan bool, 1)
	reportReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ ButtonPressedEvent) {
		buttonReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ ReportEvent) {
		reportReceived <- true
	})
	defer unsub2()

	bus.Publish(ButtonPressedEvent{DurationMs: 200, Kind: "short"})
	<-buttonReceived

	select {
	case <-reportReceived:
		t.Fatal("Report subscriber should NOT have received ButtonPressedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	bus.Publish(ReportEvent{Published: true})
	<-reportReceived

	select {
	case <-buttonReceived:
		t.Fatal("Button subscriber should NOT have received ReportEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ StateChangedEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(StateChangedEvent{
					Source:    "api",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestSubscribeToChannel_DropsWhenFull(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)

	unsub := SubscribeToChannel[LogEntryEvent](bus, ch)
	defer unsub()

	bus.Publish(LogEntryEvent{Message: "first"})
	bus.Publish(LogEntryEvent{Message: "second"})

	select {
	case got := <-ch:
		if _, ok := got.(LogEntryEvent); !ok {
			t.Fatalf("unexpected event type %T", got)
		}
	case <-time.After(time.Second):
		t.Fatal("expected one event on channel")
	}
}

package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/climalight/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startTestServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer(ServerOptions{
		Port:   -1, // random free port
		Name:   "test-server",
		Logger: testLogger(),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(server.Stop)
	return server
}

func subscribe(t *testing.T, url, subject string) <-chan *nats.Msg {
	t.Helper()
	conn, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("Failed to connect observer: %v", err)
	}
	t.Cleanup(conn.Close)

	ch := make(chan *nats.Msg, 10)
	if _, err := conn.ChanSubscribe(subject, ch); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	return ch
}

func receive(t *testing.T, ch <-chan *nats.Msg) *nats.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message within timeout")
		return nil
	}
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(ServerOptions{Port: -1, Logger: testLogger()})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	if !server.IsRunning() {
		t.Error("Server should be running after Start()")
	}
	if server.ClientURL() == "" {
		t.Error("ClientURL should not be empty")
	}

	server.Stop()

	if server.IsRunning() {
		t.Error("Server should not be running after Stop()")
	}
}

func TestDeviceClientGracefulDegradation(t *testing.T) {
	client := NewDeviceClient("nats://127.0.0.1:59999", "dev-1", testLogger())

	if err := client.Connect(); err != nil {
		t.Errorf("Connect to unreachable server = %v, want nil", err)
	}

	// These should be no-ops without panicking
	if err := client.Write(context.Background(), []byte(`{"temp":0.0}`)); err != nil {
		t.Errorf("Write while offline = %v, want nil", err)
	}
	client.PublishEvent(KindState, events.StateChangedEvent{Mode: 1})

	if client.IsConnected() {
		t.Error("Client should not be connected")
	}

	client.Close()
}

func TestDeviceClientPublishesStatus(t *testing.T) {
	server := startTestServer(t)
	status := subscribe(t, server.ClientURL(), SubjectStatus("dev-1"))

	client := NewDeviceClient(server.ClientURL(), "dev-1", testLogger())
	if err := client.Connect(); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	payload := []byte(`{"temp":21.3,"hum":55.7,"mode":1,"color":65280}`)
	if err := client.Write(context.Background(), payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	msg := receive(t, status)
	if string(msg.Data) != string(payload) {
		t.Errorf("status = %s, want %s", msg.Data, payload)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestDeviceClientConnectsToLateServer(t *testing.T) {
	port := freePort(t)

	client := NewDeviceClient(fmt.Sprintf("nats://127.0.0.1:%d", port), "dev-1", testLogger())
	got := make(chan string, 1)
	client.OnCommand(func(payload []byte) {
		select {
		case got <- string(payload):
		default:
		}
	})
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect before server start = %v, want nil", err)
	}
	defer client.Close()

	if client.IsConnected() {
		t.Fatal("client reports connected before the server exists")
	}

	server := NewServer(ServerOptions{Port: port, Name: "late-server", Logger: testLogger()})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(server.Stop)

	deadline := time.Now().Add(10 * time.Second)
	for !client.IsConnected() {
		if time.Now().After(deadline) {
			t.Fatal("client did not connect after the server came up")
		}
		time.Sleep(50 * time.Millisecond)
	}

	status := subscribe(t, server.ClientURL(), SubjectStatus("dev-1"))
	if err := client.Write(context.Background(), []byte(`{"temp":21.5}`)); err != nil {
		t.Fatalf("Write = %v", err)
	}
	if msg := receive(t, status); string(msg.Data) != `{"temp":21.5}` {
		t.Errorf("status payload = %s", msg.Data)
	}

	pub, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect publisher: %v", err)
	}
	defer pub.Close()

	// The subscription made while offline must be live after the connect.
	deadline = time.Now().Add(5 * time.Second)
	for {
		if err := pub.Publish(SubjectCommand("dev-1"), []byte("mode:2")); err != nil {
			t.Fatal(err)
		}
		select {
		case cmd := <-got:
			if cmd != "mode:2" {
				t.Errorf("command = %q, want mode:2", cmd)
			}
			return
		case <-time.After(100 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("command handler was not called after late connect")
		}
	}
}

func TestDeviceClientDeliversCommands(t *testing.T) {
	server := startTestServer(t)

	client := NewDeviceClient(server.ClientURL(), "dev-1", testLogger())
	got := make(chan string, 1)
	client.OnCommand(func(payload []byte) { got <- string(payload) })
	if err := client.Connect(); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	pub, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect publisher: %v", err)
	}
	defer pub.Close()

	// Another device's subject must not reach this client.
	if err := pub.Publish(SubjectCommand("dev-2"), []byte("mode:1")); err != nil {
		t.Fatal(err)
	}
	if err := pub.Publish(SubjectCommand("dev-1"), []byte("mode:3")); err != nil {
		t.Fatal(err)
	}

	select {
	case cmd := <-got:
		if cmd != "mode:3" {
			t.Errorf("command = %q, want mode:3", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command handler was not called within timeout")
	}
}

type recordingPublisher struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recordingPublisher) PublishEvent(kind string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recordingPublisher) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.kinds...)
}

func TestBridgeForwardsEvents(t *testing.T) {
	bus := events.New()
	pub := &recordingPublisher{}
	bridge := NewBridge(bus, pub, testLogger())
	bridge.Start()
	bridge.Start()

	bus.Publish(events.StateChangedEvent{Mode: 2})
	bus.Publish(events.ButtonPressedEvent{Kind: "short"})
	bus.Publish(events.CommandEvent{Result: "applied"})
	bus.Publish(events.SensorReadingEvent{Temperature: 20})
	bus.Publish(events.ReportEvent{Published: true}) // not forwarded

	want := []string{KindState, KindButton, KindCommand, KindSensor}
	deadline := time.Now().Add(time.Second)
	for len(pub.snapshot()) < len(want) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	bridge.Stop()

	got := pub.snapshot()
	if len(got) != len(want) {
		t.Fatalf("forwarded kinds = %v, want %v", got, want)
	}
	seen := map[string]bool{}
	for _, k := range got {
		seen[k] = true
	}
	for _, k := range want {
		if !seen[k] {
			t.Errorf("kind %q not forwarded (got %v)", k, got)
		}
	}

	bus.Publish(events.StateChangedEvent{Mode: 1})
	time.Sleep(20 * time.Millisecond)
	if len(pub.snapshot()) != len(want) {
		t.Error("events forwarded after Stop")
	}
}

func TestBridgeEndToEnd(t *testing.T) {
	server := startTestServer(t)
	stateEvents := subscribe(t, server.ClientURL(), SubjectEvents("dev-1", KindState))

	client := NewDeviceClient(server.ClientURL(), "dev-1", testLogger())
	if err := client.Connect(); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	bus := events.New()
	bridge := NewBridge(bus, client, testLogger())
	bridge.Start()
	defer bridge.Stop()

	bus.Publish(events.StateChangedEvent{Source: "button", Mode: 2, Color: 65280})

	msg, err := UnmarshalEvent(receive(t, stateEvents).Data)
	if err != nil {
		t.Fatalf("UnmarshalEvent: %v", err)
	}
	if msg.InstanceID != "dev-1" || msg.Kind != KindState {
		t.Errorf("envelope = %+v", msg)
	}
	var ev events.StateChangedEvent
	if err := json.Unmarshal(msg.Event, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Source != "button" || ev.Mode != 2 || ev.Color != 65280 {
		t.Errorf("event = %+v", ev)
	}
}

func TestSubjectFunctions(t *testing.T) {
	tests := []struct {
		got      string
		expected string
	}{
		{SubjectStatus("dev-1"), "climalight.dev-1.status"},
		{SubjectCommand("dev-1"), "climalight.dev-1.command"},
		{SubjectEvents("dev-1", KindButton), "climalight.dev-1.events.button"},
	}

	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("Got %s, want %s", tt.got, tt.expected)
		}
	}
}

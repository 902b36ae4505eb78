package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"
)

func reset() {
	reg = newRegistry()
}

func enabled(l *slog.Logger, level slog.Level) bool {
	return l.Handler().Enabled(context.Background(), level)
}

func TestModuleLevels(t *testing.T) {
	reset()
	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"button": "debug", "api": "warn", "led": "loud"},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"button", true, true, true},
		{"api", false, false, true},
		{"led", false, true, true},
		{"sensor", false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			logger := GetLogger(tt.module)
			if got := enabled(logger, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := enabled(logger, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := enabled(logger, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	reset()

	early := GetLogger("mqtt")
	if enabled(early, slog.LevelDebug) {
		t.Fatal("loggers default to info before Initialize")
	}

	Initialize(Config{Level: "info", Modules: map[string]string{"mqtt": "debug"}})

	if GetLogger("mqtt") != early {
		t.Error("GetLogger should return the cached logger")
	}
	if !enabled(early, slog.LevelDebug) {
		t.Error("Initialize should raise the level of existing loggers")
	}
}

func TestSetLevels(t *testing.T) {
	reset()
	Initialize(Config{Level: "info", Format: "text"})

	logger := GetLogger("sensor")
	SetLevels(Config{Level: "info", Modules: map[string]string{"sensor": "debug"}})
	if !enabled(logger, slog.LevelDebug) {
		t.Error("sensor should log debug after SetLevels")
	}

	SetLevels(Config{Level: "error"})
	if enabled(logger, slog.LevelWarn) {
		t.Error("sensor should follow the global level once its override is gone")
	}
	if enabled(GetLogger("report"), slog.LevelWarn) {
		t.Error("a module created after SetLevels should use the new global level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"Error", slog.LevelError, true},
		{"", 0, false},
		{"trace", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.input)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBufferAndCallback(t *testing.T) {
	reset()
	Initialize(Config{Level: "debug", Format: "text"})

	var got []LogEntry
	SetLogCallback(func(entry LogEntry) { got = append(got, entry) })
	defer SetLogCallback(nil)

	GetLogger("command").Warn("Command rejected",
		"payload", "mode:9",
		"error", errors.New("out of range"),
		"after", 1500*time.Millisecond)

	entries := GetBuffer().ReadAll()
	if len(entries) == 0 {
		t.Fatal("no entries in buffer")
	}
	last := entries[len(entries)-1]
	if last.Module != "command" || last.Level != "warn" || last.Message != "Command rejected" {
		t.Errorf("entry = %+v", last)
	}
	want := map[string]any{"payload": "mode:9", "error": "out of range", "after": "1.5s"}
	if !reflect.DeepEqual(last.Attributes, want) {
		t.Errorf("attributes = %v, want %v", last.Attributes, want)
	}
	if len(got) != 1 {
		t.Errorf("callback entries = %d, want 1", len(got))
	}
}

func TestBufferHandlerGroups(t *testing.T) {
	reset()
	Initialize(Config{Level: "debug"})
	var got LogEntry
	SetLogCallback(func(entry LogEntry) { got = entry })
	defer SetLogCallback(nil)

	logger := slog.New(NewBufferHandler(slog.LevelDebug)).
		With("module", "report").
		WithGroup("mqtt").
		With("topic", "climalight/status").
		WithGroup("retry")
	logger.Info("Publish failed", "attempt", 2, slog.Group("broker", "host", "hub"))

	want := map[string]any{
		"mqtt.topic":             "climalight/status",
		"mqtt.retry.attempt":     int64(2),
		"mqtt.retry.broker.host": "hub",
	}
	if got.Module != "report" {
		t.Errorf("Module = %q", got.Module)
	}
	if !reflect.DeepEqual(got.Attributes, want) {
		t.Errorf("attributes = %v, want %v", got.Attributes, want)
	}
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var debugOut, infoOut bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&debugOut, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&infoOut, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	logger := slog.New(multi).With("module", "led")

	logger.Debug("frame written")
	logger.Info("mode changed")

	if !strings.Contains(debugOut.String(), "frame written") || !strings.Contains(debugOut.String(), "module=led") {
		t.Errorf("debug output = %q", debugOut.String())
	}
	if strings.Contains(infoOut.String(), "frame written") {
		t.Error("info handler should not receive debug records")
	}
	if !strings.Contains(infoOut.String(), "mode changed") {
		t.Errorf("info output = %q", infoOut.String())
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	if rb.ReadAll() != nil {
		t.Error("empty buffer should read nil")
	}
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		rb.Write(LogEntry{Message: msg})
	}

	var got []string
	for _, e := range rb.ReadAll() {
		got = append(got, e.Message)
	}
	if want := []string{"c", "d", "e"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ReadAll = %v, want %v", got, want)
	}
	if rb.Count() != 3 {
		t.Errorf("Count = %d, want 3", rb.Count())
	}
}

func TestJournalKey(t *testing.T) {
	tests := []struct {
		path []string
		want string
	}{
		{[]string{"module"}, "MODULE"},
		{[]string{"mqtt", "topic"}, "MQTT_TOPIC"},
		{[]string{"color.hex"}, "COLOR_HEX"},
		{[]string{"_private"}, "PRIVATE"},
	}
	for _, tt := range tests {
		if got := journalKey(tt.path); got != tt.want {
			t.Errorf("journalKey(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

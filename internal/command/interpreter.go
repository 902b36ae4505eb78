package command

import (
	"log/slog"
	"time"

	"github.com/smazurov/climalight/internal/events"
	"github.com/smazurov/climalight/internal/metrics"
	"github.com/smazurov/climalight/internal/state"
)

// Result labels used in logs, events and metrics.
const (
	ResultApplied      = "applied"
	ResultRejected     = "rejected"
	ResultUnrecognized = "unrecognized"
)

// Interpreter applies remote commands to the shared state.
type Interpreter struct {
	store  *state.Store
	bus    *events.Bus
	logger *slog.Logger
}

// New creates an interpreter. bus may be nil.
func New(store *state.Store, bus *events.Bus, logger *slog.Logger) *Interpreter {
	return &Interpreter{
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

// Execute parses payload and applies it. source names the channel the
// command came from ("mqtt", "api"). A rejected command leaves the state
// untouched and returns the parse error.
func (i *Interpreter) Execute(source string, payload []byte) (Command, error) {
	cmd, err := Parse(payload)
	if err != nil {
		i.record(source, string(payload), ResultRejected, err)
		i.logger.Warn("Command rejected", "source", source, "payload", string(payload), "error", err)
		return nil, err
	}

	var mode state.Mode
	var color state.Color
	switch c := cmd.(type) {
	case SetMode:
		mode, color = i.store.SetMode(c.Mode)
	case SetColor:
		mode, color = i.store.SetColor(c.Color)
	case Unrecognized:
		i.record(source, c.Text, ResultUnrecognized, nil)
		i.logger.Debug("Command not recognized", "source", source, "payload", c.Text)
		return cmd, nil
	}

	i.record(source, cmd.String(), ResultApplied, nil)

	metrics.SetLED(int(mode), uint32(color))
	i.bus.Publish(events.StateChangedEvent{
		Source:    source,
		Mode:      int(mode),
		Color:     uint32(color),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	i.logger.Info("Command applied", "source", source, "command", cmd.String())
	return cmd, nil
}

// HandleMessage is the inbound callback for the MQTT command topic.
func (i *Interpreter) HandleMessage(topic string, payload []byte) {
	i.logger.Debug("Command message received", "topic", topic, "size", len(payload))
	_, _ = i.Execute("mqtt", payload)
}

func (i *Interpreter) record(source, text, result string, err error) {
	metrics.IncCommand(source, result)
	ev := events.CommandEvent{
		Source:    source,
		Command:   text,
		Result:    result,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	i.bus.Publish(ev)
}

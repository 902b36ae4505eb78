package events

// Event type constants for kelindar/event.
const (
	TypeStateChanged uint32 = iota + 1
	TypeButtonPressed
	TypeCommand
	TypeSensorReading
	TypeReport
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StateChangedEvent is published after the LED mode or color changes.
type StateChangedEvent struct {
	Source    string `json:"source" example:"button" doc:"What caused the change: button, mqtt, api"`
	Mode      int    `json:"mode" example:"2" doc:"LED mode after the change"`
	Color     uint32 `json:"color" example:"65280" doc:"Packed RGB color after the change"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StateChangedEvent.
func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// ButtonPressedEvent is published for every classified button press.
type ButtonPressedEvent struct {
	DurationMs int64  `json:"duration_ms" example:"420" doc:"Press duration in milliseconds"`
	Kind       string `json:"kind" example:"short" doc:"Classification: short, long, ignored"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ButtonPressedEvent.
func (e ButtonPressedEvent) Type() uint32 { return TypeButtonPressed }

// CommandEvent is published for every remote command received.
type CommandEvent struct {
	Source    string `json:"source" example:"mqtt" doc:"Channel the command arrived on"`
	Command   string `json:"command" example:"mode:2" doc:"Raw command text"`
	Result    string `json:"result" example:"applied" doc:"applied, rejected or unrecognized"`
	Error     string `json:"error,omitempty" doc:"Rejection reason"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CommandEvent.
func (e CommandEvent) Type() uint32 { return TypeCommand }

// SensorReadingEvent is published after each valid sensor sample is stored.
type SensorReadingEvent struct {
	Temperature float64 `json:"temperature" example:"21.3" doc:"Temperature in Celsius"`
	Humidity    float64 `json:"humidity" example:"55.7" doc:"Relative humidity in percent"`
	Timestamp   string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SensorReadingEvent.
func (e SensorReadingEvent) Type() uint32 { return TypeSensorReading }

// ReportEvent is published after each status report attempt.
type ReportEvent struct {
	Payload   string `json:"payload" doc:"Serialized status message"`
	Published bool   `json:"published" example:"true" doc:"Whether the broker accepted the publish"`
	Error     string `json:"error,omitempty" doc:"Publish failure reason"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ReportEvent.
func (e ReportEvent) Type() uint32 { return TypeReport }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

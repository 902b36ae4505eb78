package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	MQTT    bool   `json:"mqtt_connected" example:"true" doc:"Whether the MQTT link is up"`
}

type HealthResponse struct {
	Body HealthData
}

// State models
type StateData struct {
	Temperature float64 `json:"temperature" example:"21.3" doc:"Last valid temperature in Celsius"`
	Humidity    float64 `json:"humidity" example:"55.7" doc:"Last valid relative humidity in percent"`
	Mode        int     `json:"mode" example:"1" doc:"LED mode (0 off, 1 solid, 2 slow blink, 3 fast blink)"`
	ModeName    string  `json:"mode_name" example:"solid" doc:"LED mode name"`
	Color       uint32  `json:"color" example:"65280" doc:"Packed RGB color (R<<16|G<<8|B)"`
	ColorHex    string  `json:"color_hex" example:"#00ff00" doc:"Color as #rrggbb"`
}

type StateResponse struct {
	Body StateData
}

// StatusResponse carries the status message bytes exactly as the reporter
// publishes them.
type StatusResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// Command models
type CommandRequestData struct {
	Command string `json:"command" example:"mode:2" doc:"Command text: mode:<0-3> or color:<r>,<g>,<b>"`
}

type CommandRequest struct {
	Body CommandRequestData
}

type CommandData struct {
	Command string    `json:"command" example:"mode:2" doc:"Command as interpreted"`
	Result  string    `json:"result" example:"applied" doc:"applied or unrecognized"`
	State   StateData `json:"state" doc:"State after the command"`
}

type CommandResponse struct {
	Body CommandData
}

// Button models
type ButtonPressRequestData struct {
	DurationMs int64 `json:"duration_ms" minimum:"0" maximum:"60000" example:"400" doc:"Simulated press duration in milliseconds"`
}

type ButtonPressRequest struct {
	Body ButtonPressRequestData
}

type ButtonPressData struct {
	Queued bool   `json:"queued" example:"true" doc:"Whether the press entered the event queue"`
	Kind   string `json:"kind" example:"short" doc:"How the press will be classified"`
}

type ButtonPressResponse struct {
	Body ButtonPressData
}

// Log models
type LogEntryData struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"mqtt" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

type LogsRequest struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Maximum number of most recent entries"`
	Module string `query:"module" doc:"Only entries from this module"`
}

type LogsData struct {
	Entries []LogEntryData `json:"entries" doc:"Log entries, oldest first"`
	Count   int            `json:"count" example:"100" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}

// Metrics models
type MetricsSnapshot struct {
	Counters  map[string]float64 `json:"counters" doc:"Process-local counter values"`
	Timestamp string             `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Snapshot timestamp"`
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-01T00:00:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"42" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

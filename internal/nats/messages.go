package nats

import (
	"encoding/json"
	"fmt"
)

// SubjectPrefix roots every subject this package uses.
const SubjectPrefix = "climalight"

// Event kinds published by the Bridge.
const (
	KindState   = "state"
	KindButton  = "button"
	KindCommand = "command"
	KindSensor  = "sensor"
)

// SubjectStatus returns the subject status messages are published on.
func SubjectStatus(instanceID string) string {
	return fmt.Sprintf("%s.%s.status", SubjectPrefix, instanceID)
}

// SubjectCommand returns the subject the device takes commands from.
func SubjectCommand(instanceID string) string {
	return fmt.Sprintf("%s.%s.command", SubjectPrefix, instanceID)
}

// SubjectEvents returns the subject for one kind of device event.
func SubjectEvents(instanceID, kind string) string {
	return fmt.Sprintf("%s.%s.events.%s", SubjectPrefix, instanceID, kind)
}

// EventMessage wraps a bus event for NATS subscribers.
type EventMessage struct {
	InstanceID string          `json:"instance_id"`
	Kind       string          `json:"kind"`
	Event      json.RawMessage `json:"event"`
}

// NewEventMessage encodes event into an envelope.
func NewEventMessage(instanceID, kind string, event any) (EventMessage, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return EventMessage{}, err
	}
	return EventMessage{InstanceID: instanceID, Kind: kind, Event: data}, nil
}

// Marshal serializes the message to JSON.
func (m EventMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalEvent deserializes an event envelope.
func UnmarshalEvent(data []byte) (EventMessage, error) {
	var m EventMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

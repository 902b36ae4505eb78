// Package report publishes the periodic status message.
package report

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/smazurov/climalight/internal/state"
)

// Status is the status message. Field order and one-decimal precision are
// part of the wire contract:
//
//	{"temp":21.3,"hum":55.7,"mode":1,"color":65280}
type Status struct {
	Temperature Decimal1 `json:"temp" example:"21.3" doc:"Temperature in Celsius, one decimal"`
	Humidity    Decimal1 `json:"hum" example:"55.7" doc:"Relative humidity in percent, one decimal"`
	Mode        int      `json:"mode" example:"1" doc:"LED mode"`
	Color       uint32   `json:"color" example:"65280" doc:"Packed RGB color"`
}

// Decimal1 is a float that always marshals with exactly one decimal place.
type Decimal1 float64

// MarshalJSON renders the value rounded to one decimal. Non-finite values
// render as 0.0 since JSON has no representation for them.
func (d Decimal1) MarshalJSON() ([]byte, error) {
	v := float64(d)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return strconv.AppendFloat(nil, v, 'f', 1, 64), nil
}

// FromSnapshot converts a state snapshot into a status message.
func FromSnapshot(s state.Snapshot) Status {
	return Status{
		Temperature: Decimal1(s.Temperature),
		Humidity:    Decimal1(s.Humidity),
		Mode:        int(s.Mode),
		Color:       uint32(s.Color),
	}
}

// Marshal serializes the status message.
func (s Status) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Package sensor samples the temperature/humidity sensor into the shared
// state.
package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Sensor backends.
const (
	BackendAuto = "auto"
	BackendIIO  = "iio"
	BackendSim  = "sim"
)

// Valid reading range of a DHT22.
const (
	MinTemperature = -40.0
	MaxTemperature = 80.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// ErrUnknownBackend is returned for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown sensor backend")

// Sensor reads one temperature/humidity pair. Implementations may block
// for the duration of a bus transaction.
type Sensor interface {
	// Temperature returns degrees Celsius.
	Temperature() (float64, error)
	// Humidity returns relative humidity in percent.
	Humidity() (float64, error)
}

// Config selects the sensor backend.
type Config struct {
	Backend string
	// Device is the IIO device directory. Empty searches for a dht11 device.
	Device string
}

// Valid reports whether both readings are finite and inside the sensor's
// range.
func Valid(temperature, humidity float64) bool {
	if math.IsNaN(temperature) || math.IsNaN(humidity) ||
		math.IsInf(temperature, 0) || math.IsInf(humidity, 0) {
		return false
	}
	return temperature >= MinTemperature && temperature <= MaxTemperature &&
		humidity >= MinHumidity && humidity <= MaxHumidity
}

// New creates a sensor for cfg. "auto" uses the IIO device when one is
// present and otherwise falls back to the simulator.
func New(cfg Config, logger *slog.Logger) (Sensor, error) {
	switch cfg.Backend {
	case BackendIIO:
		return newIIO(iioDevicesPath, cfg.Device)
	case BackendSim:
		return NewSimulated(0), nil
	case BackendAuto, "":
		s, err := newIIO(iioDevicesPath, cfg.Device)
		if err == nil {
			logger.Info("Using IIO humidity sensor", "device", s.path)
			return s, nil
		}
		logger.Warn("No IIO humidity sensor found, using simulator", "error", err)
		return NewSimulated(0), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

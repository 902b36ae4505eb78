package sensor

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/climalight/internal/events"
	"github.com/smazurov/climalight/internal/metrics"
	"github.com/smazurov/climalight/internal/state"
)

// DefaultInterval is the pause between samples.
const DefaultInterval = 2 * time.Second

// Sampler periodically reads a Sensor and stores valid readings.
type Sampler struct {
	sensor   Sensor
	store    *state.Store
	bus      *events.Bus
	interval time.Duration
	logger   *slog.Logger

	sleep func(ctx context.Context, d time.Duration) bool
}

// NewSampler creates a sampler. A non-positive interval uses
// DefaultInterval; bus may be nil.
func NewSampler(sensor Sensor, store *state.Store, bus *events.Bus, interval time.Duration, logger *slog.Logger) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		sensor:   sensor,
		store:    store,
		bus:      bus,
		interval: interval,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Run samples until ctx is cancelled. Drift between cycles is not
// corrected.
func (s *Sampler) Run(ctx context.Context) {
	s.logger.Info("Sensor sampler started", "interval", s.interval)
	for {
		s.Sample()
		if !s.sleep(ctx, s.interval) {
			s.logger.Info("Sensor sampler stopped")
			return
		}
	}
}

// Sample performs one read and reports whether it was stored. Invalid
// readings leave the shared state untouched.
func (s *Sampler) Sample() bool {
	temperature, tErr := s.sensor.Temperature()
	humidity, hErr := s.sensor.Humidity()

	if tErr != nil || hErr != nil || !Valid(temperature, humidity) {
		metrics.IncSensorInvalid()
		s.logger.Debug("Discarding invalid sensor reading",
			"temperature", temperature,
			"humidity", humidity,
			"temperature_error", tErr,
			"humidity_error", hErr)
		return false
	}

	s.store.SetReading(temperature, humidity)

	metrics.SetReading(temperature, humidity)
	s.bus.Publish(events.SensorReadingEvent{
		Temperature: temperature,
		Humidity:    humidity,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
	s.logger.Debug("Sensor reading stored", "temperature", temperature, "humidity", humidity)
	return true
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

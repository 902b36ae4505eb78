// Package state holds the device's shared state record.
//
// Every concurrent actor (LED animator, sensor sampler, button handler,
// command interpreter, reporter) receives the same *Store at construction.
// The fields are reachable only through Store methods, each of which is a
// single lock epoch that copies values in or out and never blocks on I/O.
package state

import "sync"

// Snapshot is a consistent copy of the state taken within one lock epoch.
type Snapshot struct {
	Temperature float64 `json:"temperature" example:"21.3" doc:"Last valid temperature in Celsius"`
	Humidity    float64 `json:"humidity" example:"55.7" doc:"Last valid relative humidity in percent"`
	Mode        Mode    `json:"mode" example:"1" doc:"LED mode (0 off, 1 solid, 2 slow blink, 3 fast blink)"`
	Color       Color   `json:"color" example:"65280" doc:"Packed RGB color (R<<16|G<<8|B)"`
}

// Store is the single source of truth shared by all actors.
type Store struct {
	mu          sync.Mutex
	temperature float64
	humidity    float64
	mode        Mode
	color       Color
}

// New creates a Store with power-on defaults: zero readings, LEDs off,
// color green.
func New() *Store {
	return &Store{
		mode:  ModeOff,
		color: Green,
	}
}

// Snapshot copies all four fields.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Temperature: s.temperature,
		Humidity:    s.humidity,
		Mode:        s.mode,
		Color:       s.color,
	}
}

// View returns the fields the animator renders from.
func (s *Store) View() (Mode, Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.color
}

// SetReading stores a temperature/humidity pair together.
func (s *Store) SetReading(temperature, humidity float64) {
	s.mu.Lock()
	s.temperature = temperature
	s.humidity = humidity
	s.mu.Unlock()
}

// SetMode stores m verbatim and returns the resulting mode and color.
// Callers validate.
func (s *Store) SetMode(m Mode) (Mode, Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	return s.mode, s.color
}

// CycleMode advances the mode by one, wrapping after the last mode, and
// returns the new mode with the color read under the same lock.
func (s *Store) CycleMode() (Mode, Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := (s.mode + 1) % ModeCount
	if next < 0 {
		next = ModeOff
	}
	s.mode = next
	return s.mode, s.color
}

// SetColor stores c and returns the resulting mode and color.
func (s *Store) SetColor(c Color) (Mode, Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = c
	return s.mode, s.color
}

// AdvanceColor moves the color to its palette successor and returns the
// mode with the new color.
func (s *Store) AdvanceColor() (Mode, Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = NextColor(s.color)
	return s.mode, s.color
}

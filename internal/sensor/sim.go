package sensor

import (
	"math/rand/v2"
	"sync"
)

// Simulated is a bounded random walk around room conditions, used on
// machines without a sensor.
type Simulated struct {
	mu          sync.Mutex
	rng         *rand.Rand
	temperature float64
	humidity    float64
}

// NewSimulated creates a simulator. A zero seed picks a random one.
func NewSimulated(seed uint64) *Simulated {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Simulated{
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		temperature: 21.5,
		humidity:    45,
	}
}

func (s *Simulated) Temperature() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temperature = walk(s.rng, s.temperature, 0.2, 15, 30)
	return s.temperature, nil
}

func (s *Simulated) Humidity() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.humidity = walk(s.rng, s.humidity, 0.5, 20, 80)
	return s.humidity, nil
}

func walk(rng *rand.Rand, v, step, lo, hi float64) float64 {
	v += (rng.Float64()*2 - 1) * step
	return min(max(v, lo), hi)
}

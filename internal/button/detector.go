// Package button turns raw edges from a momentary push-button into press
// durations and applies them to the shared state.
//
// The Detector runs in the edge-event context (the GPIO event handler). It
// never blocks and never touches state.Store: it only hands a press
// duration to a bounded queue. A single Handler goroutine drains the queue
// in arrival order and owns all state mutation for physical input.
package button

import (
	"sync/atomic"
	"time"
)

const (
	// DebounceWindow is the minimum spacing between accepted edges.
	DebounceWindow = 50 * time.Millisecond

	// DefaultQueueSize absorbs a burst of presses while the handler is busy.
	DefaultQueueSize = 10
)

// Edge is an electrical transition of the active-low button line.
type Edge int

const (
	// EdgeFalling means the button went down.
	EdgeFalling Edge = iota
	// EdgeRising means the button was released.
	EdgeRising
)

func (e Edge) String() string {
	if e == EdgeFalling {
		return "falling"
	}
	return "rising"
}

// Detector debounces edges and measures press durations.
//
// Edge must be called serially by a single edge source; Submit and the
// counters are safe from any goroutine.
type Detector struct {
	events   chan time.Duration
	debounce time.Duration

	haveEdge   bool
	lastEdge   time.Duration
	pressed    bool
	pressStart time.Duration

	debounced atomic.Uint64
	dropped   atomic.Uint64
}

// NewDetector creates a detector with a queue of the given capacity.
func NewDetector(queueSize int) *Detector {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Detector{
		events:   make(chan time.Duration, queueSize),
		debounce: DebounceWindow,
	}
}

// Edge processes one transition. at is a monotonic timestamp (for example
// the kernel's event timestamp since boot).
func (d *Detector) Edge(e Edge, at time.Duration) {
	if d.haveEdge && at-d.lastEdge < d.debounce {
		d.debounced.Add(1)
		return
	}
	d.haveEdge = true
	d.lastEdge = at

	switch e {
	case EdgeFalling:
		d.pressStart = at
		d.pressed = true
	case EdgeRising:
		// A release without an observed press (e.g. held at startup) has no
		// meaningful duration.
		if !d.pressed {
			return
		}
		d.pressed = false
		d.Submit(at - d.pressStart)
	}
}

// Submit enqueues a press duration without blocking. It reports false when
// the queue is full and the event was dropped.
func (d *Detector) Submit(duration time.Duration) bool {
	select {
	case d.events <- duration:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Events is the queue consumed by the Handler.
func (d *Detector) Events() <-chan time.Duration {
	return d.events
}

// Debounced returns the number of edges discarded by the debounce window.
func (d *Detector) Debounced() uint64 {
	return d.debounced.Load()
}

// Dropped returns the number of presses lost to a full queue.
func (d *Detector) Dropped() uint64 {
	return d.dropped.Load()
}

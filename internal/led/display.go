package led

import "github.com/smazurov/climalight/internal/state"

// Display abstracts the LED hardware the animator renders to.
// Calls are synchronous and only ever made from the animator goroutine.
type Display interface {
	// Clear turns every pixel off in the pending frame.
	Clear() error

	// Fill sets every pixel of the pending frame to c.
	Fill(c state.Color) error

	// Show commits the pending frame to the hardware.
	Show() error

	// Close releases the hardware, leaving the LEDs dark where possible.
	Close() error
}

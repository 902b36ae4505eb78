package state

import "strconv"

// Mode selects the LED animation.
type Mode int

// LED modes.
const (
	ModeOff Mode = iota
	ModeSolid
	ModeSlowBlink
	ModeFastBlink

	// ModeCount is the number of modes a short press cycles through.
	ModeCount = 4
)

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= ModeOff && m < ModeCount
}

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeSolid:
		return "solid"
	case ModeSlowBlink:
		return "slow-blink"
	case ModeFastBlink:
		return "fast-blink"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

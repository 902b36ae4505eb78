package state

import "fmt"

// Color is a packed 24-bit RGB value laid out as R<<16 | G<<8 | B.
type Color uint32

// Palette colors cycled by a long button press.
const (
	Green  Color = 0x00FF00
	Yellow Color = 0xFFFF00
	Red    Color = 0xFF0000
	Blue   Color = 0x0000FF
)

// Palette is the fixed long-press cycle. Order matters and wraps.
var Palette = []Color{Green, Yellow, Red, Blue}

// RGB packs three channels into a Color.
func RGB(r, g, b uint8) Color {
	return Color(r)<<16 | Color(g)<<8 | Color(b)
}

// RGB unpacks the color channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// String renders the color as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

// NextColor returns the palette successor of c.
//
// The lookup is by exact packed value. A color that is not in the palette
// (for example one set with a remote color command) restarts the cycle at
// green.
func NextColor(c Color) Color {
	for i, p := range Palette {
		if p == c {
			return Palette[(i+1)%len(Palette)]
		}
	}
	return Green
}

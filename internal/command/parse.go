// Package command parses and applies remote text commands.
//
// The wire grammar is `mode:<int>` or `color:<r>,<g>,<b>`. Parsing yields a
// closed set of variants; malformed or out-of-range numerics are rejected
// before any state is touched.
package command

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/smazurov/climalight/internal/state"
)

// MaxLength is the longest command payload considered; longer payloads
// are truncated before parsing.
const MaxLength = 31

const (
	modePrefix  = "mode:"
	colorPrefix = "color:"
)

var (
	// ErrMalformed is returned when a recognized command has unparsable
	// arguments.
	ErrMalformed = errors.New("malformed command")
	// ErrOutOfRange is returned when a numeric argument is outside its
	// allowed range.
	ErrOutOfRange = errors.New("argument out of range")
)

// Command is one of SetMode, SetColor or Unrecognized.
type Command interface {
	fmt.Stringer
	command()
}

// SetMode sets the LED mode.
type SetMode struct {
	Mode state.Mode
}

// SetColor sets the LED color.
type SetColor struct {
	Color state.Color
}

// Unrecognized is any text that is not a known command.
type Unrecognized struct {
	Text string
}

func (SetMode) command()      {}
func (SetColor) command()     {}
func (Unrecognized) command() {}

func (c SetMode) String() string {
	return modePrefix + strconv.Itoa(int(c.Mode))
}

func (c SetColor) String() string {
	r, g, b := c.Color.RGB()
	return fmt.Sprintf("%s%d,%d,%d", colorPrefix, r, g, b)
}

func (c Unrecognized) String() string {
	return c.Text
}

// Parse decodes a raw payload. Unknown text is not an error: it parses to
// Unrecognized. Errors wrap ErrMalformed or ErrOutOfRange.
func Parse(payload []byte) (Command, error) {
	if len(payload) > MaxLength {
		payload = payload[:MaxLength]
	}
	text := string(bytes.TrimSpace(payload))

	switch {
	case strings.HasPrefix(text, modePrefix):
		return parseMode(text[len(modePrefix):])
	case strings.HasPrefix(text, colorPrefix):
		return parseColor(text[len(colorPrefix):])
	default:
		return Unrecognized{Text: text}, nil
	}
}

func parseMode(arg string) (Command, error) {
	n, err := parseInt(arg)
	if err != nil {
		return nil, err
	}
	m := state.Mode(n)
	if !m.Valid() {
		return nil, fmt.Errorf("%w: mode %d not in [0,%d]", ErrOutOfRange, n, state.ModeCount-1)
	}
	return SetMode{Mode: m}, nil
}

func parseColor(arg string) (Command, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: color needs 3 channels, got %d", ErrMalformed, len(parts))
	}

	var rgb [3]uint8
	for i, p := range parts {
		n, err := parseInt(p)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("%w: channel %d not in [0,255]", ErrOutOfRange, n)
		}
		rgb[i] = uint8(n)
	}
	return SetColor{Color: state.RGB(rgb[0], rgb[1], rgb[2])}, nil
}

// parseInt reads one decimal field. Surrounding whitespace and a leading
// sign are accepted; anything else is malformed. A number too large for an
// int is out of range rather than malformed.
func parseInt(field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(field))
	switch {
	case errors.Is(err, strconv.ErrRange):
		return 0, fmt.Errorf("%w: %q overflows", ErrOutOfRange, field)
	case err != nil:
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformed, field)
	}
	return n, nil
}

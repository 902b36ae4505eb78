package led

import (
	"fmt"

	"github.com/smazurov/climalight/internal/state"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// strip implements Display for a WS2812 (NeoPixel) strip driven over SPI.
type strip struct {
	port   spi.PortCloser
	dev    *nrzled.Dev
	pixels []byte
}

// newStrip opens the SPI port (empty name selects the first one) and
// drives numPixels RGB pixels.
func newStrip(portName string, numPixels int) (*strip, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open SPI port %q: %w", portName, err)
	}

	opts := nrzled.DefaultOpts
	opts.NumPixels = numPixels
	opts.Channels = 3

	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("init LED strip: %w", err)
	}

	return &strip{
		port:   port,
		dev:    dev,
		pixels: make([]byte, numPixels*3),
	}, nil
}

func (s *strip) Clear() error {
	clear(s.pixels)
	return nil
}

func (s *strip) Fill(c state.Color) error {
	r, g, b := c.RGB()
	for i := 0; i < len(s.pixels); i += 3 {
		s.pixels[i] = r
		s.pixels[i+1] = g
		s.pixels[i+2] = b
	}
	return nil
}

func (s *strip) Show() error {
	if _, err := s.dev.Write(s.pixels); err != nil {
		return fmt.Errorf("write LED strip: %w", err)
	}
	return nil
}

func (s *strip) Close() error {
	haltErr := s.dev.Halt()
	if err := s.port.Close(); err != nil {
		return err
	}
	return haltErr
}

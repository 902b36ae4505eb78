//go:build linux

package button

import (
	"fmt"
	"log/slog"

	"github.com/warthog618/go-gpiocdev"
)

// LineSource feeds a Detector from a GPIO character-device line.
type LineSource struct {
	line   *gpiocdev.Line
	logger *slog.Logger
}

// OpenLine requests the button line as a pulled-up input with both-edge
// detection. The kernel delivers events serially on the gpiocdev watcher
// goroutine, which satisfies Detector.Edge's single-caller contract.
func OpenLine(chip string, offset int, detector *Detector, logger *slog.Logger) (*LineSource, error) {
	handler := func(evt gpiocdev.LineEvent) {
		switch evt.Type {
		case gpiocdev.LineEventFallingEdge:
			detector.Edge(EdgeFalling, evt.Timestamp)
		case gpiocdev.LineEventRisingEdge:
			detector.Edge(EdgeRising, evt.Timestamp)
		}
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithConsumer("climalight-button"),
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("request button line %s:%d: %w", chip, offset, err)
	}

	logger.Info("Button line opened", "chip", chip, "offset", offset)
	return &LineSource{line: line, logger: logger}, nil
}

// Close releases the line.
func (s *LineSource) Close() error {
	if s == nil || s.line == nil {
		return nil
	}
	return s.line.Close()
}

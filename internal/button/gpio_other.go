//go:build !linux

package button

import (
	"errors"
	"log/slog"
)

// LineSource is unavailable off Linux; presses can still be submitted
// through the API.
type LineSource struct{}

// OpenLine always fails on non-Linux platforms.
func OpenLine(_ string, _ int, _ *Detector, _ *slog.Logger) (*LineSource, error) {
	return nil, errors.New("gpio character devices require linux")
}

// Close is a no-op.
func (s *LineSource) Close() error { return nil }

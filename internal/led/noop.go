package led

import (
	"log/slog"

	"github.com/smazurov/climalight/internal/state"
)

// noop implements Display for systems without LED hardware
type noop struct {
	logger  *slog.Logger
	pending state.Color
	shown   state.Color
}

// newNoop creates a new no-op display
func newNoop(logger *slog.Logger) *noop {
	return &noop{
		logger: logger,
	}
}

func (n *noop) Clear() error {
	n.pending = 0
	return nil
}

func (n *noop) Fill(c state.Color) error {
	n.pending = c
	return nil
}

// Show logs frame changes but performs no actual LED control
func (n *noop) Show() error {
	if n.pending != n.shown {
		n.logger.Debug("LED frame (no-op)", "color", n.pending.String())
		n.shown = n.pending
	}
	return nil
}

func (n *noop) Close() error {
	return nil
}

package led

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Display backends.
const (
	BackendAuto  = "auto"
	BackendSPI   = "spi"
	BackendSysfs = "sysfs"
	BackendNoop  = "noop"
)

// DefaultNumPixels matches a 24-pixel ring.
const DefaultNumPixels = 24

// ErrUnknownBackend is returned for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown LED backend")

// Config selects and parameterizes the display backend.
type Config struct {
	Backend   string
	NumPixels int
	SPIPort   string
	SysfsName string
}

// New creates a display for cfg. An explicit backend that fails to open is
// an error; "auto" detects the board and falls back to a no-op display.
func New(cfg Config, logger *slog.Logger) (Display, error) {
	if cfg.NumPixels <= 0 {
		cfg.NumPixels = DefaultNumPixels
	}

	switch cfg.Backend {
	case BackendSPI:
		return newStrip(cfg.SPIPort, cfg.NumPixels)
	case BackendSysfs:
		return newSysfs(sysfsLEDPath, cfg.SysfsName)
	case BackendNoop:
		return newNoop(logger), nil
	case BackendAuto, "":
		return detect(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// detect picks a backend based on board detection.
func detect(cfg Config, logger *slog.Logger) Display {
	boardModel := detectBoard()
	logger.Info("Detecting board for LED display", "board_model", boardModel)

	if cfg.SysfsName != "" {
		if d, err := newSysfs(sysfsLEDPath, cfg.SysfsName); err == nil {
			logger.Info("Using sysfs multicolor LED", "name", cfg.SysfsName)
			return d
		} else {
			logger.Warn("Sysfs LED unavailable", "name", cfg.SysfsName, "error", err)
		}
	}

	switch {
	case strings.Contains(boardModel, "Raspberry Pi"),
		strings.Contains(boardModel, "Orange Pi"),
		strings.Contains(boardModel, "NanoPC-T6"):
		d, err := newStrip(cfg.SPIPort, cfg.NumPixels)
		if err == nil {
			logger.Info("Using SPI LED strip", "pixels", cfg.NumPixels)
			return d
		}
		logger.Warn("SPI LED strip unavailable, using no-op display", "error", err)
	default:
		logger.Info("No LED support detected, using no-op display", "board_model", boardModel)
	}
	return newNoop(logger)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	model := strings.TrimRight(string(data), "\x00")
	return model
}

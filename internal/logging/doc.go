// Package logging configures slog for climalight.
//
// Every module asks for its own logger:
//
//	logger := logging.GetLogger("sensor")
//	logger.Warn("Sensor read failed", "error", err)
//
// Records go to stdout (text or json) when it is attached to something,
// to the systemd journal when journald is running, and always to an
// in-memory ring buffer that backs the /api/logs endpoints. A callback
// set with [SetLogCallback] sees each buffered entry as it is written.
//
// Levels are global with optional per-module overrides. [SetLevels]
// changes them on live loggers, which is how a config file edit takes
// effect without a restart:
//
//	[logging]
//	level = "info"
//	format = "text"
//	sensor = "debug"
//	mqtt = "warn"
//
// In the journal, records carry the climalight identifier and their
// attributes as upper-case fields:
//
//	journalctl -t climalight MODULE=button KIND=long
package logging

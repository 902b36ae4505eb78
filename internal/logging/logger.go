package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultBufferSize = 1000

// Config holds the global level, output format and per-module levels.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

type registry struct {
	mu          sync.RWMutex
	config      Config
	initialized bool
	global      *slog.LevelVar
	levels      map[string]*slog.LevelVar
	loggers     map[string]*slog.Logger
	buffer      *RingBuffer
	callback    LogCallback
}

func newRegistry() *registry {
	return &registry{
		global:  new(slog.LevelVar),
		levels:  make(map[string]*slog.LevelVar),
		loggers: make(map[string]*slog.Logger),
	}
}

var reg = newRegistry()

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps a case-insensitive level name to a slog level.
func ParseLevel(name string) (slog.Level, bool) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	return level, ok
}

// Initialize sets the levels and output format and starts buffering.
// Loggers handed out earlier keep their format but follow the new levels.
func Initialize(config Config) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.config = config
	reg.initialized = true
	if reg.buffer == nil {
		reg.buffer = NewRingBuffer(defaultBufferSize)
	}
	reg.applyLevels()

	slog.SetDefault(slog.New(newHandler(config.Format, reg.global)))
}

// SetLevels re-applies the global and per-module levels of config to
// every logger without touching outputs.
func SetLevels(config Config) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.config.Level = config.Level
	reg.config.Modules = config.Modules
	reg.applyLevels()
}

// GetBuffer returns the log ring buffer, or nil before Initialize.
func GetBuffer() *RingBuffer {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.buffer
}

// SetLogCallback registers a function called with every buffered entry.
// Pass nil to remove it.
func SetLogCallback(callback LogCallback) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.callback = callback
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	reg.mu.RLock()
	logger, ok := reg.loggers[module]
	reg.mu.RUnlock()
	if ok {
		return logger
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if logger, ok := reg.loggers[module]; ok {
		return logger
	}

	level := new(slog.LevelVar)
	level.Set(reg.levelFor(module))
	format := "text"
	if reg.initialized {
		format = reg.config.Format
	}

	logger = slog.New(newHandler(format, level)).With("module", module)
	reg.levels[module] = level
	reg.loggers[module] = logger
	return logger
}

func sinks() (*RingBuffer, LogCallback) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.buffer, reg.callback
}

// applyLevels must be called with mu held.
func (r *registry) applyLevels() {
	r.global.Set(r.levelFor(""))
	for module, level := range r.levels {
		level.Set(r.levelFor(module))
	}
}

// levelFor resolves a module's level: its override if valid, else the
// global level, else info.
func (r *registry) levelFor(module string) slog.Level {
	level, ok := ParseLevel(r.config.Level)
	if !ok {
		level = slog.LevelInfo
	}
	if override, found := ParseLevel(r.config.Modules[module]); found && module != "" {
		level = override
	}
	return level
}

// newHandler fans out to stdout, the journal when available, and the buffer.
func newHandler(format string, level slog.Leveler) slog.Handler {
	var handlers []slog.Handler

	if stdoutAttached() {
		opts := &slog.HandlerOptions{Level: level}
		if format == "json" {
			handlers = append(handlers, slog.NewJSONHandler(os.Stdout, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stdout, opts))
		}
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, NewBufferHandler(level))

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

// stdoutAttached is false when stdout is closed or redirected to a device
// such as /dev/null.
func stdoutAttached() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/climalight/internal/events"
	"github.com/smazurov/climalight/internal/metrics"
	"github.com/smazurov/climalight/internal/state"
)

// DefaultInterval is the pause between reports.
const DefaultInterval = 3 * time.Second

// Channel is the remote messaging link the reporter publishes on.
type Channel interface {
	Connected() bool
	Reconnect(ctx context.Context) error
	Subscribe(ctx context.Context, topic string) error
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Sink is a best-effort mirror that receives every status message.
type Sink interface {
	Write(ctx context.Context, payload []byte) error
}

// Config configures the reporter.
type Config struct {
	StatusTopic  string
	CommandTopic string
	Interval     time.Duration
}

// Reporter periodically publishes a snapshot of the shared state.
type Reporter struct {
	store   *state.Store
	channel Channel
	sinks   []Sink
	config  Config
	bus     *events.Bus
	logger  *slog.Logger

	sleep func(ctx context.Context, d time.Duration) bool
}

// NewReporter creates a reporter. bus may be nil.
func NewReporter(store *state.Store, channel Channel, config Config, bus *events.Bus, logger *slog.Logger, sinks ...Sink) *Reporter {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Reporter{
		store:   store,
		channel: channel,
		sinks:   sinks,
		config:  config,
		bus:     bus,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Run reports until ctx is cancelled. A failed publish is not retried
// within the cycle; the next cycle is the retry.
func (r *Reporter) Run(ctx context.Context) {
	r.logger.Info("Reporter started",
		"status_topic", r.config.StatusTopic,
		"interval", r.config.Interval,
		"mirrors", len(r.sinks))
	for {
		_ = r.Report(ctx)
		if !r.sleep(ctx, r.config.Interval) {
			r.logger.Info("Reporter stopped")
			return
		}
	}
}

// Report runs one cycle and returns the publish error, if any.
func (r *Reporter) Report(ctx context.Context) error {
	payload, err := FromSnapshot(r.store.Snapshot()).Marshal()
	if err != nil {
		r.logger.Error("Failed to serialize status", "error", err)
		metrics.IncReport("failed")
		return err
	}

	if !r.channel.Connected() {
		r.reconnect(ctx)
	}

	pubErr := r.channel.Publish(ctx, r.config.StatusTopic, payload)

	ev := events.ReportEvent{
		Payload:   string(payload),
		Published: pubErr == nil,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if pubErr != nil {
		ev.Error = pubErr.Error()
		metrics.IncReport("failed")
		r.logger.Warn("Status publish failed", "topic", r.config.StatusTopic, "error", pubErr)
	} else {
		metrics.IncReport("published")
		r.logger.Debug("Status published", "topic", r.config.StatusTopic, "payload", string(payload))
	}
	r.bus.Publish(ev)

	for _, sink := range r.sinks {
		if err := sink.Write(ctx, payload); err != nil {
			r.logger.Warn("Status mirror write failed", "error", err)
		}
	}

	return pubErr
}

// reconnect is best effort. The command subscription is re-established
// only after a successful reconnect.
func (r *Reporter) reconnect(ctx context.Context) {
	if err := r.channel.Reconnect(ctx); err != nil {
		r.logger.Warn("Reconnect failed", "error", err)
		return
	}
	r.logger.Info("Reconnected")

	if r.config.CommandTopic == "" {
		return
	}
	if err := r.channel.Subscribe(ctx, r.config.CommandTopic); err != nil {
		r.logger.Warn("Failed to resubscribe to command topic", "topic", r.config.CommandTopic, "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

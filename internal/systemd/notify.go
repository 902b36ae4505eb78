// Package systemd reports service readiness and liveness to systemd via
// sd_notify. Outside a Type=notify unit every call is a no-op.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify state updates.
type Notifier struct {
	logger *slog.Logger

	// Overridable for tests.
	notify          func(state string) (bool, error)
	watchdogEnabled func() (time.Duration, error)
}

// NewNotifier creates a Notifier bound to the process's NOTIFY_SOCKET.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		logger: logger,
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		watchdogEnabled: func() (time.Duration, error) {
			return daemon.SdWatchdogEnabled(false)
		},
	}
}

// Ready tells systemd startup is complete.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping tells systemd shutdown has begun.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(msg string) {
	n.send("STATUS=" + msg)
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify sent", "state", state)
	}
}

// RunWatchdog pings the systemd watchdog at half the unit's WatchdogSec
// until ctx is cancelled. A ping is skipped while healthy reports false,
// letting systemd restart a wedged process. healthy may be nil. Returns
// immediately when the watchdog is not enabled for this unit.
func (n *Notifier) RunWatchdog(ctx context.Context, healthy func() bool) {
	timeout, err := n.watchdogEnabled()
	if err != nil {
		n.logger.Warn("Failed to read watchdog settings", "error", err)
		return
	}
	if timeout <= 0 {
		n.logger.Debug("Watchdog not enabled")
		return
	}

	interval := timeout / 2
	n.logger.Info("Watchdog enabled", "timeout", timeout, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if healthy != nil && !healthy() {
				n.logger.Warn("Skipping watchdog ping, service unhealthy")
				continue
			}
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}

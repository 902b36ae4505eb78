package mqtt

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SendCommand connects, publishes payload once on cfg.CommandTopic and
// disconnects. It waits at most timeout for the broker.
func SendCommand(ctx context.Context, cfg Config, payload []byte, timeout time.Duration, logger *slog.Logger) error {
	if cfg.CommandTopic == "" {
		return errors.New("no command topic configured")
	}

	// A one-shot sender must not announce the device as offline.
	cfg.AvailabilityTopic = ""
	if cfg.ClientID == "" {
		cfg.ClientID = "climalight-send-" + uuid.NewString()[:8]
	}
	cfg.ReconnectTimeout = timeout

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := New(cfg, "", logger)
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		_ = c.Stop(stopCtx)
	}()

	if err := c.Reconnect(ctx); err != nil {
		return err
	}
	return c.Publish(ctx, cfg.CommandTopic, payload)
}

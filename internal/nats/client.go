package nats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// CommandHandler receives the raw payload of each command message.
type CommandHandler func(payload []byte)

// DeviceClient is the device's NATS connection. It publishes status and
// events and delivers command messages to a handler. All publish methods
// are no-ops while disconnected.
type DeviceClient struct {
	url        string
	instanceID string
	conn       *nats.Conn
	sub        *nats.Subscription
	logger     *slog.Logger
	mu         sync.RWMutex
	onCommand  CommandHandler
	connected  bool
}

// NewDeviceClient creates a client for the device identified by instanceID.
func NewDeviceClient(url, instanceID string, logger *slog.Logger) *DeviceClient {
	if logger == nil {
		logger = slog.Default()
	}

	return &DeviceClient{
		url:        url,
		instanceID: instanceID,
		logger:     logger,
	}
}

// Connect dials the server. An unreachable server is not an error: nats.go
// keeps retrying in the background and the command subscription is sent
// once the first connection succeeds. Only invalid options are returned.
func (c *DeviceClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := []nats.Option{
		nats.Name("climalight-" + c.instanceID),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.ConnectHandler(func(_ *nats.Conn) {
			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.logger.Info("Connected to NATS", "url", c.url)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			if err != nil {
				c.logger.Warn("NATS disconnected", "error", err)
			} else {
				c.logger.Debug("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(c.url, opts...)
	if err != nil {
		c.logger.Warn("Failed to set up NATS client, running without it", "url", c.url, "error", err)
		return err
	}

	c.conn = conn
	c.connected = conn.IsConnected()
	if c.connected {
		c.logger.Info("Connected to NATS", "url", c.url, "command_subject", SubjectCommand(c.instanceID))
	} else {
		c.logger.Warn("NATS unreachable, retrying in background", "url", c.url)
	}

	c.subscribeCommandsLocked()
	return nil
}

// subscribeCommandsLocked subscribes to the command subject (must hold lock).
// nats.go restores subscriptions after a reconnect on its own.
func (c *DeviceClient) subscribeCommandsLocked() {
	if c.conn == nil || c.onCommand == nil || c.sub != nil {
		return
	}

	handler := c.onCommand
	sub, err := c.conn.Subscribe(SubjectCommand(c.instanceID), func(msg *nats.Msg) {
		c.logger.Debug("Command message received", "subject", msg.Subject, "size", len(msg.Data))
		handler(msg.Data)
	})
	if err != nil {
		c.logger.Warn("Failed to subscribe to commands", "error", err)
		return
	}
	c.sub = sub
	if !c.conn.IsConnected() {
		return
	}
	if err := c.conn.FlushTimeout(time.Second); err != nil {
		c.logger.Debug("Command subscription flush failed", "error", err)
	}
}

// OnCommand sets the command handler. It runs on the nats.go delivery
// goroutine, one message at a time.
func (c *DeviceClient) OnCommand(fn CommandHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCommand = fn

	if c.conn != nil {
		c.subscribeCommandsLocked()
	}
}

func (c *DeviceClient) publish(subject string, data []byte) error {
	c.mu.RLock()
	conn := c.conn
	connected := c.connected
	c.mu.RUnlock()

	if conn == nil || !connected {
		return nil
	}
	return conn.Publish(subject, data)
}

// Write publishes a status message. It lets the client serve as a
// reporter mirror.
func (c *DeviceClient) Write(_ context.Context, payload []byte) error {
	return c.publish(SubjectStatus(c.instanceID), payload)
}

// PublishEvent publishes one bus event under its kind.
func (c *DeviceClient) PublishEvent(kind string, event any) {
	msg, err := NewEventMessage(c.instanceID, kind, event)
	if err != nil {
		c.logger.Warn("Failed to encode event", "kind", kind, "error", err)
		return
	}
	data, err := msg.Marshal()
	if err != nil {
		c.logger.Warn("Failed to marshal event", "kind", kind, "error", err)
		return
	}
	if err := c.publish(SubjectEvents(c.instanceID, kind), data); err != nil {
		c.logger.Warn("Failed to publish event", "kind", kind, "error", err)
	}
}

// IsConnected returns true if connected to NATS.
func (c *DeviceClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.conn != nil
}

// Close flushes pending messages and closes the connection.
func (c *DeviceClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		_ = c.sub.Unsubscribe()
		c.sub = nil
	}

	if c.conn != nil {
		if c.conn.IsConnected() {
			_ = c.conn.FlushTimeout(time.Second)
		}
		c.conn.Close()
		c.conn = nil
	}

	c.connected = false
	c.logger.Debug("NATS client closed")
}

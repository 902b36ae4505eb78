package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
)

// Sentinel errors.
var (
	ErrNotStarted   = errors.New("mqtt client not started")
	ErrNotConnected = errors.New("mqtt client not connected")
)

const (
	defaultKeepAlive        = 30
	defaultRateLimit        = 20
	defaultReconnectTimeout = 2 * time.Second
	defaultPublishTimeout   = 2 * time.Second
)

// Config configures the broker connection and topics.
type Config struct {
	Broker            string
	Username          string
	Password          string
	ClientID          string
	StatusTopic       string
	CommandTopic      string
	AvailabilityTopic string
	KeepAlive         uint16
	// RateLimit is the maximum number of inbound messages per second.
	RateLimit int64
	// ReconnectTimeout bounds how long Reconnect waits for the connection.
	ReconnectTimeout time.Duration
}

// MessageHandler is called for each message received on a subscribed
// topic. It runs on the client's receive goroutine.
type MessageHandler func(topic string, payload []byte)

// Client wraps an autopaho connection manager.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	limiter *messageRateLimiter

	connected atomic.Bool
	handler   atomic.Pointer[MessageHandler]

	mu   sync.Mutex
	cm   *autopaho.ConnectionManager
	subs []string
}

// New creates a Client but does not connect. Call [Client.Start].
func New(cfg Config, instanceID string, logger *slog.Logger) *Client {
	if cfg.ClientID == "" {
		cfg.ClientID = "climalight-" + instanceID
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.ReconnectTimeout <= 0 {
		cfg.ReconnectTimeout = defaultReconnectTimeout
	}

	return &Client{
		cfg:     cfg,
		logger:  logger,
		limiter: newMessageRateLimiter(cfg.RateLimit, time.Second, logger),
	}
}

// OnMessage registers the inbound message handler, replacing any
// previous one.
func (c *Client) OnMessage(h MessageHandler) {
	c.handler.Store(&h)
}

// Start begins connecting in the background. It does not wait for the
// first connection; autopaho keeps retrying until ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(c.cfg.Broker)
	if err != nil {
		return fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{brokerURL},
		KeepAlive:                     c.cfg.KeepAlive,
		CleanStartOnInitialConnection: true,
		ConnectUsername:               c.cfg.Username,
		ConnectPassword:               []byte(c.cfg.Password),
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			c.connected.Store(true)
			c.logger.Info("MQTT connected to broker", "broker", c.cfg.Broker)
			c.resubscribe(ctx, cm)
			c.publishAvailability(ctx, cm, "online")
		},
		OnConnectionDown: c.connectionDown,
		OnConnectError: func(err error) {
			c.logger.Warn("MQTT connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: c.cfg.ClientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					c.receive(pr.Packet.Topic, pr.Packet.Payload)
					return true, nil
				},
			},
			OnClientError: func(err error) {
				c.logger.Warn("MQTT client error", "error", err)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				c.logger.Warn("MQTT server requested disconnect", "reason_code", d.ReasonCode)
			},
		},
	}

	if c.cfg.AvailabilityTopic != "" {
		pahoCfg.WillMessage = &paho.WillMessage{
			Topic:   c.cfg.AvailabilityTopic,
			Payload: []byte("offline"),
			QoS:     1,
			Retain:  true,
		}
	}

	// Enable TLS for mqtts:// or ssl:// schemes.
	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	c.mu.Lock()
	c.cm = cm
	c.mu.Unlock()

	go c.limiter.start(ctx)
	return nil
}

// Stop publishes "offline" and disconnects.
func (c *Client) Stop(ctx context.Context) error {
	cm := c.manager()
	if cm == nil {
		return nil
	}
	if c.Connected() {
		c.publishAvailability(ctx, cm, "offline")
	}
	c.connected.Store(false)
	return cm.Disconnect(ctx)
}

// connectionDown runs on autopaho's connection loop once a live
// connection drops, before any reconnect attempt. It must not block.
func (c *Client) connectionDown() bool {
	c.connected.Store(false)
	c.logger.Warn("MQTT connection lost", "broker", c.cfg.Broker)
	return true
}

// Connected reports whether the broker connection is currently up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Reconnect waits up to ReconnectTimeout for the background reconnect to
// succeed.
func (c *Client) Reconnect(ctx context.Context) error {
	cm := c.manager()
	if cm == nil {
		return ErrNotStarted
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReconnectTimeout)
	defer cancel()
	if err := cm.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("mqtt reconnect: %w", err)
	}
	c.connected.Store(true)
	return nil
}

// Subscribe follows topic now and after every reconnect.
func (c *Client) Subscribe(ctx context.Context, topic string) error {
	c.mu.Lock()
	if !slices.Contains(c.subs, topic) {
		c.subs = append(c.subs, topic)
	}
	cm := c.cm
	c.mu.Unlock()

	if cm == nil {
		return ErrNotStarted
	}
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.subscribe(ctx, cm, topic)
}

// Publish sends payload on topic at QoS 0.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	cm := c.manager()
	if cm == nil {
		return ErrNotStarted
	}
	if !c.Connected() {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: payload,
		QoS:     0,
	}); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

// Dropped returns the number of inbound messages dropped by the rate
// limiter in the current interval.
func (c *Client) Dropped() int64 {
	return c.limiter.dropped.Load()
}

func (c *Client) manager() *autopaho.ConnectionManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cm
}

func (c *Client) receive(topic string, payload []byte) {
	if !c.limiter.allow() {
		return
	}
	h := c.handler.Load()
	if h == nil {
		c.logger.Debug("MQTT message without handler", "topic", topic, "payload_size", len(payload))
		return
	}
	(*h)(topic, payload)
}

func (c *Client) resubscribe(ctx context.Context, cm *autopaho.ConnectionManager) {
	c.mu.Lock()
	topics := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, topic := range topics {
		if err := c.subscribe(ctx, cm, topic); err != nil {
			c.logger.Warn("MQTT resubscribe failed", "topic", topic, "error", err)
		}
	}
}

func (c *Client) subscribe(ctx context.Context, cm *autopaho.ConnectionManager, topic string) error {
	if _, err := cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: topic, QoS: 1},
		},
	}); err != nil {
		return fmt.Errorf("mqtt subscribe to %s: %w", topic, err)
	}
	c.logger.Info("MQTT subscribed", "topic", topic)
	return nil
}

func (c *Client) publishAvailability(ctx context.Context, cm *autopaho.ConnectionManager, status string) {
	if c.cfg.AvailabilityTopic == "" {
		return
	}
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   c.cfg.AvailabilityTopic,
		Payload: []byte(status),
		QoS:     1,
		Retain:  true,
	}); err != nil {
		c.logger.Warn("MQTT availability publish failed",
			"status", status, "error", err)
	} else {
		c.logger.Info("MQTT availability published", "status", status)
	}
}

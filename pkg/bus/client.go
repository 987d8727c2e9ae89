package bus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// Subscription is the active side of a Subscribe call.
// Satisfied by *nats.Subscription.
type Subscription interface {
	Unsubscribe() error
}

// Client provides a high-level interface to the pipeline bus.
type Client struct {
	cfg    Config
	logger *slog.Logger
	topics *Topics

	mu     sync.RWMutex
	conn   *nats.Conn
	closed bool

	// Stats
	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
	reconnectCount   atomic.Int64
}

// Stats is a snapshot of client counters.
type Stats struct {
	Sent       int64 `json:"sent"`
	Received   int64 `json:"received"`
	Reconnects int64 `json:"reconnects"`
	Connected  bool  `json:"connected"`
}

// New creates a new bus client.
// Call Connect() to establish the connection.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		topics: NewTopics(cfg.Prefix),
	}, nil
}

// Connect establishes the broker connection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return io.ErrClosedPipe
	}

	if c.conn != nil {
		return nil // Already connected
	}

	c.logger.Info("connecting to bus", "url", c.cfg.URL, "name", c.cfg.Name)

	opts := []nats.Option{
		nats.Name(c.cfg.Name),
		nats.ReconnectWait(c.cfg.ReconnectWait),
		nats.MaxReconnects(c.cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			c.logger.Warn("bus disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.reconnectCount.Add(1)
			c.logger.Info("bus reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(c.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}

	c.conn = conn

	c.logger.Info("connected to bus", "url", conn.ConnectedUrl())
	return nil
}

// ConnectWithRetry connects with automatic retry on failure.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := c.Connect(ctx)
		if err == nil {
			return nil
		}

		attempts++

		if c.cfg.MaxConnectAttempts > 0 && attempts >= c.cfg.MaxConnectAttempts {
			return fmt.Errorf("max connect attempts (%d) reached: %w", c.cfg.MaxConnectAttempts, err)
		}

		c.logger.Warn("bus connection failed, retrying",
			"error", err,
			"attempt", attempts,
			"retry_in", c.cfg.ConnectRetryInterval,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ConnectRetryInterval):
		}
	}
}

// Topics returns the subject name helper.
func (c *Client) Topics() *Topics {
	return c.topics
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected() && !c.closed
}

// Publish publishes data to a subject.
func (c *Client) Publish(subject string, data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	if err := conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	c.messagesSent.Add(1)
	return nil
}

// Subscribe subscribes to a subject and calls the handler for each message.
// Handlers for a single subscription are invoked in delivery order.
func (c *Client) Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		c.messagesReceived.Add(1)
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.logger.Debug("subscribed", "subject", subject)
	return sub, nil
}

// Flush waits for all published messages to be processed by the broker.
func (c *Client) Flush() error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}
	return conn.Flush()
}

// Stats returns a snapshot of client counters.
func (c *Client) Stats() Stats {
	return Stats{
		Sent:       c.messagesSent.Load(),
		Received:   c.messagesReceived.Load(),
		Reconnects: c.reconnectCount.Load(),
		Connected:  c.IsConnected(),
	}
}

// Close drains the connection and releases resources.
// The client cannot be reused after Close.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
		c.conn = nil
	}

	c.logger.Debug("bus client closed",
		"sent", c.messagesSent.Load(),
		"received", c.messagesReceived.Load(),
	)
	return nil
}

// Package rabbitmq wraps the AMQP connection carrying job-start messages
// from the API to the worker.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Config holds connection and topology settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string

	ExchangeName string
	ExchangeType string
	QueueName    string
	RoutingKey   string
	Durable      bool

	RetryAttempts     int
	RetryInterval     time.Duration
	Heartbeat         time.Duration
	PublishRetries    int
	PublishRetryDelay time.Duration
}

// Client is a connected AMQP channel with the exchange, queue and binding
// declared.
type Client struct {
	cfg     *Config
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewClient dials RabbitMQ with retries and declares the topology.
func NewClient(cfg *Config, logger *slog.Logger) (*Client, error) {
	c := &Client{cfg: cfg, logger: logger}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		c.cfg.User, c.cfg.Password, c.cfg.Host, c.cfg.Port, c.cfg.VHost)

	attempts := c.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		c.logger.Info("Connecting to RabbitMQ",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)
		c.conn, err = amqp.DialConfig(dsn, amqp.Config{Heartbeat: c.cfg.Heartbeat, Locale: "en_US"})
		if err == nil {
			break
		}
		c.logger.Error("RabbitMQ connection failed",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if attempt < attempts {
			time.Sleep(c.cfg.RetryInterval)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := c.declareTopology(); err != nil {
		c.channel.Close()
		c.conn.Close()
		return err
	}

	c.logger.Info("RabbitMQ client ready",
		slog.String("exchange", c.cfg.ExchangeName),
		slog.String("queue", c.cfg.QueueName),
	)
	return nil
}

func (c *Client) declareTopology() error {
	if err := c.channel.ExchangeDeclare(
		c.cfg.ExchangeName,
		c.cfg.ExchangeType,
		c.cfg.Durable,
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(
		c.cfg.QueueName,
		c.cfg.Durable,
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := c.channel.QueueBind(
		c.cfg.QueueName,
		c.cfg.RoutingKey,
		c.cfg.ExchangeName,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// Publish sends one persistent message, retrying transient failures with a
// fixed delay.
func (c *Client) Publish(ctx context.Context, body []byte, contentType string) error {
	retries := c.cfg.PublishRetries
	if retries < 0 {
		retries = 0
	}
	delay := c.cfg.PublishRetryDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		lastErr = c.channel.PublishWithContext(
			ctx,
			c.cfg.ExchangeName,
			c.cfg.RoutingKey,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  contentType,
				Body:         body,
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
			},
		)
		if lastErr == nil {
			c.logger.Debug("Message published",
				slog.Int("body_size", len(body)),
				slog.Int("attempt", attempt+1),
			)
			return nil
		}
		if attempt < retries {
			c.logger.Warn("Publish failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Any("error", lastErr),
			)
			time.Sleep(delay)
		}
	}
	return fmt.Errorf("failed to publish message after %d attempts: %w", retries+1, lastErr)
}

// Consume starts delivering messages from the queue with manual acks.
func (c *Client) Consume(consumerTag string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.channel.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.cfg.QueueName,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("Consuming from RabbitMQ",
		slog.String("queue", c.cfg.QueueName),
		slog.String("consumer_tag", consumerTag),
		slog.Int("prefetch", prefetch),
	)
	return deliveries, nil
}

// Channel exposes the AMQP channel for ack/nack handling.
func (c *Client) Channel() *amqp.Channel {
	return c.channel
}

// Close shuts down the channel and connection.
func (c *Client) Close() error {
	c.logger.Info("Closing RabbitMQ connection")
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("Failed to close RabbitMQ channel", slog.Any("error", err))
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

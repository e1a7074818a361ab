package rabbitmq

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"
)

// Client owns one broker connection and the single channel order events are published on.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to the broker at url and opens the publishing channel.
func Dial(url string) (*Client, error) {
	uri, err := amqp.ParseURI(url)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url: %w", err)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", uri.Host, uri.Port, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open channel: %w", err), conn.Close())
	}

	slog.Info("RabbitMQ connected", "host", uri.Host, "port", uri.Port, "vhost", uri.Vhost)

	return &Client{
		conn:    conn,
		channel: channel,
	}, nil
}

// MustNewClient is Dial that panics on failure.
func MustNewClient(url string) *Client {
	client, err := Dial(url)
	if err != nil {
		panic(err)
	}

	return client
}

// Channel exposes the publishing channel.
func (c *Client) Channel() *amqp.Channel {
	return c.channel
}

// Close shuts the channel first, then the connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		errs = append(errs, c.channel.Close())
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
	}

	return errors.Join(errs...)
}

// QueueConfig mirrors the arguments of amqp QueueDeclare.
type QueueConfig struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

// DeclareQueue declares cfg on the publishing channel. Redeclaring an existing queue with the same
// settings is a no-op on the broker.
func (c *Client) DeclareQueue(cfg QueueConfig) (amqp.Queue, error) {
	queue, err := c.channel.QueueDeclare(cfg.Name, cfg.Durable, cfg.AutoDelete, cfg.Exclusive, cfg.NoWait, cfg.Args)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare queue %q: %w", cfg.Name, err)
	}

	return queue, nil
}

/**
 * @description
 * This package provides a simple producer for publishing messages to RabbitMQ.
 * The investment-service publishes lifecycle decision events and accrual run
 * summaries to durable queues consumed by dashboard and notification workers.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	Close()
}

// amqpChannel is the slice of *amqp091.Channel the producer uses. Kept as an
// interface so the reopen-on-failure path can be exercised without a broker.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// EventProducer holds the RabbitMQ connection and channel for publishing
// messages. The channel is shared by every caller and is replaced when a
// publish fails, so all channel access is serialized through mu.
type EventProducer struct {
	conn   *amqp091.Connection
	logger *slog.Logger

	mu      sync.Mutex
	channel amqpChannel
	reopen  func() (amqpChannel, error)
}

// EventProducerFallback is a minimal no-op publisher used when RabbitMQ is
// unavailable at startup. Decisions and accrual runs proceed without events.
type EventProducerFallback struct {
	logger *slog.Logger
}

// NewEventProducerFallback creates a no-op publisher.
func NewEventProducerFallback(logger *slog.Logger) *EventProducerFallback {
	return &EventProducerFallback{logger: logger}
}

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.logger.Warn("event publish skipped; broker unavailable", "routing_key", routingKey)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string, logger *slog.Logger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{
		conn:    conn,
		logger:  logger,
		channel: ch,
		reopen: func() (amqpChannel, error) {
			return conn.Channel()
		},
	}, nil
}

// Publish sends a message to the given exchange and routing key. An empty
// exchange publishes directly to the durable queue named by the routing key,
// which is declared on first use.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		p.logger.Error("json marshal failed", "routing_key", routingKey, "error", err)
		return err
	}
	publishing := amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        jsonBody,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if exchange == "" {
		if _, err := p.channel.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
			p.logger.Warn("queue declare failed; reopening channel", "queue", routingKey, "error", err)
			if err := p.reopenChannel(); err != nil {
				return err
			}
			if _, err := p.channel.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
				return err
			}
		}
	} else {
		if err := p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			return err
		}
	}

	err = p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, publishing)
	if err != nil {
		p.logger.Warn("publish failed; reopening channel", "routing_key", routingKey, "error", err)
		// One-shot retry on a fresh channel
		if reopenErr := p.reopenChannel(); reopenErr != nil {
			return err
		}
		return p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, publishing)
	}
	return nil
}

// reopenChannel replaces the shared channel. Callers must hold mu.
func (p *EventProducer) reopenChannel() error {
	ch, err := p.reopen()
	if err != nil {
		return err
	}
	p.channel = ch
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	p.mu.Lock()
	if p.channel != nil {
		p.channel.Close()
	}
	p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
	}
}

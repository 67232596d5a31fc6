package processing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the slice of *amqp.Channel the notifier uses.
type AMQPChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPBroker opens channels on a broker connection.
type AMQPBroker interface {
	Channel() (AMQPChannel, error)
	Close() error
}

type amqpConnection struct {
	conn *amqp.Connection
}

func (c amqpConnection) Channel() (AMQPChannel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c amqpConnection) Close() error {
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}

// AMQPNotifier publishes persistent processing requests to a RabbitMQ queue.
type AMQPNotifier struct {
	broker    AMQPBroker
	queueName string

	mu       sync.Mutex
	declared bool
}

// NewAMQPNotifier dials the broker.
func NewAMQPNotifier(url, queueName string) (*AMQPNotifier, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("PROCESSING_AMQP_URL is required")
	}
	if strings.TrimSpace(queueName) == "" {
		return nil, fmt.Errorf("PROCESSING_AMQP_QUEUE is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return NewAMQPNotifierWithBroker(amqpConnection{conn: conn}, queueName), nil
}

// NewAMQPNotifierWithBroker wraps an existing broker connection.
func NewAMQPNotifierWithBroker(broker AMQPBroker, queueName string) *AMQPNotifier {
	return &AMQPNotifier{broker: broker, queueName: queueName}
}

// Notify publishes the request on a short-lived channel.
func (p *AMQPNotifier) Notify(ctx context.Context, req Request) error {
	ch, err := p.broker.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if err := p.ensureQueue(ch); err != nil {
		return err
	}

	payload, err := EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("encode amqp message: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			MessageId:    req.DocumentID,
		},
	); err != nil {
		return fmt.Errorf("publish to %s: %w", p.queueName, err)
	}
	return nil
}

// ensureQueue declares the durable queue until one declare succeeds. A failed
// declare closes the channel server-side, so the next Notify retries on a
// fresh one.
func (p *AMQPNotifier) ensureQueue(ch AMQPChannel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.declared {
		return nil
	}
	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", p.queueName, err)
	}
	p.declared = true
	return nil
}

func (p *AMQPNotifier) Close() error {
	if p.broker == nil {
		return nil
	}
	return p.broker.Close()
}

var _ Notifier = (*AMQPNotifier)(nil)

// Package queue publishes event lifecycle messages to RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"eventbooking/internal/domain"
)

// DefaultQueue is the queue status changes are routed to through the default exchange.
const DefaultQueue = "event.status_changed"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier implements domain.Notifier over a RabbitMQ channel.
type AMQPNotifier struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    publisher
	queue string
	now   func() time.Time
}

// NewAMQPNotifier dials url, declares a durable queue and returns a Notifier publishing
// persistent JSON messages to it. Close releases the connection.
func NewAMQPNotifier(url, queue string) (*AMQPNotifier, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	return &AMQPNotifier{conn: conn, ch: ch, queue: queue, now: time.Now}, nil
}

func (n *AMQPNotifier) PublishStatusChanged(ctx context.Context, msg domain.EventStatusChanged) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    n.now().UTC(),
		Type:         "event.status_changed",
		MessageId:    msg.EventID + ":" + string(msg.To),
		Body:         body,
	}
	// amqp channels are not safe for concurrent publishing.
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ch.PublishWithContext(ctx, "", n.queue, false, false, pub); err != nil {
		return fmt.Errorf("publish status change: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a Notifier that only logs messages. Used when no broker is configured.
func NewLogNotifier(logger *slog.Logger) domain.Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) PublishStatusChanged(ctx context.Context, msg domain.EventStatusChanged) error {
	n.logger.InfoContext(ctx, "event status changed", "event_id", msg.EventID, "from", msg.From, "to", msg.To)
	return nil
}

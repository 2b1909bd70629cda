// Package notify publishes analysis status changes for a session.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusNoResults  = "no_results"

	Exchange = "session_updates"
)

type Update struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Notifier interface {
	Publish(ctx context.Context, update Update) error
}

// Nop drops every update.
type Nop struct{}

func (Nop) Publish(context.Context, Update) error { return nil }

// channel is the subset of *amqp.Channel the notifier uses.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes updates to the session_updates exchange with the
// routing key session.<id>.
type AMQPNotifier struct {
	conn        *amqp.Connection
	openChannel func() (channel, error)
	mu          sync.Mutex
}

func DialAMQP(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening RabbitMQ channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPNotifier{
		conn: conn,
		openChannel: func() (channel, error) {
			return conn.Channel()
		},
	}, nil
}

func (n *AMQPNotifier) Publish(_ context.Context, update Update) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, err := n.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	routingKey := fmt.Sprintf("session.%s", update.SessionID)

	return ch.Publish(
		Exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vytor/quizrunner/internal/logger"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	PublishAttempt(ctx context.Context, event *AttemptEvent) error
	Close() error
}

type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	enabled  bool
	log      *logger.Logger

	mu sync.Mutex
}

// NewRabbitMQPublisher connects and declares a durable topic exchange. An
// empty url returns a disabled publisher that logs and skips every event.
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	log := logger.Default().WithPrefix("events")
	if url == "" {
		log.Warn("AMQP URL is empty, event publishing is disabled")
		return &RabbitMQPublisher{exchange: exchange, log: log}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Info("publishing events to exchange %s", exchange)
	return &RabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
		log:      log,
	}, nil
}

func (p *RabbitMQPublisher) Enabled() bool {
	return p.enabled
}

func (p *RabbitMQPublisher) PublishAttempt(ctx context.Context, event *AttemptEvent) error {
	log := logger.FromContext(ctx).WithPrefix("events").WithFields(map[string]any{
		"event_type": event.Type,
		"attempt_id": event.AttemptID,
	})
	if !p.enabled {
		log.Debug("event publishing is disabled, skipping event")
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		log.Warn("failed to publish event: %v", err)
		return fmt.Errorf("publish event: %w", err)
	}

	log.Debug("published event")
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn("error closing rabbitmq channel: %v", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}

var _ Publisher = (*RabbitMQPublisher)(nil)

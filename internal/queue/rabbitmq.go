package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchangeName is the topic exchange every notifier event is published to
	DefaultExchangeName = "task_notifier_events"
	// DefaultAnnouncementQueue keeps announcements for consumers that are offline
	DefaultAnnouncementQueue = "task_notifier_announcements"
	// DefaultDLQName receives announcements that could not be processed
	DefaultDLQName = "task_notifier_announcements_dlq"

	announcementPattern = "notifier.announcement"
	dlqRoutingKey       = "dlq"
)

// ErrPublisherClosed is returned when publishing on a closed connection
var ErrPublisherClosed = errors.New("event publisher is closed")

// RabbitMQPublisher implements EventPublisher and EventSubscriber using RabbitMQ
type RabbitMQPublisher struct {
	mu                sync.Mutex // amqp channels are not safe for concurrent publishing
	conn              *amqp.Connection
	channel           *amqp.Channel
	exchangeName      string
	announcementQueue string
	dlqName           string
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the event topology
func NewRabbitMQPublisher(amqpURL string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	publisher := &RabbitMQPublisher{
		conn:              conn,
		channel:           ch,
		exchangeName:      DefaultExchangeName,
		announcementQueue: DefaultAnnouncementQueue,
		dlqName:           DefaultDLQName,
	}

	if err := publisher.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup exchanges: %w", err)
	}

	return publisher, nil
}

// setup configures the exchange and the durable announcement queue
func (p *RabbitMQPublisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.dlqName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := p.channel.QueueBind(p.dlqName, dlqRoutingKey, p.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	queueArgs := amqp.Table{
		"x-dead-letter-exchange":    p.exchangeName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}
	_, err = p.channel.QueueDeclare(
		p.announcementQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		queueArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare announcement queue: %w", err)
	}

	if err := p.channel.QueueBind(p.announcementQueue, announcementPattern, p.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind announcement queue: %w", err)
	}

	return nil
}

// Publish sends the event to the topic exchange under its routing key
func (p *RabbitMQPublisher) Publish(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		MessageId:   event.ID.String(),
		Timestamp:   event.CreatedAt,
		Type:        string(event.Type),
	}

	if event.Type == EventTypeAnnouncement {
		publishing.DeliveryMode = amqp.Persistent
	}

	// Calculate TTL from NotAfter if set
	if event.NotAfter != nil {
		ttl := time.Until(*event.NotAfter)
		if ttl <= 0 {
			return nil
		}
		publishing.Expiration = fmt.Sprintf("%d", ttl.Milliseconds())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		return ErrPublisherClosed
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,
		event.RoutingKey(),
		false, // mandatory
		false, // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe binds an exclusive, auto-deleted queue to the exchange and streams
// the events matching pattern (for example "notifier.#")
func (p *RabbitMQPublisher) Subscribe(ctx context.Context, pattern string) (<-chan *Event, <-chan error, error) {
	// Dedicated channel for consuming, separate from the publishing channel
	consumeCh, err := p.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	q, err := consumeCh.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to declare subscriber queue: %w", err)
	}

	if err := consumeCh.QueueBind(q.Name, pattern, p.exchangeName, false, nil); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to bind subscriber queue: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		q.Name,
		"",    // consumer tag (empty = auto-generate)
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	events := make(chan *Event)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)
		defer func() {
			_ = consumeCh.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errs <- fmt.Errorf("delivery channel closed")
					return
				}

				var event Event
				if err := json.Unmarshal(delivery.Body, &event); err != nil {
					select {
					case errs <- fmt.Errorf("failed to unmarshal event: %w", err):
					default:
					}
					continue
				}

				select {
				case <-ctx.Done():
					return
				case events <- &event:
				}
			}
		}
	}()

	return events, errs, nil
}

// HealthCheck verifies the connection and channel are open
func (p *RabbitMQPublisher) HealthCheck(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	if p.channel == nil || p.channel.IsClosed() {
		return fmt.Errorf("rabbitmq channel is closed")
	}
	return nil
}

// Close closes the publisher connection
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.channel != nil {
		err = p.channel.Close()
	}
	if p.conn != nil {
		if closeErr := p.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

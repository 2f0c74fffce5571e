package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amirphl/photo-moderation/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Moderation event types
const (
	EventPhotoApproved     = "photo.approved"
	EventPhotoRejected     = "photo.rejected"
	EventPhotoDeleted      = "photo.deleted"
	EventPhotoMainChanged  = "photo.main_changed"
	EventPhotoUploaded     = "photo.uploaded"
	EventPhotoTagsAssigned = "photo.tags_assigned"
	EventPhotoTagRemoved   = "photo.tag_removed"
	EventUserRolesEdited   = "user.roles_edited"
)

const publishTimeout = 5 * time.Second

// ModerationEvent is published after a state change commits
type ModerationEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	PhotoID    *uint     `json:"photo_id,omitempty"`
	UserID     *uint     `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Roles      []string  `json:"roles,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher delivers moderation events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event ModerationEvent) error
	Close() error
}

// amqpSession is the part of an AMQP channel the publisher needs
type amqpSession interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// rabbitSession owns a connection and the channel opened on it
type rabbitSession struct {
	*amqp.Channel
	conn *amqp.Connection
}

func (s *rabbitSession) IsClosed() bool {
	return s.Channel.IsClosed() || s.conn.IsClosed()
}

func (s *rabbitSession) Close() error {
	chErr := s.Channel.Close()
	connErr := s.conn.Close()
	if chErr != nil && !errors.Is(chErr, amqp.ErrClosed) {
		return chErr
	}
	if connErr != nil && !errors.Is(connErr, amqp.ErrClosed) {
		return connErr
	}
	return nil
}

// dialRabbitMQ connects, opens a channel and declares the durable queue
func dialRabbitMQ(url, queue string) (amqpSession, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &rabbitSession{Channel: ch, conn: conn}, nil
}

// RabbitMQPublisher publishes JSON events to a durable queue. A lost
// connection is redialed on the next publish.
type RabbitMQPublisher struct {
	mu      sync.Mutex
	dial    func() (amqpSession, error)
	session amqpSession
	closed  bool
	queue   string
	logger  *zap.Logger
}

// NewEventPublisher connects to RabbitMQ, or returns a no-op publisher when no URL is configured
func NewEventPublisher(cfg config.MessagingConfig, logger *zap.Logger) (EventPublisher, error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RabbitMQ not configured, moderation events are discarded")
		return NoopPublisher{}, nil
	}

	p := newRabbitMQPublisher(func() (amqpSession, error) {
		return dialRabbitMQ(cfg.RabbitMQURL, cfg.QueueName)
	}, cfg.QueueName, logger)
	if err := p.connect(); err != nil {
		return nil, err
	}

	logger.Info("RabbitMQ publisher ready", zap.String("queue", cfg.QueueName))
	return p, nil
}

func newRabbitMQPublisher(dial func() (amqpSession, error), queue string, logger *zap.Logger) *RabbitMQPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RabbitMQPublisher{dial: dial, queue: queue, logger: logger}
}

// connect replaces the current session. Callers hold mu.
func (p *RabbitMQPublisher) connect() error {
	if p.session != nil {
		_ = p.session.Close()
		p.session = nil
	}
	session, err := p.dial()
	if err != nil {
		return err
	}
	p.session = session
	return nil
}

// Publish sends the event as a persistent JSON message
func (p *RabbitMQPublisher) Publish(ctx context.Context, event ModerationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("failed to publish %s: %w", event.Type, amqp.ErrClosed)
	}

	err = p.publish(publishCtx, msg)
	if errors.Is(err, amqp.ErrClosed) {
		// the broker dropped us between the liveness check and the send
		p.logger.Warn("RabbitMQ channel closed during publish, reconnecting", zap.String("type", event.Type))
		if err = p.connect(); err == nil {
			err = p.session.PublishWithContext(publishCtx, "", p.queue, false, false, msg)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Moderation event published", zap.String("type", event.Type), zap.String("id", event.ID))
	return nil
}

func (p *RabbitMQPublisher) publish(ctx context.Context, msg amqp.Publishing) error {
	if p.session == nil || p.session.IsClosed() {
		p.logger.Warn("RabbitMQ connection lost, reconnecting", zap.String("queue", p.queue))
		if err := p.connect(); err != nil {
			return err
		}
	}
	return p.session.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		msg,
	)
}

// Close closes the session. Later publishes fail instead of redialing.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	return err
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ModerationEvent) error { return nil }
func (NoopPublisher) Close() error                                   { return nil }

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"auth-server/shared/interfaces"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// revocationQueueName is consumed by sibling services that cache sessions.
const revocationQueueName = "auth_session_revocations"

var _ interfaces.RevocationPublisher = (*RevocationPublisher)(nil)

// RevocationPublisher announces that a user's sessions must be dropped.
// Publishing is fire-and-forget from the caller's point of view: the
// orchestrator logs failures and never fails the request that triggered them.
type RevocationPublisher struct {
	conn      *amqp091.Connection
	ch        *amqp091.Channel
	logger    *zap.Logger
	queueName string
}

type sessionRevokedEvent struct {
	UserName  string    `json:"user_name"`
	RevokedAt time.Time `json:"revoked_at"`
}

// NewRevocationPublisher opens a channel and declares the durable queue.
func NewRevocationPublisher(conn *amqp091.Connection, logger *zap.Logger) (*RevocationPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}

	p := &RevocationPublisher{
		conn:      conn,
		logger:    logger.Named("RevocationPublisher").With(zap.String("queue", revocationQueueName)),
		queueName: revocationQueueName,
	}

	if err := p.setupChannelAndQueue(); err != nil {
		return nil, fmt.Errorf("failed to setup channel and queue: %w", err)
	}

	p.logger.Info("RevocationPublisher initialized")
	return p, nil
}

func (p *RevocationPublisher) setupChannelAndQueue() error {
	var err error
	p.ch, err = p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Declaring an existing queue with different parameters is an error.
	_, err = p.ch.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = p.ch.Close()
		return fmt.Errorf("failed to declare queue '%s': %w", p.queueName, err)
	}

	return nil
}

// PublishSessionRevoked sends a persistent JSON event to the queue.
func (p *RevocationPublisher) PublishSessionRevoked(ctx context.Context, userName string) error {
	body, err := json.Marshal(sessionRevokedEvent{
		UserName:  userName,
		RevokedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal revocation event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(publishCtx,
		"",          // exchange: default, routes by queue name
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish revocation event: %w", err)
	}

	p.logger.Debug("Session revocation event published", zap.String("username", userName))
	return nil
}

// Close releases the channel. The connection belongs to the caller.
func (p *RevocationPublisher) Close() error {
	if p.ch == nil {
		return nil
	}
	if err := p.ch.Close(); err != nil {
		p.logger.Error("Failed to close RabbitMQ channel", zap.Error(err))
		return err
	}
	p.logger.Info("RabbitMQ channel closed")
	return nil
}

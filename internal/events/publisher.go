package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

// Publisher sends order events to a queue through a ChannelPool.
type Publisher struct {
	pool      *ChannelPool
	queueName string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewPublisher(pool *ChannelPool, queueName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		pool:      pool,
		queueName: queueName,
		timeout:   5 * time.Second,
		logger:    logging.OrNop(logger).Named("publisher"),
	}
}

// OrderPlaced publishes the order.placed event for o.
func (p *Publisher) OrderPlaced(ctx context.Context, o domain.Order) error {
	body, err := json.Marshal(NewOrderPlaced(o))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ch, err := p.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	defer p.pool.Put(ch)

	err = ch.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         TypeOrderPlaced,
			MessageId:    o.ID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish order %s: %w", o.ID, err)
	}

	p.logger.Info("published", zap.String("type", TypeOrderPlaced), zap.String("order_id", o.ID))
	return nil
}

// LogPublisher stands in when no broker is configured; it only logs.
type LogPublisher struct {
	Logger *zap.Logger
}

func (p LogPublisher) OrderPlaced(_ context.Context, o domain.Order) error {
	logging.OrNop(p.Logger).Info("order event not published, no broker configured",
		zap.String("type", TypeOrderPlaced),
		zap.String("order_id", o.ID),
	)
	return nil
}

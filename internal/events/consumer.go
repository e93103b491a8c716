package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storefront/internal/logging"
)

// Handler processes one decoded event. A returned error requeues the message
// once; a second failure drops it.
type Handler func(ctx context.Context, ev OrderPlaced) error

// Worker consumes a queue on its own channel, one message at a time.
type Worker struct {
	id        int
	channel   *amqp.Channel
	queueName string
	handle    Handler
	logger    *zap.Logger
}

func NewWorker(id int, conn *amqp.Connection, queueName string, handle Handler, logger *zap.Logger) (*Worker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel for worker %d: %w", id, err)
	}
	if err := ch.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos for worker %d: %w", id, err)
	}
	return &Worker{
		id:        id,
		channel:   ch,
		queueName: queueName,
		handle:    handle,
		logger:    logging.OrNop(logger).Named("worker").With(zap.Int("worker", id)),
	}, nil
}

// Start consumes until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer w.channel.Close()

	msgs, err := w.channel.Consume(
		w.queueName,                      // queue
		fmt.Sprintf("notifier-%d", w.id), // consumer tag
		false,                            // auto-ack
		false,                            // exclusive
		false,                            // no-local
		false,                            // no-wait
		nil,                              // args
	)
	if err != nil {
		w.logger.Error("register consumer", zap.Error(err))
		return
	}
	w.logger.Info("worker started", zap.String("queue", w.queueName))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("delivery channel closed")
				return
			}
			w.process(ctx, msg)
		}
	}
}

func (w *Worker) process(ctx context.Context, msg amqp.Delivery) {
	process(ctx, msg, w.handle, w.logger)
}

func process(ctx context.Context, msg amqp.Delivery, handle Handler, logger *zap.Logger) {
	var ev OrderPlaced
	if err := json.Unmarshal(msg.Body, &ev); err != nil || ev.Type != TypeOrderPlaced || ev.OrderID == "" {
		logger.Warn("dropping malformed message", zap.Error(err), zap.String("type", ev.Type))
		_ = msg.Nack(false, false)
		return
	}

	if err := handle(ctx, ev); err != nil {
		requeue := !msg.Redelivered
		logger.Error("handle event",
			zap.String("order_id", ev.OrderID),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
		_ = msg.Nack(false, requeue)
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("ack", zap.String("order_id", ev.OrderID), zap.Error(err))
		return
	}
	logger.Debug("event handled", zap.String("order_id", ev.OrderID))
}

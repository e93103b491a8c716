package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storefront/internal/logging"
)

// ChannelPool shares a fixed number of AMQP channels over one connection.
// Every slot holds either an open channel or nil; a nil slot is refilled on
// the next Get so a channel closed by the broker never shrinks the pool.
type ChannelPool struct {
	conn      *amqp.Connection
	channels  chan *amqp.Channel
	mu        sync.Mutex
	closed    bool
	queueName string
	open      func() (*amqp.Channel, error)
	alive     func(*amqp.Channel) bool
	logger    *zap.Logger
}

func channelAlive(ch *amqp.Channel) bool {
	return ch != nil && !ch.IsClosed()
}

// NewChannelPool dials url and opens size channels, each declaring queueName.
func NewChannelPool(url, queueName string, size int, logger *zap.Logger) (*ChannelPool, error) {
	if size <= 0 {
		size = 1
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	pool := &ChannelPool{
		conn:      conn,
		channels:  make(chan *amqp.Channel, size),
		queueName: queueName,
		alive:     channelAlive,
		logger:    logging.OrNop(logger).Named("amqp_pool"),
	}
	pool.open = pool.createChannel
	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("create channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	pool.logger.Info("channel pool ready", zap.Int("size", size), zap.String("queue", queueName))
	return pool, nil
}

// Conn exposes the underlying connection for consumers.
func (p *ChannelPool) Conn() *amqp.Connection {
	return p.conn
}

func (p *ChannelPool) createChannel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := DeclareQueue(ch, p.queueName); err != nil {
		ch.Close()
		return nil, err
	}
	return ch, nil
}

// DeclareQueue declares the durable queue events are routed to.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// Get takes a channel, waiting until one is free or ctx is done. Empty or
// closed slots are refilled with a new channel.
func (p *ChannelPool) Get(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, fmt.Errorf("channel pool closed")
		}
		if p.alive(ch) {
			return ch, nil
		}
		fresh, err := p.open()
		if err != nil {
			p.release(nil)
			return nil, fmt.Errorf("reopen channel: %w", err)
		}
		return fresh, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns ch to the pool. A closed or nil channel gives back its slot
// empty.
func (p *ChannelPool) Put(ch *amqp.Channel) {
	if !p.alive(ch) {
		p.logger.Debug("returning dead channel slot")
		ch = nil
	}
	p.release(ch)
}

func (p *ChannelPool) release(ch *amqp.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		if ch != nil {
			ch.Close()
		}
		return
	}
	select {
	case p.channels <- ch:
	default:
		if ch != nil {
			ch.Close()
		}
	}
}

// Close closes all pooled channels and the connection.
func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		if ch != nil {
			ch.Close()
		}
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.logger.Info("channel pool closed")
}

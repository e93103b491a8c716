package events

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// newTestPool builds a pool of size empty slots whose channels come from open
// and are dead when listed in dead.
func newTestPool(size int, open func() (*amqp.Channel, error), dead map[*amqp.Channel]bool) *ChannelPool {
	p := &ChannelPool{
		channels: make(chan *amqp.Channel, size),
		open:     open,
		alive: func(ch *amqp.Channel) bool {
			return ch != nil && !dead[ch]
		},
		logger: zap.NewNop(),
	}
	for i := 0; i < size; i++ {
		p.channels <- nil
	}
	return p
}

func TestPoolRefillsClosedChannelHandedBack(t *testing.T) {
	dead := map[*amqp.Channel]bool{}
	opened := 0
	pool := newTestPool(1, func() (*amqp.Channel, error) {
		opened++
		return new(amqp.Channel), nil
	}, dead)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		ch, err := pool.Get(ctx)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		dead[ch] = true
		pool.Put(ch)
	}
	if opened != 3 {
		t.Fatalf("expected a fresh channel per dead slot, opened %d", opened)
	}
	if len(pool.channels) != 1 {
		t.Fatalf("pool shrank to %d slots", len(pool.channels))
	}
}

func TestPoolReusesLiveChannel(t *testing.T) {
	opened := 0
	pool := newTestPool(1, func() (*amqp.Channel, error) {
		opened++
		return new(amqp.Channel), nil
	}, map[*amqp.Channel]bool{})

	ctx := context.Background()
	first, err := pool.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	pool.Put(first)
	second, err := pool.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first != second || opened != 1 {
		t.Fatalf("expected the live channel back, opened %d", opened)
	}
}

func TestPoolKeepsSlotWhenReopenFails(t *testing.T) {
	fail := true
	pool := newTestPool(1, func() (*amqp.Channel, error) {
		if fail {
			return nil, errors.New("connection blocked")
		}
		return new(amqp.Channel), nil
	}, map[*amqp.Channel]bool{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := pool.Get(ctx); err == nil {
		t.Fatalf("expected reopen error")
	}
	fail = false
	if _, err := pool.Get(ctx); err != nil {
		t.Fatalf("slot lost after failed reopen: %v", err)
	}
}

func TestPoolGetHonoursContext(t *testing.T) {
	pool := newTestPool(0, func() (*amqp.Channel, error) {
		return new(amqp.Channel), nil
	}, map[*amqp.Channel]bool{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := pool.Get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

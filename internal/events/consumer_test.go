package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

type fakeAck struct {
	acked    int
	nacked   int
	requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked++; return nil }

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeued = requeue
	return nil
}

func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked++
	f.requeued = requeue
	return nil
}

func sampleOrder() domain.Order {
	return domain.Order{
		ID:             "11111111-1111-1111-1111-111111111111",
		Source:         domain.OrderSourceWeb,
		PersonalInfo:   domain.PersonalInfo{FirstName: "Awa", LastName: "Diop", Email: "awa@example.com", Phone: "771234567"},
		DeliveryMethod: domain.DeliveryPickup,
		Items:          []domain.OrderItem{{ProductID: "p1", Name: "Bolt", Price: 150, Quantity: 2, Pieces: 50, LineTotal: 7500}},
		ItemsPrice:     7500,
		TotalPrice:     7500,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func delivery(t *testing.T, ack *fakeAck, body []byte, redelivered bool) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, Body: body, Redelivered: redelivered}
}

func TestProcessAcksHandledEvent(t *testing.T) {
	body, err := json.Marshal(NewOrderPlaced(sampleOrder()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got OrderPlaced
	ack := &fakeAck{}
	process(context.Background(), delivery(t, ack, body, false), func(_ context.Context, ev OrderPlaced) error {
		got = ev
		return nil
	}, zap.NewNop())

	if ack.acked != 1 || ack.nacked != 0 {
		t.Fatalf("expected a single ack, got %+v", ack)
	}
	if got.OrderID != sampleOrder().ID || got.TotalPrice != 7500 || len(got.Items) != 1 || got.Items[0].Pieces != 50 {
		t.Fatalf("unexpected event %+v", got)
	}
	if !got.PlacedAt.Equal(sampleOrder().CreatedAt) {
		t.Fatalf("placedAt lost: %v", got.PlacedAt)
	}
}

func TestProcessDropsMalformedMessage(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   `{{`,
		"wrong type": `{"type":"order.shipped","orderId":"x"}`,
		"no order":   `{"type":"order.placed"}`,
	} {
		ack := &fakeAck{}
		called := false
		process(context.Background(), delivery(t, ack, []byte(body), false), func(context.Context, OrderPlaced) error {
			called = true
			return nil
		}, zap.NewNop())

		if called {
			t.Fatalf("%s: handler must not run", name)
		}
		if ack.nacked != 1 || ack.requeued {
			t.Fatalf("%s: expected nack without requeue, got %+v", name, ack)
		}
	}
}

func TestProcessRequeuesOnce(t *testing.T) {
	body, _ := json.Marshal(NewOrderPlaced(sampleOrder()))
	fail := func(context.Context, OrderPlaced) error { return errors.New("mail down") }

	first := &fakeAck{}
	process(context.Background(), delivery(t, first, body, false), fail, zap.NewNop())
	if first.nacked != 1 || !first.requeued {
		t.Fatalf("expected requeue on first failure, got %+v", first)
	}

	second := &fakeAck{}
	process(context.Background(), delivery(t, second, body, true), fail, zap.NewNop())
	if second.nacked != 1 || second.requeued {
		t.Fatalf("expected drop on redelivered failure, got %+v", second)
	}
}

func TestLogPublisherNeverFails(t *testing.T) {
	if err := (LogPublisher{}).OrderPlaced(context.Background(), sampleOrder()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

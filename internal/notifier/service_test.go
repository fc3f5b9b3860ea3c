package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	kafkax "github.com/ariefcatur/go-kiosk-orders/internal/kafka"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/ariefcatur/go-kiosk-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type captureSink struct {
	got  []Notification
	fail bool
}

func (c *captureSink) Notify(_ context.Context, n Notification) error {
	if c.fail {
		return errors.New("display offline")
	}
	c.got = append(c.got, n)
	return nil
}

func newService(t *testing.T) (*Service, *captureSink) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sink := &captureSink{}
	return &Service{Dedup: redisx.NewDedup(rdb, "notifier"), Sink: sink, Log: zap.NewNop()}, sink
}

func message(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	env, err := orders.NewEnvelope(context.Background(), eventType, "kiosk-api", "o1", payload, time.Now())
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	b, err := kafkax.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return kafkax.Message(env, b)
}

func TestKitchenTicketOnPayment(t *testing.T) {
	svc, sink := newService(t)
	m := message(t, orders.EventPaymentApproved, orders.PaymentApprovedPayload{
		OrderID:     "o1",
		OrderNumber: "ORD-ABC123",
		Items: []orders.TicketItem{
			{Name: "Classic Burger", Quantity: 2, Selections: `{"size":"large"}`},
			{Name: "Sprite", Quantity: 1},
		},
	})
	if err := svc.HandleOrderEvent(context.Background(), m); err != nil {
		t.Fatalf("HandleOrderEvent: %v", err)
	}
	if len(sink.got) != 1 || sink.got[0].Kind != KindKitchenTicket {
		t.Fatalf("notifications = %+v", sink.got)
	}
	want := `New order ORD-ABC123: 2x Classic Burger {"size":"large"}, 1x Sprite`
	if sink.got[0].Message != want {
		t.Fatalf("message = %q", sink.got[0].Message)
	}
}

func TestDuplicateEventSkipped(t *testing.T) {
	svc, sink := newService(t)
	m := message(t, orders.EventOrderStatusChanged, orders.OrderStatusChangedPayload{
		OrderID: "o1", OrderNumber: "ORD-ABC123", From: orders.StatusPreparing, To: orders.StatusReady,
	})
	for i := 0; i < 3; i++ {
		if err := svc.HandleOrderEvent(context.Background(), m); err != nil {
			t.Fatalf("HandleOrderEvent: %v", err)
		}
	}
	if len(sink.got) != 1 || sink.got[0].Kind != KindPickup {
		t.Fatalf("notifications = %+v", sink.got)
	}
}

func TestIgnoredEvents(t *testing.T) {
	svc, sink := newService(t)
	msgs := []kafkago.Message{
		message(t, orders.EventOrderCreated, orders.OrderCreatedPayload{OrderID: "o1"}),
		message(t, orders.EventOrderStatusChanged, orders.OrderStatusChangedPayload{OrderID: "o1", To: orders.StatusPreparing}),
	}
	for _, m := range msgs {
		if err := svc.HandleOrderEvent(context.Background(), m); err != nil {
			t.Fatalf("HandleOrderEvent: %v", err)
		}
	}
	if len(sink.got) != 0 {
		t.Fatalf("unexpected notifications: %+v", sink.got)
	}
}

func TestCancelledMentionsRefund(t *testing.T) {
	svc, sink := newService(t)
	m := message(t, orders.EventOrderCancelled, orders.OrderCancelledPayload{
		OrderID: "o1", OrderNumber: "ORD-ABC123", PreviousStatus: orders.StatusPaid, Refunded: true,
	})
	if err := svc.HandleOrderEvent(context.Background(), m); err != nil {
		t.Fatalf("HandleOrderEvent: %v", err)
	}
	if len(sink.got) != 1 || !strings.Contains(sink.got[0].Message, "refunded") {
		t.Fatalf("notifications = %+v", sink.got)
	}
}

func TestFailedNotifyIsRetried(t *testing.T) {
	svc, sink := newService(t)
	m := message(t, orders.EventOrderStatusChanged, orders.OrderStatusChangedPayload{
		OrderID: "o1", OrderNumber: "ORD-ABC123", To: orders.StatusReady,
	})
	sink.fail = true
	if err := svc.HandleOrderEvent(context.Background(), m); err == nil {
		t.Fatalf("expected error while sink is down")
	}
	sink.fail = false
	if err := svc.HandleOrderEvent(context.Background(), m); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(sink.got) != 1 {
		t.Fatalf("notifications = %+v", sink.got)
	}
}

func TestMalformedMessage(t *testing.T) {
	svc, _ := newService(t)
	if err := svc.HandleOrderEvent(context.Background(), kafkago.Message{Value: []byte("{not json")}); err == nil {
		t.Fatalf("expected decode error")
	}
}

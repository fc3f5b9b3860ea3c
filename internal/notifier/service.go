package notifier

import (
	"context"
	"fmt"
	"strings"

	kafkax "github.com/ariefcatur/go-kiosk-orders/internal/kafka"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	KindKitchenTicket = "kitchen_ticket"
	KindPickup        = "pickup"
	KindCancelled     = "cancelled"
)

type Notification struct {
	Kind        string
	OrderID     string
	OrderNumber string
	Message     string
	Items       []orders.TicketItem
}

// Sink delivers notifications (kitchen display, pickup board, ...).
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// Deduper remembers processed event ids.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type Service struct {
	Dedup Deduper
	Sink  Sink
	Log   *zap.Logger
}

// HandleOrderEvent: dipasang sebagai handler consumer.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		return err
	}
	log := s.Log.With(zap.String("event_id", env.EventID), zap.String("event_type", env.EventType),
		zap.String("trace_id", env.TraceID))

	// 2) dedup via Redis (pakai event_id)
	if seen, err := s.Dedup.Seen(ctx, env.EventID); err != nil {
		log.Warn("dedup check failed, processing anyway", zap.Error(err))
	} else if seen {
		log.Debug("duplicate event skipped")
		return nil
	}

	// 3) decode payload & notify
	n, ok, err := toNotification(env)
	if err != nil {
		return err
	}
	if ok {
		if err := s.Sink.Notify(ctx, n); err != nil {
			return fmt.Errorf("notify %s: %w", n.Kind, err)
		}
	}

	if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
		log.Warn("dedup mark failed", zap.Error(err))
	}
	return nil
}

func toNotification(env orders.Envelope) (Notification, bool, error) {
	switch env.EventType {
	case orders.EventPaymentApproved:
		p, err := kafkax.UnwrapPayload[orders.PaymentApprovedPayload](env.Payload)
		if err != nil {
			return Notification{}, false, err
		}
		return Notification{
			Kind:        KindKitchenTicket,
			OrderID:     p.OrderID,
			OrderNumber: p.OrderNumber,
			Message:     fmt.Sprintf("New order %s: %s", p.OrderNumber, summarize(p.Items)),
			Items:       p.Items,
		}, true, nil

	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return Notification{}, false, err
		}
		if p.To != orders.StatusReady {
			return Notification{}, false, nil
		}
		return Notification{
			Kind:        KindPickup,
			OrderID:     p.OrderID,
			OrderNumber: p.OrderNumber,
			Message:     fmt.Sprintf("Order %s is ready for pickup", p.OrderNumber),
		}, true, nil

	case orders.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			return Notification{}, false, err
		}
		msg := fmt.Sprintf("Order %s was cancelled", p.OrderNumber)
		if p.Refunded {
			msg += "; payment refunded"
		}
		return Notification{Kind: KindCancelled, OrderID: p.OrderID, OrderNumber: p.OrderNumber, Message: msg}, true, nil
	}
	// event lain di-ignore
	return Notification{}, false, nil
}

func summarize(items []orders.TicketItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		s := fmt.Sprintf("%dx %s", it.Quantity, it.Name)
		if it.Selections != "" {
			s += " " + it.Selections
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	Log *zap.Logger
}

func (l LogSink) Notify(_ context.Context, n Notification) error {
	l.Log.Info(n.Message,
		zap.String("kind", n.Kind),
		zap.String("order_id", n.OrderID),
		zap.String("order_number", n.OrderNumber),
		zap.Int("items", len(n.Items)),
	)
	return nil
}

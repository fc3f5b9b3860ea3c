package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderFinalized     = "OrderFinalized"
	EventPaymentApproved    = "PaymentApproved"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"

	EventVersion = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g., "kiosk-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(ctx context.Context, eventType, producer, orderID string, payload any, at time.Time) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		OccurredAt:    at.UTC(),
		Producer:      producer,
		TraceID:       TraceID(ctx),
		CorrelationID: orderID,
		Payload:       b,
	}, nil
}

type traceKey struct{}

// WithTraceID attaches the request id so events can be correlated with HTTP logs.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// ---- Payload per event ----

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

type OrderFinalizedPayload struct {
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	PaymentMethod Method          `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Total         decimal.Decimal `json:"total"`
}

type TicketItem struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Selections string `json:"customizations,omitempty"`
}

type PaymentApprovedPayload struct {
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	PaymentID     string          `json:"payment_id"`
	TransactionID string          `json:"transaction_id"`
	Method        Method          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Items         []TicketItem    `json:"items"`
}

type OrderStatusChangedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	From        Status `json:"from"`
	To          Status `json:"to"`
}

type OrderCancelledPayload struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	PreviousStatus Status `json:"previous_status"`
	Refunded       bool   `json:"refunded"`
}

func ticketItems(o *Order) []TicketItem {
	out := make([]TicketItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		it := TicketItem{Name: l.MenuItemName, Quantity: l.Quantity}
		if !l.Selections.IsZero() {
			if b, err := json.Marshal(l.Selections); err == nil {
				it.Selections = string(b)
			}
		}
		out = append(out, it)
	}
	return out
}

package orders

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
)

// ErrConflict is returned when a generated identifier is already taken: the
// order number on CreateOrder, a payment transaction id on Mutate.
var ErrConflict = errors.New("identifier conflict")

// MutateFunc runs against a private copy of the order; returning an error discards it.
type MutateFunc func(o *Order) error

// Store persists orders together with their lines and payments.
// Missing orders and lines are reported as apperr NotFound.
type Store interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
	OrderIDForLine(ctx context.Context, lineID string) (string, error)

	// List* return orders oldest first.
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Order, error)
	ListByPaymentStatus(ctx context.Context, ps PaymentStatus) ([]*Order, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*Order, error)

	OrderNumberExists(ctx context.Context, number string) (bool, error)
	TransactionIDExists(ctx context.Context, txnID string) (bool, error)

	// DeleteOrder removes the order with its lines and payments.
	DeleteOrder(ctx context.Context, id string) error

	// Mutate is the single-writer unit of work for one order: the order is loaded
	// under an exclusive per-order lock, fn runs, and the result is persisted only
	// if fn returns nil.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*Order, error)
}

// MenuReader is what ordering needs from the catalog.
type MenuReader interface {
	GetItem(ctx context.Context, id string) (menu.MenuItem, error)
}

type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

type StatusCache interface {
	SetStatus(ctx context.Context, s StatusSnapshot) error
	GetStatus(ctx context.Context, orderID string) (StatusSnapshot, bool, error)
	DeleteStatus(ctx context.Context, orderID string) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Envelope) error { return nil }

type nopCache struct{}

func (nopCache) SetStatus(context.Context, StatusSnapshot) error { return nil }
func (nopCache) GetStatus(context.Context, string) (StatusSnapshot, bool, error) {
	return StatusSnapshot{}, false, nil
}
func (nopCache) DeleteStatus(context.Context, string) error { return nil }
